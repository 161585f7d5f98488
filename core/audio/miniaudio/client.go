// Package miniaudio provides capture and playback backends on top of the
// miniaudio library via malgo.
package miniaudio

import (
	"fmt"

	"github.com/gen2brain/malgo"

	"github.com/adriansikora/voxa-core/core/audio"
)

// Client owns the shared miniaudio context and hands out the capture and
// playback backends bound to it.
type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext

	capture  Capture
	playback Playback
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(
		nil,
		malgo.ContextConfig{},
		func(message string) {},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: initializing miniaudio context: %v",
			audio.ErrDeviceUnavailable, err)
	}

	client := &Client{audioContext: audioCtx}
	client.capture.audioContext = audioCtx
	client.playback.audioContext = audioCtx
	return client, nil
}

// Capture returns the microphone backend. Its lifecycle is driven by the
// session controller; the device is not acquired until Begin.
func (c *Client) Capture() *Capture { return &c.capture }

// Playback returns the speaker backend.
func (c *Client) Playback() *Playback { return &c.playback }

// Close releases the miniaudio context. Both backends must be ended first.
func (c *Client) Close() {
	_ = c.audioContext.Uninit()
	c.audioContext.Free()
}
