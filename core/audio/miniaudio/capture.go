package miniaudio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/malgo"

	"github.com/adriansikora/voxa-core/core/audio"
)

// Capture streams 16-bit mono PCM from the default input device at the
// endpoint sample rate.
type Capture struct {
	audioContext *malgo.AllocatedContext

	mu      sync.Mutex
	device  *malgo.Device
	onChunk func(pcm []byte)

	recording atomic.Bool

	windowMu sync.Mutex
	window   []int16
}

// Begin acquires the input device without starting the stream.
func (c *Capture) Begin(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device != nil {
		return nil
	}

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Capture.Format = format
	config.Capture.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PerformanceProfile = malgo.LowLatency
	config.PeriodSizeInFrames = 480
	config.Periods = 3

	device, err := malgo.InitDevice(c.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(_, pInput []byte, frameCount uint32) {
			n := int(frameCount) * bytesPerFrame
			if len(pInput) < n || n == 0 {
				return
			}
			c.handleFrames(pInput[:n])
		},
	})
	if err != nil {
		return fmt.Errorf("%w: initializing capture device: %v",
			audio.ErrDeviceUnavailable, err)
	}

	c.device = device
	return nil
}

func (c *Capture) handleFrames(frames []byte) {
	// The device reuses its buffer between callbacks.
	pcm := make([]byte, len(frames))
	copy(pcm, frames)

	c.windowMu.Lock()
	c.window = audio.BytesToSamples(pcm)
	c.windowMu.Unlock()

	if !c.recording.Load() {
		return
	}
	c.mu.Lock()
	onChunk := c.onChunk
	c.mu.Unlock()
	if onChunk != nil {
		onChunk(pcm)
	}
}

// Record starts streaming chunks to onChunk. A second call while already
// recording is a no-op and keeps the original callback.
func (c *Capture) Record(onChunk func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("capture device not acquired")
	}
	if c.recording.Load() {
		return nil
	}

	if !c.device.IsStarted() {
		if err := c.device.Start(); err != nil {
			return fmt.Errorf("%w: starting capture device: %v",
				audio.ErrDeviceUnavailable, err)
		}
	}

	c.onChunk = onChunk
	c.recording.Store(true)
	return nil
}

// Pause stops streaming without releasing the device.
func (c *Capture) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.device == nil {
		return fmt.Errorf("capture device not acquired")
	}
	if !c.recording.CompareAndSwap(true, false) {
		return nil
	}

	c.onChunk = nil
	if c.device.IsStarted() {
		if err := c.device.Stop(); err != nil {
			return fmt.Errorf("stopping capture device: %w", err)
		}
	}
	return nil
}

// End releases the device.
func (c *Capture) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.recording.Store(false)
	c.onChunk = nil
	if c.device != nil {
		c.device.Uninit()
		c.device = nil
	}

	c.windowMu.Lock()
	c.window = nil
	c.windowMu.Unlock()
	return nil
}

func (c *Capture) Recording() bool {
	return c.recording.Load()
}

// Frequencies reports the spectrum of the most recent input callback window.
func (c *Capture) Frequencies(kind audio.FrequencyKind) audio.Frequencies {
	c.windowMu.Lock()
	window := c.window
	c.windowMu.Unlock()
	return audio.AnalyzeFrequencies(window, audio.DefaultSampleRate, kind)
}

func (c *Capture) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
