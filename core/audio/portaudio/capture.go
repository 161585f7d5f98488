// Package portaudio provides an alternative microphone backend on top of
// PortAudio, for platforms where the miniaudio backend misbehaves.
package portaudio

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"

	"github.com/adriansikora/voxa-core/core/audio"
)

const defaultBufferSize = 480

// Capture streams 16-bit mono PCM from the default input device at the
// endpoint sample rate.
type Capture struct {
	bufferSize int

	mu      sync.Mutex
	stream  *portaudio.Stream
	in      []int16
	onChunk func(pcm []byte)

	recording atomic.Bool
	done      chan struct{}

	windowMu sync.Mutex
	window   []int16
}

func NewCapture(bufferSize int) *Capture {
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}
	return &Capture{bufferSize: bufferSize}
}

// Begin initializes PortAudio and opens the default input stream.
func (c *Capture) Begin(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("%w: initializing portaudio: %v",
			audio.ErrDeviceUnavailable, err)
	}

	in := make([]int16, c.bufferSize)
	stream, err := portaudio.OpenDefaultStream(1, 0, float64(audio.DefaultSampleRate),
		c.bufferSize, in)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("%w: opening capture stream: %v",
			audio.ErrDeviceUnavailable, err)
	}

	c.in = in
	c.stream = stream
	return nil
}

// Record starts the read loop. A second call while already recording is a
// no-op.
func (c *Capture) Record(onChunk func(pcm []byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return fmt.Errorf("capture stream not open")
	}
	if !c.recording.CompareAndSwap(false, true) {
		return nil
	}

	if err := c.stream.Start(); err != nil {
		c.recording.Store(false)
		return fmt.Errorf("%w: starting capture stream: %v",
			audio.ErrDeviceUnavailable, err)
	}

	c.onChunk = onChunk
	c.done = make(chan struct{})
	go c.readLoop(c.stream, c.done)
	return nil
}

func (c *Capture) readLoop(stream *portaudio.Stream, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		if err := stream.Read(); err != nil {
			continue
		}

		c.mu.Lock()
		samples := make([]int16, len(c.in))
		copy(samples, c.in)
		onChunk := c.onChunk
		c.mu.Unlock()

		c.windowMu.Lock()
		c.window = samples
		c.windowMu.Unlock()

		if c.recording.Load() && onChunk != nil {
			onChunk(audio.SamplesToBytes(samples))
		}
	}
}

// Pause stops streaming without releasing the device.
func (c *Capture) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return fmt.Errorf("capture stream not open")
	}
	if !c.recording.CompareAndSwap(true, false) {
		return nil
	}

	close(c.done)
	c.done = nil
	c.onChunk = nil
	if err := c.stream.Stop(); err != nil {
		return fmt.Errorf("stopping capture stream: %w", err)
	}
	return nil
}

// End releases the stream and shuts PortAudio down.
func (c *Capture) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recording.CompareAndSwap(true, false) && c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.onChunk = nil

	c.windowMu.Lock()
	c.window = nil
	c.windowMu.Unlock()

	if c.stream == nil {
		return nil
	}
	err := c.stream.Close()
	c.stream = nil
	if terminateErr := portaudio.Terminate(); err == nil {
		err = terminateErr
	}
	if err != nil {
		return fmt.Errorf("closing capture stream: %w", err)
	}
	return nil
}

func (c *Capture) Recording() bool {
	return c.recording.Load()
}

// Frequencies reports the spectrum of the most recent read window.
func (c *Capture) Frequencies(kind audio.FrequencyKind) audio.Frequencies {
	c.windowMu.Lock()
	window := c.window
	c.windowMu.Unlock()
	return audio.AnalyzeFrequencies(window, audio.DefaultSampleRate, kind)
}

func (c *Capture) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}
