package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/adriansikora/voxa-core/core/audio"
)

// Playback renders 16-bit mono PCM on the default output device, one track at
// a time in enqueue order.
type Playback struct {
	audioContext *malgo.AllocatedContext

	mu     sync.Mutex
	device *malgo.Device

	queue trackQueue

	windowMu sync.Mutex
	window   []int16
}

// Connect acquires the output device and starts rendering. The device pulls
// from the track queue and plays silence while the queue is empty.
func (p *Playback) Connect(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.device != nil {
		return nil
	}

	channels := 1
	format := malgo.FormatS16
	bytesPerFrame := malgo.SampleSizeInBytes(format) * channels

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.SampleRate = uint32(audio.DefaultSampleRate)
	config.Playback.Format = format
	config.Playback.Channels = uint32(channels)
	config.Alsa.NoMMap = 1
	config.PeriodSizeInFrames = uint32(audio.DefaultSampleRate / 10)
	config.Periods = 4

	device, err := malgo.InitDevice(p.audioContext.Context, config, malgo.DeviceCallbacks{
		Data: func(pOutput, _ []byte, frameCount uint32) {
			need := int(frameCount) * bytesPerFrame
			if need > len(pOutput) {
				need = len(pOutput)
			}
			p.renderFrames(pOutput[:need])
		},
	})
	if err != nil {
		return fmt.Errorf("%w: initializing playback device: %v",
			audio.ErrDeviceUnavailable, err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		return fmt.Errorf("%w: starting playback device: %v",
			audio.ErrDeviceUnavailable, err)
	}

	p.device = device
	return nil
}

func (p *Playback) renderFrames(dst []byte) {
	n := p.queue.Fill(dst)
	silence := audio.GetDefaultEncodingInfo().SilenceValue()
	for i := n; i < len(dst); i++ {
		dst[i] = silence
	}

	p.windowMu.Lock()
	p.window = audio.BytesToSamples(dst[:n])
	p.windowMu.Unlock()
}

// Add16BitPCM enqueues audio under a track id. Chunks for the track currently
// playing extend it seamlessly.
func (p *Playback) Add16BitPCM(pcm []byte, trackID string) {
	p.queue.Add(pcm, trackID)
}

// Interrupt drops all queued audio and reports the exact playhead the
// listener reached, or nil when nothing was playing.
func (p *Playback) Interrupt() *audio.Playhead {
	return p.queue.Interrupt()
}

// Frequencies reports the spectrum of the most recently rendered window.
func (p *Playback) Frequencies(kind audio.FrequencyKind) audio.Frequencies {
	p.windowMu.Lock()
	window := p.window
	p.windowMu.Unlock()
	return audio.AnalyzeFrequencies(window, audio.DefaultSampleRate, kind)
}

// Close stops rendering and releases the device.
func (p *Playback) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.queue.Clear()
	p.windowMu.Lock()
	p.window = nil
	p.windowMu.Unlock()

	if p.device == nil {
		return nil
	}
	if p.device.IsStarted() {
		if err := p.device.Stop(); err != nil {
			p.device.Uninit()
			p.device = nil
			return fmt.Errorf("stopping playback device: %w", err)
		}
	}
	p.device.Uninit()
	p.device = nil
	return nil
}
