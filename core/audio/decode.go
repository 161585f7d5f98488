package audio

import (
	"fmt"
	"time"
)

// File is a decoded, playback-ready audio clip.
type File struct {
	PCM        []byte
	SampleRate int
}

// Duration reports the playable length of the clip.
func (f *File) Duration() time.Duration {
	if f == nil || f.SampleRate == 0 {
		return 0
	}

	samples := SampleCount(f.PCM)
	return time.Duration(samples) * time.Second / time.Duration(f.SampleRate)
}

// Samples returns the number of 16-bit samples in the clip.
func (f *File) Samples() int {
	if f == nil {
		return 0
	}
	return SampleCount(f.PCM)
}

// Decode converts raw 16-bit mono PCM recorded at sourceRate into a playable
// file at targetRate, resampling linearly when the rates differ.
func Decode(raw []byte, sourceRate, targetRate int) (*File, error) {
	if sourceRate <= 0 || targetRate <= 0 {
		return nil, fmt.Errorf("invalid sample rates: %d -> %d", sourceRate, targetRate)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("no audio to decode")
	}

	if sourceRate == targetRate {
		pcm := make([]byte, len(raw))
		copy(pcm, raw)
		return &File{PCM: pcm, SampleRate: targetRate}, nil
	}

	resampled := Resample(BytesToSamples(raw), sourceRate, targetRate)
	return &File{PCM: SamplesToBytes(resampled), SampleRate: targetRate}, nil
}

// Resample converts mono samples between rates using linear interpolation.
// Quality is sufficient for transcript playback; the realtime path never
// resamples because capture, endpoint, and playback share one rate.
func Resample(samples []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(samples) == 0 {
		out := make([]int16, len(samples))
		copy(out, samples)
		return out
	}

	ratio := float64(fromRate) / float64(toRate)
	outLen := int(float64(len(samples)) / ratio)
	if outLen == 0 {
		outLen = 1
	}

	out := make([]int16, outLen)
	for i := range out {
		pos := float64(i) * ratio
		left := int(pos)
		if left >= len(samples)-1 {
			out[i] = samples[len(samples)-1]
			continue
		}
		frac := pos - float64(left)
		out[i] = int16(float64(samples[left])*(1-frac) + float64(samples[left+1])*frac)
	}
	return out
}
