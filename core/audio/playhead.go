package audio

import "errors"

// ErrDeviceUnavailable is returned by capture and playback backends when the
// underlying audio device cannot be acquired.
var ErrDeviceUnavailable = errors.New("audio device unavailable")

// Playhead identifies the exact position playback had reached when it was
// interrupted: the track being rendered and the number of 16-bit samples of
// it already handed to the device.
type Playhead struct {
	TrackID      string
	SampleOffset int
}
