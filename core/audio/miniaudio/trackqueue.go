package miniaudio

import (
	"sync"

	"github.com/adriansikora/voxa-core/core/audio"
)

type track struct {
	id   string
	data []byte
	read int
}

// trackQueue holds 16-bit PCM grouped by track id. Tracks render one at a
// time in enqueue order; audio appended to a queued track lands in that
// track's buffer, not at the tail of the queue. A drained head track stays
// current until a newer track is ready, so late chunks for it keep playing
// without reordering.
type trackQueue struct {
	mu     sync.Mutex
	tracks []*track
}

func (q *trackQueue) Add(pcm []byte, trackID string) {
	if len(pcm) == 0 {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	for _, t := range q.tracks {
		if t.id == trackID {
			t.data = append(t.data, pcm...)
			return
		}
	}
	data := make([]byte, len(pcm))
	copy(data, pcm)
	q.tracks = append(q.tracks, &track{id: trackID, data: data})
}

// Fill copies queued audio into dst and returns the number of bytes written.
// The remainder of dst is left for the caller to silence.
func (q *trackQueue) Fill(dst []byte) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	written := 0
	for written < len(dst) && len(q.tracks) > 0 {
		head := q.tracks[0]
		available := head.data[head.read:]
		if len(available) == 0 {
			if len(q.tracks) == 1 {
				break
			}
			q.tracks = q.tracks[1:]
			continue
		}

		n := copy(dst[written:], available)
		head.read += n
		written += n
	}
	return written
}

// Playhead reports the track currently rendering and how many samples of it
// have been consumed, or nil when nothing has started playing.
func (q *trackQueue) Playhead() *audio.Playhead {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.playheadLocked()
}

func (q *trackQueue) playheadLocked() *audio.Playhead {
	if len(q.tracks) == 0 || q.tracks[0].read == 0 {
		return nil
	}
	head := q.tracks[0]
	return &audio.Playhead{
		TrackID:      head.id,
		SampleOffset: head.read / audio.GetDefaultEncodingInfo().Format.ByteSize(),
	}
}

// Interrupt drops all queued audio and reports where playback stopped.
func (q *trackQueue) Interrupt() *audio.Playhead {
	q.mu.Lock()
	defer q.mu.Unlock()

	playhead := q.playheadLocked()
	q.tracks = nil
	return playhead
}

func (q *trackQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.tracks = nil
}
