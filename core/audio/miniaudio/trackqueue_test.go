package miniaudio

import (
	"bytes"
	"testing"
)

func TestTrackQueueFillsInEnqueueOrder(t *testing.T) {
	q := &trackQueue{}
	q.Add([]byte{1, 1, 2, 2}, "t1")
	q.Add([]byte{3, 3}, "t2")

	dst := make([]byte, 6)
	if n := q.Fill(dst); n != 6 {
		t.Fatalf("expected 6 bytes, got %d", n)
	}
	if !bytes.Equal(dst, []byte{1, 1, 2, 2, 3, 3}) {
		t.Fatalf("expected tracks in order, got %v", dst)
	}
}

func TestTrackQueueAppendsToQueuedTrack(t *testing.T) {
	q := &trackQueue{}
	q.Add([]byte{1, 1}, "t1")
	q.Add([]byte{9, 9}, "t2")
	q.Add([]byte{2, 2}, "t1")

	dst := make([]byte, 4)
	q.Fill(dst)
	if !bytes.Equal(dst, []byte{1, 1, 2, 2}) {
		t.Fatalf("expected late chunks to extend their own track, got %v", dst)
	}
}

func TestTrackQueueDrainedHeadStaysCurrent(t *testing.T) {
	q := &trackQueue{}
	q.Add([]byte{1, 1}, "t1")

	dst := make([]byte, 4)
	if n := q.Fill(dst); n != 2 {
		t.Fatalf("expected partial fill, got %d", n)
	}

	// A chunk arriving after the drain continues the same track.
	q.Add([]byte{2, 2}, "t1")
	if n := q.Fill(dst); n != 2 {
		t.Fatalf("expected the late chunk to play, got %d", n)
	}

	playhead := q.Playhead()
	if playhead == nil || playhead.TrackID != "t1" || playhead.SampleOffset != 2 {
		t.Fatalf("expected playhead to track cumulative samples, got %+v", playhead)
	}
}

func TestTrackQueuePlayheadNilBeforePlayback(t *testing.T) {
	q := &trackQueue{}
	if playhead := q.Playhead(); playhead != nil {
		t.Fatalf("expected nil playhead on an empty queue, got %+v", playhead)
	}

	q.Add([]byte{1, 1}, "t1")
	if playhead := q.Playhead(); playhead != nil {
		t.Fatalf("expected nil playhead before any fill, got %+v", playhead)
	}
}

func TestTrackQueueInterruptReportsOffsetAndClears(t *testing.T) {
	q := &trackQueue{}
	q.Add(make([]byte, 9600), "t1")
	q.Add(make([]byte, 100), "t2")

	q.Fill(make([]byte, 9600))

	playhead := q.Interrupt()
	if playhead == nil || playhead.TrackID != "t1" || playhead.SampleOffset != 4800 {
		t.Fatalf("expected interruption at t1/4800, got %+v", playhead)
	}

	if n := q.Fill(make([]byte, 4)); n != 0 {
		t.Fatalf("expected nothing queued after interrupt, got %d bytes", n)
	}
	if playhead := q.Interrupt(); playhead != nil {
		t.Fatalf("expected idle interrupt to report nil, got %+v", playhead)
	}
}
