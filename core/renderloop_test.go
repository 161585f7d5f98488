package session

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestRenderLoopTicksWhileActive(t *testing.T) {
	ticks := atomic.Int32{}
	loop := newRenderLoop(5*time.Millisecond, func() { ticks.Add(1) })

	loop.Start()
	defer loop.Stop()

	deadline := time.After(500 * time.Millisecond)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("expected at least 3 ticks, got %d", ticks.Load())
		case <-time.After(time.Millisecond):
		}
	}
}

func TestRenderLoopStopHaltsTicks(t *testing.T) {
	ticks := atomic.Int32{}
	loop := newRenderLoop(5*time.Millisecond, func() { ticks.Add(1) })

	loop.Start()
	time.Sleep(20 * time.Millisecond)
	loop.Stop()

	settled := ticks.Load()
	time.Sleep(50 * time.Millisecond)
	// One in-flight tick may land right after Stop, never more.
	if drift := ticks.Load() - settled; drift > 1 {
		t.Fatalf("expected ticks to stop, saw %d more after Stop", drift)
	}
}

func TestRenderLoopStartIsIdempotent(t *testing.T) {
	ticks := atomic.Int32{}
	loop := newRenderLoop(50*time.Millisecond, func() { ticks.Add(1) })

	loop.Start()
	loop.Start()
	loop.Start()
	defer loop.Stop()

	time.Sleep(80 * time.Millisecond)
	if got := ticks.Load(); got > 2 {
		t.Fatalf("expected a single schedule chain, got %d ticks", got)
	}
}

func TestRenderLoopWithoutCallbackNeverActivates(t *testing.T) {
	loop := newRenderLoop(time.Millisecond, nil)
	loop.Start()
	if loop.active.Load() {
		t.Fatalf("expected loop without a callback to stay inactive")
	}
}
