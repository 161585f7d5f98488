package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// renderLoop periodically invokes a visualization callback while active.
// Start is idempotent and Stop halts the loop before its next tick; a tick
// scheduled before Stop may still fire, but never after the reschedule check.
type renderLoop struct {
	mu       sync.Mutex
	active   atomic.Bool
	interval time.Duration
	timer    *time.Timer
	render   func()
}

func newRenderLoop(interval time.Duration, render func()) *renderLoop {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &renderLoop{interval: interval, render: render}
}

func (l *renderLoop) Start() {
	if l.render == nil || !l.active.CompareAndSwap(false, true) {
		return
	}
	l.schedule()
}

func (l *renderLoop) Stop() {
	if !l.active.CompareAndSwap(true, false) {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *renderLoop) schedule() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.active.Load() {
		return
	}

	l.timer = time.AfterFunc(l.interval, func() {
		if !l.active.Load() {
			return
		}
		l.render()
		l.schedule()
	})
}
