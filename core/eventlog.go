package session

import (
	"sync"
	"time"
)

// EventSource labels which side of the connection produced a logged event.
type EventSource string

const (
	SourceClient EventSource = "client"
	SourceServer EventSource = "server"
	// SourceError marks protocol errors and endpoint error events so they
	// never merge into the surrounding traffic.
	SourceError EventSource = "error"
)

// LoggedEvent is one record of the protocol event log. Count is the number of
// merges the record absorbed: zero for a single occurrence, n for a run of
// n+1 consecutive events with the same source and type.
type LoggedEvent struct {
	Time    time.Time
	Source  EventSource
	Type    string
	Count   int
	Payload any
}

// eventLog is an append-only log of protocol events with adjacent-duplicate
// merging. Merging bounds log growth under high-frequency delta bursts while
// preserving ordering and total occurrence counts; two bursts of the same
// type separated by a different event stay separate records.
type eventLog struct {
	mu     sync.Mutex
	events []LoggedEvent
}

func newEventLog() *eventLog {
	return &eventLog{}
}

// Append records an event, merging it into the last record when source and
// type match. The merged record keeps the payload of the latest occurrence.
func (l *eventLog) Append(source EventSource, kind string, payload any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n := len(l.events); n > 0 {
		last := &l.events[n-1]
		if last.Source == source && last.Type == kind {
			last.Count++
			last.Time = time.Now()
			last.Payload = payload
			return
		}
	}

	l.events = append(l.events, LoggedEvent{
		Time:    time.Now(),
		Source:  source,
		Type:    kind,
		Payload: payload,
	})
}

// Snapshot returns a copy of the log in append order.
func (l *eventLog) Snapshot() []LoggedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()

	events := make([]LoggedEvent, len(l.events))
	copy(events, l.events)
	return events
}

func (l *eventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

func (l *eventLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}
