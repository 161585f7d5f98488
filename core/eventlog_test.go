package session

import "testing"

func TestEventLogMergesAdjacentSameTypeEvents(t *testing.T) {
	log := newEventLog()

	for range 50 {
		log.Append(SourceServer, "response.audio.delta", nil)
	}

	events := log.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected 1 merged record, got %d", len(events))
	}
	if got, want := events[0].Count, 49; got != want {
		t.Fatalf("expected merge count %d, got %d", want, got)
	}
}

func TestEventLogDoesNotMergeAcrossDifferentEvents(t *testing.T) {
	log := newEventLog()

	log.Append(SourceServer, "response.audio.delta", nil)
	log.Append(SourceServer, "response.audio.delta", nil)
	log.Append(SourceServer, "response.done", nil)
	log.Append(SourceServer, "response.audio.delta", nil)

	events := log.Snapshot()
	if len(events) != 3 {
		t.Fatalf("expected 3 records, got %d", len(events))
	}
	if events[0].Count != 1 {
		t.Fatalf("expected first burst to merge once, got count %d", events[0].Count)
	}
	if events[2].Count != 0 {
		t.Fatalf("expected second burst to start a fresh record, got count %d", events[2].Count)
	}
}

func TestEventLogSeparatesSameTypeByDifferentSource(t *testing.T) {
	log := newEventLog()

	log.Append(SourceClient, "session.update", nil)
	log.Append(SourceServer, "session.update", nil)

	if got := log.Len(); got != 2 {
		t.Fatalf("expected source to split records, got %d records", got)
	}
}

func TestEventLogLengthIsMonotonic(t *testing.T) {
	log := newEventLog()

	kinds := []string{"a", "a", "b", "a", "b", "b", "b", "c"}
	prev := 0
	for _, kind := range kinds {
		log.Append(SourceServer, kind, nil)
		if got := log.Len(); got < prev {
			t.Fatalf("log length decreased from %d to %d", prev, got)
		} else {
			prev = got
		}
	}
}

func TestEventLogMergeKeepsLatestPayload(t *testing.T) {
	log := newEventLog()

	log.Append(SourceError, "error", "first failure")
	log.Append(SourceError, "error", "second failure")

	events := log.Snapshot()
	if len(events) != 1 {
		t.Fatalf("expected merged record, got %d records", len(events))
	}
	if got, want := events[0].Payload, "second failure"; got != want {
		t.Fatalf("expected latest payload %q, got %q", want, got)
	}
}

func TestEventLogClearEmptiesLog(t *testing.T) {
	log := newEventLog()
	log.Append(SourceServer, "session.created", nil)

	log.Clear()

	if got := log.Len(); got != 0 {
		t.Fatalf("expected empty log after clear, got %d records", got)
	}
}
