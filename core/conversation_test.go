package session

import (
	"sync/atomic"
	"testing"

	"github.com/adriansikora/voxa-core/core/audio"
	"github.com/adriansikora/voxa-core/core/realtime"
)

func countingDecoder(calls *atomic.Int32) decodeFunc {
	return func(raw []byte) (*audio.File, error) {
		calls.Add(1)
		return &audio.File{PCM: raw, SampleRate: audio.DefaultSampleRate}, nil
	}
}

func TestConversationKeepsArrivalOrder(t *testing.T) {
	conv := newConversation(nil)

	conv.Upsert(realtime.Item{ID: "a", Type: "message", Role: "user"})
	conv.Upsert(realtime.Item{ID: "b", Type: "message", Role: "assistant"})
	conv.Upsert(realtime.Item{ID: "c", Type: "function_call", Name: "get_weather"})

	items := conv.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	for i, want := range []string{"a", "b", "c"} {
		if items[i].ID != want {
			t.Fatalf("expected item %d to be %q, got %q", i, want, items[i].ID)
		}
	}
}

func TestConversationAppendsDeltas(t *testing.T) {
	conv := newConversation(nil)
	conv.Upsert(realtime.Item{ID: "a", Type: "message", Role: "assistant"})

	conv.AppendAudio("a", []byte{1, 2})
	conv.AppendAudio("a", []byte{3, 4})
	conv.AppendTranscript("a", "Hello")
	conv.AppendTranscript("a", ", world")

	item, err := conv.Get("a")
	if err != nil {
		t.Fatalf("expected item to exist, got %v", err)
	}
	if got := len(item.Formatted.Audio); got != 4 {
		t.Fatalf("expected 4 audio bytes, got %d", got)
	}
	if item.Formatted.Transcript != "Hello, world" {
		t.Fatalf("expected concatenated transcript, got %q", item.Formatted.Transcript)
	}
}

func TestConversationDeltaForUnknownItemIsRejected(t *testing.T) {
	conv := newConversation(nil)

	if conv.AppendAudio("missing", []byte{1, 2}) {
		t.Fatalf("expected audio delta for unknown item to be rejected")
	}
	if conv.AppendText("missing", "x") {
		t.Fatalf("expected text delta for unknown item to be rejected")
	}
}

func TestConversationCompleteDecodesExactlyOnce(t *testing.T) {
	decodes := atomic.Int32{}
	conv := newConversation(countingDecoder(&decodes))

	conv.Upsert(realtime.Item{ID: "a", Type: "message", Role: "assistant"})
	conv.AppendAudio("a", []byte{1, 2, 3, 4})

	conv.Complete(realtime.Item{ID: "a", Type: "message", Role: "assistant", Status: "completed"})
	conv.Complete(realtime.Item{ID: "a", Type: "message", Role: "assistant", Status: "completed"})

	if got := decodes.Load(); got != 1 {
		t.Fatalf("expected exactly one decode, got %d", got)
	}
}

func TestConversationSnapshotIsIdempotent(t *testing.T) {
	decodes := atomic.Int32{}
	conv := newConversation(countingDecoder(&decodes))

	conv.Upsert(realtime.Item{ID: "a", Type: "message", Role: "assistant"})
	conv.AppendAudio("a", []byte{1, 2, 3, 4})

	snapshot := []realtime.Item{
		{ID: "a", Type: "message", Role: "assistant", Status: "completed"},
		{ID: "b", Type: "message", Role: "user", Status: "completed",
			Content: []realtime.ContentPart{{Type: "input_text", Text: "hi"}}},
	}

	conv.ApplySnapshot(snapshot)
	first := conv.Items()
	conv.ApplySnapshot(snapshot)
	second := conv.Items()

	if got := decodes.Load(); got != 1 {
		t.Fatalf("expected decode state to survive snapshot reapplication, got %d decodes", got)
	}
	if len(first) != len(second) {
		t.Fatalf("expected stable item count, got %d then %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID || first[i].Status != second[i].Status {
			t.Fatalf("expected identical sequences, diverged at %d: %+v vs %+v",
				i, first[i], second[i])
		}
	}
	if second[0].Formatted.File == nil {
		t.Fatalf("expected decoded file to be preserved across snapshots")
	}
}

func TestConversationSnapshotDropsItemsNotListed(t *testing.T) {
	conv := newConversation(nil)
	conv.Upsert(realtime.Item{ID: "a", Type: "message"})
	conv.Upsert(realtime.Item{ID: "b", Type: "message"})

	conv.ApplySnapshot([]realtime.Item{{ID: "b", Type: "message"}})

	items := conv.Items()
	if len(items) != 1 || items[0].ID != "b" {
		t.Fatalf("expected snapshot to replace the sequence wholesale, got %+v", items)
	}
}

func TestConversationFunctionCallArgumentsAccumulate(t *testing.T) {
	conv := newConversation(nil)
	conv.Upsert(realtime.Item{ID: "f", Type: "function_call", Name: "set_memory", CallID: "call_1"})

	conv.AppendArguments("f", `{"key":`)
	conv.AppendArguments("f", `"city"}`)

	item := conv.Complete(realtime.Item{ID: "f", Type: "function_call", Name: "set_memory", CallID: "call_1"})
	if item.Formatted.Tool == nil {
		t.Fatalf("expected tool invocation to be formatted")
	}
	if item.Formatted.Tool.Arguments != `{"key":"city"}` {
		t.Fatalf("expected accumulated arguments to survive completion, got %q",
			item.Formatted.Tool.Arguments)
	}
	if item.Status != ItemStatusCompleted {
		t.Fatalf("expected completed status, got %q", item.Status)
	}
}

func TestConversationDeleteAbsentItemIsNoop(t *testing.T) {
	conv := newConversation(nil)
	conv.Upsert(realtime.Item{ID: "a", Type: "message"})

	if conv.Delete("missing") {
		t.Fatalf("expected deleting an absent item to report false")
	}
	if conv.Len() != 1 {
		t.Fatalf("expected sequence to be untouched")
	}

	if !conv.Delete("a") {
		t.Fatalf("expected delete of existing item to succeed")
	}
	if conv.Len() != 0 {
		t.Fatalf("expected empty sequence after delete")
	}
}

func TestConversationItemsReturnsDeepCopies(t *testing.T) {
	conv := newConversation(nil)
	conv.Upsert(realtime.Item{ID: "a", Type: "message", Role: "assistant"})
	conv.AppendAudio("a", []byte{1, 2})

	items := conv.Items()
	items[0].Formatted.Audio[0] = 99
	items[0].Formatted.Transcript = "mutated"

	item, _ := conv.Get("a")
	if item.Formatted.Audio[0] != 1 {
		t.Fatalf("expected observer copy to not share audio buffers")
	}
	if item.Formatted.Transcript == "mutated" {
		t.Fatalf("expected observer copy to not share item state")
	}
}
