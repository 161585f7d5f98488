package session

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/jinzhu/copier"

	"github.com/adriansikora/voxa-core/core/audio"
	"github.com/adriansikora/voxa-core/core/realtime"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleNone      Role = "none"
)

type ItemType string

const (
	ItemTypeMessage            ItemType = "message"
	ItemTypeFunctionCall       ItemType = "function_call"
	ItemTypeFunctionCallOutput ItemType = "function_call_output"
)

type ItemStatus string

const (
	ItemStatusInProgress ItemStatus = "in_progress"
	ItemStatusCompleted  ItemStatus = "completed"
)

// ToolInvocation is the tool name and raw argument JSON carried by a
// function_call item.
type ToolInvocation struct {
	Name      string
	Arguments string
}

// Formatted is the derived, presentation-ready view of an item, filled in
// incrementally as deltas arrive.
type Formatted struct {
	Transcript string
	Text       string
	Audio      []byte
	File       *audio.File
	Tool       *ToolInvocation
	Output     string
}

// Item is one turn-unit of the conversation: a user or assistant message, a
// tool call, or a tool output.
type Item struct {
	ID        string
	Role      Role
	Type      ItemType
	Status    ItemStatus
	CallID    string
	Formatted Formatted
}

type decodeFunc func(raw []byte) (*audio.File, error)

// conversation derives the ordered item sequence from protocol deltas. Items
// are mutated in place as deltas arrive and replaced wholesale when the
// endpoint confirms an authoritative snapshot; identity is the
// endpoint-assigned id, unique within a conversation.
type conversation struct {
	mu     sync.Mutex
	items  []*Item
	index  map[string]*Item
	decode decodeFunc
}

func newConversation(decode decodeFunc) *conversation {
	if decode == nil {
		decode = func(raw []byte) (*audio.File, error) {
			return audio.Decode(raw, audio.DefaultSampleRate, audio.DefaultSampleRate)
		}
	}
	return &conversation{index: map[string]*Item{}, decode: decode}
}

func itemFromWire(wire realtime.Item) *Item {
	item := &Item{
		ID:     wire.ID,
		Role:   RoleNone,
		Type:   ItemType(wire.Type),
		Status: ItemStatus(wire.Status),
		CallID: wire.CallID,
	}
	if wire.Role != "" {
		item.Role = Role(wire.Role)
	}
	if item.Status == "" {
		item.Status = ItemStatusInProgress
	}

	switch item.Type {
	case ItemTypeFunctionCall:
		item.Formatted.Tool = &ToolInvocation{Name: wire.Name, Arguments: wire.Arguments}
	case ItemTypeFunctionCallOutput:
		item.Formatted.Output = wire.Output
	default:
		for _, part := range wire.Content {
			switch part.Type {
			case "text", "input_text":
				item.Formatted.Text += part.Text
			case "audio", "input_audio":
				item.Formatted.Transcript += part.Transcript
			}
		}
	}

	return item
}

// applyWireLocked replaces an existing item's authoritative fields with the
// wire snapshot while preserving locally accumulated audio and decode state.
func (c *conversation) applyWireLocked(wire realtime.Item) *Item {
	incoming := itemFromWire(wire)

	existing, ok := c.index[wire.ID]
	if !ok {
		c.items = append(c.items, incoming)
		c.index[wire.ID] = incoming
		return incoming
	}

	incoming.Formatted.Audio = existing.Formatted.Audio
	incoming.Formatted.File = existing.Formatted.File
	if incoming.Formatted.Transcript == "" {
		incoming.Formatted.Transcript = existing.Formatted.Transcript
	}
	if incoming.Formatted.Text == "" {
		incoming.Formatted.Text = existing.Formatted.Text
	}
	if incoming.Formatted.Tool != nil && incoming.Formatted.Tool.Arguments == "" &&
		existing.Formatted.Tool != nil {
		incoming.Formatted.Tool.Arguments = existing.Formatted.Tool.Arguments
	}

	*existing = *incoming
	return existing
}

// Upsert applies one authoritative wire item, creating it or replacing the
// stored state wholesale.
func (c *conversation) Upsert(wire realtime.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.applyWireLocked(wire)
	c.maybeDecodeLocked(item)
}

// ApplySnapshot replaces the whole ordered sequence with an authoritative
// item list from the endpoint. Decode state carries over by item id, so
// applying the same snapshot twice performs no duplicate decode work.
func (c *conversation) ApplySnapshot(wires []realtime.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous := c.index
	c.items = make([]*Item, 0, len(wires))
	c.index = make(map[string]*Item, len(wires))

	for _, wire := range wires {
		incoming := itemFromWire(wire)
		if existing, ok := previous[wire.ID]; ok {
			incoming.Formatted.Audio = existing.Formatted.Audio
			incoming.Formatted.File = existing.Formatted.File
			if incoming.Formatted.Transcript == "" {
				incoming.Formatted.Transcript = existing.Formatted.Transcript
			}
			if incoming.Formatted.Text == "" {
				incoming.Formatted.Text = existing.Formatted.Text
			}
		}
		c.items = append(c.items, incoming)
		c.index[wire.ID] = incoming
		c.maybeDecodeLocked(incoming)
	}
}

// AppendAudio appends raw PCM bytes to the item's accumulated audio. Returns
// false when the item is unknown.
func (c *conversation) AppendAudio(id string, pcm []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.index[id]
	if !ok {
		return false
	}
	item.Formatted.Audio = append(item.Formatted.Audio, pcm...)
	return true
}

func (c *conversation) AppendTranscript(id, delta string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.index[id]
	if !ok {
		return false
	}
	item.Formatted.Transcript += delta
	return true
}

// SetTranscript overwrites the transcript, used when input transcription
// completes with the full utterance text.
func (c *conversation) SetTranscript(id, transcript string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.index[id]
	if !ok {
		return false
	}
	item.Formatted.Transcript = transcript
	return true
}

func (c *conversation) AppendText(id, delta string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.index[id]
	if !ok {
		return false
	}
	item.Formatted.Text += delta
	return true
}

func (c *conversation) AppendArguments(id, delta string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.index[id]
	if !ok {
		return false
	}
	if item.Formatted.Tool == nil {
		item.Formatted.Tool = &ToolInvocation{}
	}
	item.Formatted.Tool.Arguments += delta
	return true
}

// Complete applies the final wire state of an item, marks it completed, and
// triggers the decode of its accumulated audio. Returns a copy of the final
// item for tool dispatch.
func (c *conversation) Complete(wire realtime.Item) Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := c.applyWireLocked(wire)
	item.Status = ItemStatusCompleted
	c.maybeDecodeLocked(item)

	return *item
}

// maybeDecodeLocked decodes a completed item's audio into a playable file
// exactly once. An already-decoded item is left alone, guarding against
// duplicate decode work on repeated snapshots.
func (c *conversation) maybeDecodeLocked(item *Item) {
	if item.Status != ItemStatusCompleted || len(item.Formatted.Audio) == 0 ||
		item.Formatted.File != nil {
		return
	}

	file, err := c.decode(item.Formatted.Audio)
	if err != nil {
		logger.Warn("decoding item audio failed",
			slog.String("item_id", item.ID), slog.Any("err", err))
		return
	}
	item.Formatted.File = file
}

// Delete removes an item by id. Absent ids are a no-op: deletion races with
// server-side completion are expected.
func (c *conversation) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.index[id]; !ok {
		return false
	}
	delete(c.index, id)
	for i, item := range c.items {
		if item.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return true
}

func (c *conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.index = map[string]*Item{}
}

func (c *conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Items returns a deep copy of the ordered sequence so observers can never
// mutate reconciler state.
func (c *conversation) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		var snapshot Item
		if err := copier.CopyWithOption(&snapshot, item, copier.Option{DeepCopy: true}); err != nil {
			logger.Warn("copying item snapshot failed",
				slog.String("item_id", item.ID), slog.Any("err", err))
			snapshot = *item
		}
		items = append(items, snapshot)
	}
	return items
}

// Get returns a copy of one item by id.
func (c *conversation) Get(id string) (Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.index[id]
	if !ok {
		return Item{}, fmt.Errorf("item %q not found", id)
	}
	return *item, nil
}
