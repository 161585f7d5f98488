package realtime

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Item is the wire representation of one conversation item as the endpoint
// reports it.
type Item struct {
	ID        string        `json:"id"`
	Object    string        `json:"object,omitempty"`
	Type      string        `json:"type"`
	Status    string        `json:"status,omitempty"`
	Role      string        `json:"role,omitempty"`
	Content   []ContentPart `json:"content,omitempty"`
	CallID    string        `json:"call_id,omitempty"`
	Name      string        `json:"name,omitempty"`
	Arguments string        `json:"arguments,omitempty"`
	Output    string        `json:"output,omitempty"`
}

// ContentPart is one piece of item content. Audio payloads arrive
// base64-encoded.
type ContentPart struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
	Audio      string `json:"audio,omitempty"`
}

const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"

	ItemStatusInProgress = "in_progress"
	ItemStatusCompleted  = "completed"
)

// ServerEvent is one inbound protocol message, already parsed into its typed
// variant. The dispatch table in the session controller switches on these
// concrete types rather than on string-keyed callbacks.
type ServerEvent interface {
	ServerType() string
}

type ErrorEvent struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Type    string `json:"type,omitempty"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Param   string `json:"param,omitempty"`
}

func (ErrorEvent) ServerType() string { return "error" }

type SessionCreated struct {
	Session SessionInfo `json:"session"`
}

type SessionInfo struct {
	ID    string `json:"id"`
	Model string `json:"model,omitempty"`
}

func (SessionCreated) ServerType() string { return "session.created" }

type SessionUpdated struct {
	Session json.RawMessage `json:"session"`
}

func (SessionUpdated) ServerType() string { return "session.updated" }

type ItemCreated struct {
	Item Item `json:"item"`
}

func (ItemCreated) ServerType() string { return "conversation.item.created" }

type ItemDeleted struct {
	ItemID string `json:"item_id"`
}

func (ItemDeleted) ServerType() string { return "conversation.item.deleted" }

type InputTranscriptionCompleted struct {
	ItemID     string `json:"item_id"`
	Transcript string `json:"transcript"`
}

func (InputTranscriptionCompleted) ServerType() string {
	return "conversation.item.input_audio_transcription.completed"
}

type SpeechStarted struct {
	ItemID       string `json:"item_id,omitempty"`
	AudioStartMs int    `json:"audio_start_ms,omitempty"`
}

func (SpeechStarted) ServerType() string { return "input_audio_buffer.speech_started" }

type SpeechStopped struct {
	ItemID     string `json:"item_id,omitempty"`
	AudioEndMs int    `json:"audio_end_ms,omitempty"`
}

func (SpeechStopped) ServerType() string { return "input_audio_buffer.speech_stopped" }

type InputAudioCommitted struct {
	ItemID string `json:"item_id"`
}

func (InputAudioCommitted) ServerType() string { return "input_audio_buffer.committed" }

type ResponseCreated struct {
	Response ResponseInfo `json:"response"`
}

func (ResponseCreated) ServerType() string { return "response.created" }

type ResponseOutputItemAdded struct {
	OutputIndex int  `json:"output_index"`
	Item        Item `json:"item"`
}

func (ResponseOutputItemAdded) ServerType() string { return "response.output_item.added" }

type ResponseAudioDelta struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

func (ResponseAudioDelta) ServerType() string { return "response.audio.delta" }

// DecodePCM returns the raw 16-bit PCM bytes carried by the delta.
func (e ResponseAudioDelta) DecodePCM() ([]byte, error) {
	pcm, err := base64.StdEncoding.DecodeString(e.Delta)
	if err != nil {
		return nil, fmt.Errorf("decoding audio delta: %w", err)
	}
	return pcm, nil
}

type ResponseAudioTranscriptDelta struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

func (ResponseAudioTranscriptDelta) ServerType() string { return "response.audio_transcript.delta" }

type ResponseTextDelta struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

func (ResponseTextDelta) ServerType() string { return "response.text.delta" }

type ResponseFunctionCallArgumentsDelta struct {
	ItemID string `json:"item_id"`
	CallID string `json:"call_id"`
	Delta  string `json:"delta"`
}

func (ResponseFunctionCallArgumentsDelta) ServerType() string {
	return "response.function_call_arguments.delta"
}

type ResponseFunctionCallArgumentsDone struct {
	ItemID    string `json:"item_id"`
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

func (ResponseFunctionCallArgumentsDone) ServerType() string {
	return "response.function_call_arguments.done"
}

type ResponseOutputItemDone struct {
	OutputIndex int  `json:"output_index"`
	Item        Item `json:"item"`
}

func (ResponseOutputItemDone) ServerType() string { return "response.output_item.done" }

type ResponseDone struct {
	Response ResponseInfo `json:"response"`
}

type ResponseInfo struct {
	ID     string `json:"id"`
	Status string `json:"status,omitempty"`
	Output []Item `json:"output,omitempty"`
}

func (ResponseDone) ServerType() string { return "response.done" }

// UnknownEvent preserves messages of types this client does not model so the
// event log still records them.
type UnknownEvent struct {
	Type    string
	Payload json.RawMessage
}

func (e UnknownEvent) ServerType() string { return e.Type }

// MalformedEvent carries a message that could not be parsed. The session
// controller records it without terminating the session.
type MalformedEvent struct {
	Raw []byte
	Err error
}

func (MalformedEvent) ServerType() string { return "malformed" }

// envelope is used for initial parsing to determine the event type before
// unmarshaling into the specific event struct.
type envelope struct {
	Type string `json:"type"`
}

func parseInto[T ServerEvent](data []byte) (ServerEvent, error) {
	var event T
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return event, nil
}

// Parse decodes one inbound protocol message into its typed variant. Types
// without a modeled struct come back as UnknownEvent; a payload that fails to
// decode returns an error alongside a nil event.
func Parse(data []byte) (ServerEvent, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("parsing event envelope: %w", err)
	}

	var (
		event ServerEvent
		err   error
	)
	switch env.Type {
	case "error":
		event, err = parseInto[ErrorEvent](data)
	case "session.created":
		event, err = parseInto[SessionCreated](data)
	case "session.updated":
		event, err = parseInto[SessionUpdated](data)
	case "conversation.item.created":
		event, err = parseInto[ItemCreated](data)
	case "conversation.item.deleted":
		event, err = parseInto[ItemDeleted](data)
	case "conversation.item.input_audio_transcription.completed":
		event, err = parseInto[InputTranscriptionCompleted](data)
	case "input_audio_buffer.speech_started":
		event, err = parseInto[SpeechStarted](data)
	case "input_audio_buffer.speech_stopped":
		event, err = parseInto[SpeechStopped](data)
	case "input_audio_buffer.committed":
		event, err = parseInto[InputAudioCommitted](data)
	case "response.created":
		event, err = parseInto[ResponseCreated](data)
	case "response.output_item.added":
		event, err = parseInto[ResponseOutputItemAdded](data)
	case "response.audio.delta":
		event, err = parseInto[ResponseAudioDelta](data)
	case "response.audio_transcript.delta":
		event, err = parseInto[ResponseAudioTranscriptDelta](data)
	case "response.text.delta":
		event, err = parseInto[ResponseTextDelta](data)
	case "response.function_call_arguments.delta":
		event, err = parseInto[ResponseFunctionCallArgumentsDelta](data)
	case "response.function_call_arguments.done":
		event, err = parseInto[ResponseFunctionCallArgumentsDone](data)
	case "response.output_item.done":
		event, err = parseInto[ResponseOutputItemDone](data)
	case "response.done":
		event, err = parseInto[ResponseDone](data)
	default:
		payload := make(json.RawMessage, len(data))
		copy(payload, data)
		event = UnknownEvent{Type: env.Type, Payload: payload}
	}
	if err != nil {
		return nil, fmt.Errorf("parsing %q event: %w", env.Type, err)
	}

	return event, nil
}
