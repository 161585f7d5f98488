package realtime

// SessionConfig is the mutable remote session configuration sent with
// session.update.
type SessionConfig struct {
	Modalities              []string                  `json:"modalities,omitempty"`
	Instructions            string                    `json:"instructions,omitempty"`
	Voice                   string                    `json:"voice,omitempty"`
	InputAudioFormat        string                    `json:"input_audio_format,omitempty"`
	OutputAudioFormat       string                    `json:"output_audio_format,omitempty"`
	InputAudioTranscription *AudioTranscriptionConfig `json:"input_audio_transcription,omitempty"`
	// TurnDetection is serialized even when nil: an explicit null is what
	// disables server-side voice activity detection.
	TurnDetection *TurnDetectionConfig `json:"turn_detection"`
	Tools         []ToolDefinition     `json:"tools,omitempty"`
	ToolChoice    string               `json:"tool_choice,omitempty"`
	Temperature   float64              `json:"temperature,omitempty"`
}

type AudioTranscriptionConfig struct {
	Model string `json:"model"`
}

type TurnDetectionConfig struct {
	Type              string  `json:"type"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
}

// ToolDefinition is the schema shape the endpoint expects for a registered
// tool.
type ToolDefinition struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

const (
	AudioFormatPCM16 = "pcm16"

	TurnDetectionServerVAD = "server_vad"
)
