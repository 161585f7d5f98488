package session

import (
	"context"

	"github.com/adriansikora/voxa-core/core/audio"
	"github.com/adriansikora/voxa-core/core/realtime"
)

// RealtimeClient is the remote endpoint collaborator. The wire protocol is
// owned by the client; the controller only consumes typed events and issues
// these operations.
type RealtimeClient interface {
	Connect(ctx context.Context) error
	Close() error
	// Events returns the inbound stream of the current connection, closed
	// when the connection ends. Events arrive in strict network order.
	Events() <-chan realtime.ServerEvent

	UpdateSession(ctx context.Context, config realtime.SessionConfig) error
	// AppendInputAudio must not block: it runs on the capture callback
	// cadence and backpressure is the send path's concern.
	AppendInputAudio(pcm []byte) error
	SendUserMessageContent(ctx context.Context, parts []realtime.ContentPart) error
	CreateResponse(ctx context.Context) error
	// CancelResponse truncates the committed response at exactly the given
	// track and sample offset.
	CancelResponse(ctx context.Context, itemID string, sampleOffset int) error
	DeleteItem(ctx context.Context, itemID string) error
	SendToolOutput(ctx context.Context, callID, output string) error
}

// CaptureClient is the microphone collaborator.
type CaptureClient interface {
	// Begin acquires the device. Unavailable devices are reported with an
	// error wrapping audio.ErrDeviceUnavailable.
	Begin(ctx context.Context) error
	// Record starts streaming mono PCM chunks to onChunk. Calling it while
	// already recording is a no-op; no duplicate streams are created.
	Record(onChunk func(pcm []byte)) error
	// Pause stops streaming without releasing the device.
	Pause() error
	// End releases the device.
	End() error

	Recording() bool
	Frequencies(kind audio.FrequencyKind) audio.Frequencies
	EncodingInfo() audio.EncodingInfo
}

// PlaybackClient is the output collaborator. Chunks are enqueued under a
// track id; tracks render one at a time in enqueue order.
type PlaybackClient interface {
	Connect(ctx context.Context) error
	Add16BitPCM(pcm []byte, trackID string)
	// Interrupt halts the currently playing track and reports the exact
	// playhead that was reached, or nil when idle.
	Interrupt() *audio.Playhead
	Frequencies(kind audio.FrequencyKind) audio.Frequencies
	Close() error
}
