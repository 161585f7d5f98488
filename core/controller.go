package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adriansikora/voxa-core/core/audio"
	"github.com/adriansikora/voxa-core/core/realtime"
)

// State is the connection state of a session.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// TurnDetection selects who decides when the user's turn ends: the endpoint's
// voice activity detection, or the user via push-to-talk.
type TurnDetection string

const (
	TurnDetectionManual    TurnDetection = "manual"
	TurnDetectionServerVAD TurnDetection = "server_vad"
)

const defaultInstructions = "You are a helpful, witty assistant. Act like a human and keep your answers short. Your voice and personality should be warm and engaging."

// Controller drives one voice session: it owns the connection lifecycle, the
// conversation state, the event log, session memory, and the audio devices.
// All exported methods are safe for concurrent use.
type Controller struct {
	mu            sync.Mutex
	state         State
	turnDetection TurnDetection

	client   RealtimeClient
	capture  CaptureClient
	playback PlaybackClient

	registry   *toolRegistry
	extraTools []Tool

	instructions    string
	greeting        string
	weatherEndpoint string
	renderInterval  time.Duration

	conversation *conversation
	log          *eventLog
	memory       *memoryStore
	marker       Marker
	startTime    time.Time

	render    *renderLoop
	callbacks controllerCallbacks

	// consumeCtx cancels the event-consuming goroutine of the current
	// connection; a fresh one is created per Connect.
	consumeCancel context.CancelFunc
	// generation identifies the current connection. Inbound events carry the
	// generation they belong to; events from a torn-down connection are
	// dropped instead of repopulating cleared state.
	generation uint64
}

// NewController assembles a session controller from its collaborators. The
// controller starts Disconnected; nothing touches the network or the audio
// devices until [Controller.Connect].
func NewController(opts ...ControllerOption) *Controller {
	c := &Controller{
		state:         StateDisconnected,
		turnDetection: TurnDetectionManual,
		instructions:  defaultInstructions,
		greeting:      "Hello!",
		conversation:  newConversation(nil),
		log:           newEventLog(),
		memory:        newMemoryStore(),
		marker:        defaultMarker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.render = newRenderLoop(c.renderInterval, c.renderFrame)
	return c
}

// Connect acquires the audio devices, opens the endpoint connection,
// configures the session, and submits the greeting. On any failure every
// partially acquired collaborator is released, the state returns to
// Disconnected, and the failure is reported as a [ConnectionError].
func (c *Controller) Connect(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "session connect")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDisconnected {
		return &ConnectionError{Stage: "precondition", Err: ErrAlreadyConnected}
	}
	if c.client == nil || c.capture == nil || c.playback == nil {
		return &ConnectionError{Stage: "configuration",
			Err: errors.New("realtime, capture, and playback clients are all required")}
	}

	c.setStateLocked(StateConnecting)
	c.startTime = time.Now()
	c.log.Clear()
	c.conversation.Clear()

	fail := func(stage string, err error, unwind ...func()) error {
		for _, release := range unwind {
			release()
		}
		c.setStateLocked(StateDisconnected)
		c.generation++
		c.consumeCancel = nil
		connErr := &ConnectionError{Stage: stage, Err: err}
		span.RecordError(connErr)
		return connErr
	}

	registry, err := c.buildRegistry()
	if err != nil {
		return fail("tools", err)
	}
	c.registry = registry

	if err := c.capture.Begin(ctx); err != nil {
		return fail("capture", err)
	}
	releaseCapture := func() { c.closeQuietly(ctx, "capture", c.capture.End) }

	if err := c.playback.Connect(ctx); err != nil {
		return fail("playback", err, releaseCapture)
	}
	releasePlayback := func() { c.closeQuietly(ctx, "playback", c.playback.Close) }

	if err := c.client.Connect(ctx); err != nil {
		return fail("endpoint", err, releasePlayback, releaseCapture)
	}
	releaseClient := func() { c.closeQuietly(ctx, "endpoint", c.client.Close) }
	unwindAll := []func(){releaseClient, releasePlayback, releaseCapture}

	consumeCtx, cancel := context.WithCancel(context.Background())
	c.consumeCancel = cancel
	c.generation++
	go c.consumeEvents(consumeCtx, c.generation, c.client.Events())

	if err := c.client.UpdateSession(ctx, c.sessionConfigLocked()); err != nil {
		cancel()
		return fail("configure", err, unwindAll...)
	}
	c.log.Append(SourceClient, "session.update", nil)

	if c.greeting != "" {
		err := c.client.SendUserMessageContent(ctx, []realtime.ContentPart{
			{Type: "input_text", Text: c.greeting},
		})
		if err == nil {
			err = c.client.CreateResponse(ctx)
		}
		if err != nil {
			cancel()
			return fail("greeting", err, unwindAll...)
		}
		c.log.Append(SourceClient, "conversation.item.create", nil)
		c.log.Append(SourceClient, "response.create", nil)
	}

	if c.turnDetection == TurnDetectionServerVAD {
		if err := c.capture.Record(c.handleChunk); err != nil {
			cancel()
			return fail("recording", err, unwindAll...)
		}
	}

	c.setStateLocked(StateConnected)
	c.render.Start()
	c.notifyLog()
	return nil
}

// Disconnect tears the session down. It never returns an error: device and
// connection close failures are logged and swallowed so the caller can always
// treat the session as gone. The conversation, event log, memory, and marker
// reset immediately; a subsequent Connect starts from a blank session.
func (c *Controller) Disconnect() {
	_, span := tracer.Start(context.Background(), "session disconnect")
	defer span.End()

	c.mu.Lock()

	if c.state == StateDisconnected {
		c.mu.Unlock()
		return
	}
	c.setStateLocked(StateDisconnected)
	// Invalidate in-flight events of this connection before clearing: the
	// consumer may still hold a buffered event, and applying it after the
	// clear would leave ghost state behind.
	c.generation++

	if c.consumeCancel != nil {
		c.consumeCancel()
		c.consumeCancel = nil
	}
	c.render.Stop()

	c.conversation.Clear()
	c.log.Clear()
	c.memory.Reset()
	c.marker = defaultMarker()

	client, capture, playback := c.client, c.capture, c.playback
	c.mu.Unlock()

	c.notifyItems()
	c.notifyLog()
	if c.callbacks.onMemoryUpdated != nil {
		c.callbacks.onMemoryUpdated(map[string]string{})
	}
	if c.callbacks.onMarkerUpdated != nil {
		c.callbacks.onMarkerUpdated(defaultMarker())
	}

	ctx := context.Background()
	c.closeQuietly(ctx, "endpoint", client.Close)
	c.closeQuietly(ctx, "capture", capture.End)
	c.closeQuietly(ctx, "playback", playback.Close)
}

// SetTurnDetection switches between manual and server-side voice activity
// detection. On a connected session the endpoint is reconfigured and the
// microphone follows: server VAD streams continuously, manual mode stops
// streaming until push-to-talk.
func (c *Controller) SetTurnDetection(ctx context.Context, mode TurnDetection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode != TurnDetectionManual && mode != TurnDetectionServerVAD {
		return fmt.Errorf("unknown turn detection mode %q", mode)
	}
	if c.turnDetection == mode {
		return nil
	}
	c.turnDetection = mode

	if c.state != StateConnected {
		return nil
	}

	// Switching to manual pauses the microphone before the endpoint is
	// reconfigured, so no chunk captured during the switch window lands in
	// the input buffer ahead of the next manual turn.
	if mode == TurnDetectionManual {
		if err := c.capture.Pause(); err != nil {
			return fmt.Errorf("pausing capture: %w", err)
		}
	}

	if err := c.client.UpdateSession(ctx, c.sessionConfigLocked()); err != nil {
		return fmt.Errorf("reconfiguring turn detection: %w", err)
	}
	c.log.Append(SourceClient, "session.update", nil)
	defer c.notifyLog()

	if mode == TurnDetectionServerVAD {
		if err := c.capture.Record(c.handleChunk); err != nil {
			return fmt.Errorf("resuming capture: %w", err)
		}
	}
	return nil
}

// StartPushToTalk interrupts any in-progress playback and begins streaming
// microphone audio. Only valid on a connected session in manual mode.
func (c *Controller) StartPushToTalk(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.turnDetection != TurnDetectionManual {
		return ErrPushToTalkUnavailable
	}

	c.interruptLocked(ctx)
	if err := c.capture.Record(c.handleChunk); err != nil {
		return fmt.Errorf("starting capture: %w", err)
	}
	return nil
}

// StopPushToTalk stops streaming and asks the model to respond to the
// captured turn.
func (c *Controller) StopPushToTalk(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.turnDetection != TurnDetectionManual {
		return ErrPushToTalkUnavailable
	}

	if err := c.capture.Pause(); err != nil {
		return fmt.Errorf("pausing capture: %w", err)
	}
	if err := c.client.CreateResponse(ctx); err != nil {
		return fmt.Errorf("requesting response: %w", err)
	}
	c.log.Append(SourceClient, "response.create", nil)
	c.notifyLog()
	return nil
}

// DeleteItem asks the endpoint to remove an item. The local conversation
// updates when the deletion event comes back, keeping the endpoint
// authoritative over the sequence.
func (c *Controller) DeleteItem(ctx context.Context, itemID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected {
		return ErrNotConnected
	}
	if err := c.client.DeleteItem(ctx, itemID); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	c.log.Append(SourceClient, "conversation.item.delete", itemID)
	c.notifyLog()
	return nil
}

// State reports the current connection state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// TurnDetection reports the current turn detection mode.
func (c *Controller) TurnDetection() TurnDetection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.turnDetection
}

// Recording reports whether microphone audio is currently streaming.
func (c *Controller) Recording() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.capture == nil {
		return false
	}
	return c.capture.Recording()
}

// Items returns a copy of the conversation in order.
func (c *Controller) Items() []Item {
	return c.conversation.Items()
}

// Events returns a copy of the coalesced protocol event log.
func (c *Controller) Events() []LoggedEvent {
	return c.log.Snapshot()
}

// Memory returns a copy of the session memory.
func (c *Controller) Memory() map[string]string {
	return c.memory.Snapshot()
}

// Marker returns the current location marker.
func (c *Controller) Marker() Marker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.marker
}

// StartTime is the zero point for relative event timestamps, set when the
// current connection attempt began.
func (c *Controller) StartTime() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startTime
}

func (c *Controller) setStateLocked(state State) {
	c.state = state
	if c.callbacks.onStateChanged != nil {
		c.callbacks.onStateChanged(state)
	}
}

func (c *Controller) sessionConfigLocked() realtime.SessionConfig {
	config := realtime.SessionConfig{
		Modalities:        []string{"text", "audio"},
		Instructions:      c.instructions,
		InputAudioFormat:  realtime.AudioFormatPCM16,
		OutputAudioFormat: realtime.AudioFormatPCM16,
		InputAudioTranscription: &realtime.AudioTranscriptionConfig{
			Model: "whisper-1",
		},
		Tools: c.registry.Definitions(),
	}
	if c.turnDetection == TurnDetectionServerVAD {
		config.TurnDetection = &realtime.TurnDetectionConfig{
			Type: realtime.TurnDetectionServerVAD,
		}
	}
	return config
}

func (c *Controller) buildRegistry() (*toolRegistry, error) {
	registry := newToolRegistry()

	builtins := []Tool{
		setMemoryTool(c.memory, c.callbacks.onMemoryUpdated),
		getWeatherTool(c.weatherEndpoint, c.applyMarkerPatch),
	}
	for _, tool := range append(builtins, c.extraTools...) {
		if err := registry.Register(tool); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

func (c *Controller) applyMarkerPatch(patch MarkerPatch) Marker {
	c.mu.Lock()
	c.marker = mergeMarker(c.marker, patch)
	marker := c.marker
	c.mu.Unlock()

	if c.callbacks.onMarkerUpdated != nil {
		c.callbacks.onMarkerUpdated(marker)
	}
	return marker
}

// interruptLocked halts playback and truncates the interrupted response at
// the exact sample the user heard last.
func (c *Controller) interruptLocked(ctx context.Context) {
	playhead := c.playback.Interrupt()
	if playhead == nil || playhead.TrackID == "" {
		return
	}

	if err := c.client.CancelResponse(ctx, playhead.TrackID, playhead.SampleOffset); err != nil {
		logger.WarnContext(ctx, "cancelling interrupted response failed",
			slog.String("item_id", playhead.TrackID), slog.Any("err", err))
		c.reportError(fmt.Errorf("cancelling interrupted response: %w", err))
		return
	}
	c.log.Append(SourceClient, "response.cancel", nil)
	c.log.Append(SourceClient, "conversation.item.truncate", playhead.TrackID)
}

// handleChunk runs on the capture callback cadence. It takes no controller
// lock: the capture backend may call it while another goroutine holds it.
func (c *Controller) handleChunk(pcm []byte) {
	if err := c.client.AppendInputAudio(pcm); err != nil {
		c.reportError(fmt.Errorf("appending input audio: %w", err))
		return
	}
	c.log.Append(SourceClient, "input_audio_buffer.append", nil)
	c.notifyLog()
}

func (c *Controller) renderFrame() {
	if c.callbacks.onFrequencies == nil {
		return
	}
	input := c.capture.Frequencies(audio.FrequencyKindVoice)
	output := c.playback.Frequencies(audio.FrequencyKindVoice)
	c.callbacks.onFrequencies(input, output)
}

func (c *Controller) notifyItems() {
	if c.callbacks.onItemsUpdated != nil {
		c.callbacks.onItemsUpdated(c.conversation.Items())
	}
}

func (c *Controller) notifyLog() {
	if c.callbacks.onEventLogged != nil {
		c.callbacks.onEventLogged(c.log.Snapshot())
	}
}

func (c *Controller) reportError(err error) {
	if c.callbacks.onError != nil {
		c.callbacks.onError(err)
	}
}

func (c *Controller) closeQuietly(ctx context.Context, name string, close func() error) {
	if err := close(); err != nil {
		logger.WarnContext(ctx, "releasing collaborator failed",
			slog.String("collaborator", name), slog.Any("err", err))
	}
}
