package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adriansikora/voxa-core/core/realtime"
)

// consumeEvents drains the connection's inbound stream. It exits when the
// stream closes or the connection context is cancelled; a new connection gets
// a fresh goroutine and generation.
func (c *Controller) consumeEvents(ctx context.Context, gen uint64, events <-chan realtime.ServerEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			c.handleServerEvent(ctx, gen, event)
		}
	}
}

// reconcile applies a state mutation only while gen is still the current
// connection. Disconnect bumps the generation under the same lock, so an
// event received before the teardown can never repopulate cleared state.
func (c *Controller) reconcile(gen uint64, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	apply()
	return true
}

func (c *Controller) handleServerEvent(ctx context.Context, gen uint64, event realtime.ServerEvent) {
	switch e := event.(type) {
	case realtime.MalformedEvent:
		if !c.reconcile(gen, func() { c.log.Append(SourceError, e.ServerType(), string(e.Raw)) }) {
			return
		}
		c.reportError(&ProtocolError{EventType: e.ServerType(), Err: e.Err})
		c.notifyLog()
		return
	case realtime.ErrorEvent:
		if !c.reconcile(gen, func() { c.log.Append(SourceError, e.ServerType(), e) }) {
			return
		}
		c.reportError(&ProtocolError{EventType: e.ServerType(),
			Err: fmt.Errorf("%s: %s", e.Error.Code, e.Error.Message)})
		c.notifyLog()
		return
	}

	if !c.reconcile(gen, func() { c.log.Append(SourceServer, event.ServerType(), event) }) {
		return
	}
	c.notifyLog()

	switch e := event.(type) {
	case realtime.ItemCreated:
		if c.reconcile(gen, func() { c.conversation.Upsert(e.Item) }) {
			c.notifyItems()
		}

	case realtime.ItemDeleted:
		deleted := false
		if c.reconcile(gen, func() { deleted = c.conversation.Delete(e.ItemID) }) && deleted {
			c.notifyItems()
		}

	case realtime.InputTranscriptionCompleted:
		updated := false
		if c.reconcile(gen, func() { updated = c.conversation.SetTranscript(e.ItemID, e.Transcript) }) && updated {
			c.notifyItems()
		}

	case realtime.SpeechStarted:
		if c.reconcile(gen, func() { c.interruptLocked(ctx) }) {
			c.notifyLog()
		}

	case realtime.ResponseOutputItemAdded:
		if c.reconcile(gen, func() { c.conversation.Upsert(e.Item) }) {
			c.notifyItems()
		}

	case realtime.ResponseAudioDelta:
		pcm, err := e.DecodePCM()
		if err != nil {
			c.reportError(&ProtocolError{EventType: e.ServerType(), Err: err})
			return
		}
		c.reconcile(gen, func() {
			c.conversation.AppendAudio(e.ItemID, pcm)
			c.playback.Add16BitPCM(pcm, e.ItemID)
		})

	case realtime.ResponseAudioTranscriptDelta:
		updated := false
		if c.reconcile(gen, func() { updated = c.conversation.AppendTranscript(e.ItemID, e.Delta) }) && updated {
			c.notifyItems()
		}

	case realtime.ResponseTextDelta:
		updated := false
		if c.reconcile(gen, func() { updated = c.conversation.AppendText(e.ItemID, e.Delta) }) && updated {
			c.notifyItems()
		}

	case realtime.ResponseFunctionCallArgumentsDelta:
		c.reconcile(gen, func() { c.conversation.AppendArguments(e.ItemID, e.Delta) })

	case realtime.ResponseOutputItemDone:
		var item Item
		if !c.reconcile(gen, func() { item = c.conversation.Complete(e.Item) }) {
			return
		}
		c.notifyItems()
		if item.Type == ItemTypeFunctionCall && item.Formatted.Tool != nil {
			go c.dispatchTool(ctx, gen, item)
		}

	case realtime.ResponseDone:
		if c.reconcile(gen, func() {
			for _, wire := range e.Response.Output {
				c.conversation.Complete(wire)
			}
		}) {
			c.notifyItems()
		}
	}
}

// dispatchTool runs a completed function call and reports its output back to
// the endpoint. Failures become structured outputs, so the model always gets
// a response to react to.
func (c *Controller) dispatchTool(ctx context.Context, gen uint64, item Item) {
	ctx, span := tracer.Start(ctx, "dispatch tool call")
	defer span.End()

	c.mu.Lock()
	registry := c.registry
	current := c.state == StateConnected && gen == c.generation
	c.mu.Unlock()
	if registry == nil || !current {
		return
	}

	output := registry.Dispatch(ctx, item.Formatted.Tool.Name, item.Formatted.Tool.Arguments)

	if err := c.client.SendToolOutput(ctx, item.CallID, output); err != nil {
		logger.WarnContext(ctx, "sending tool output failed",
			slog.String("tool", item.Formatted.Tool.Name), slog.Any("err", err))
		c.reportError(fmt.Errorf("sending tool output: %w", err))
		return
	}
	c.reconcile(gen, func() { c.log.Append(SourceClient, "conversation.item.create", nil) })

	if err := c.client.CreateResponse(ctx); err != nil {
		c.reportError(fmt.Errorf("requesting post-tool response: %w", err))
		return
	}
	if c.reconcile(gen, func() { c.log.Append(SourceClient, "response.create", nil) }) {
		c.notifyLog()
	}
}
