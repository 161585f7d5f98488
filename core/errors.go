package session

import (
	"errors"
	"fmt"
)

var (
	ErrNotConnected     = errors.New("session not connected")
	ErrAlreadyConnected = errors.New("session already connected")
	// ErrPushToTalkUnavailable guards push-to-talk against being used outside
	// a connected manual-turn-detection session.
	ErrPushToTalkUnavailable = errors.New("push-to-talk requires a connected session with manual turn detection")

	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("unknown tool")
)

// ConnectionError reports a failed connection attempt. The session stays
// Disconnected and every partially acquired collaborator has been released by
// the time the caller sees this error.
type ConnectionError struct {
	Stage string
	Err   error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connecting session (%s): %v", e.Stage, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ProtocolError reports a malformed or unexpected inbound payload. It is
// recorded in the event log under the error source marker and never
// terminates the session.
type ProtocolError struct {
	EventType string
	Err       error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error in %q event: %v", e.EventType, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
