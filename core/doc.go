// Package session orchestrates a bidirectional realtime voice conversation:
// it streams captured microphone audio to a remote realtime model endpoint,
// reconciles the inbound event stream into an ordered conversation, renders
// synthesized audio with sample-accurate interruption, and dispatches
// model-invoked tool calls to locally registered handlers.
//
// The Controller is the single owner of session state. Audio capture,
// playback, and the protocol client are collaborators configured through
// options; they only feed data into the controller's intake path and never
// mutate conversation state themselves.
package session
