package session

import (
	"time"

	"github.com/adriansikora/voxa-core/core/audio"
)

type ControllerOption func(*Controller)

// WithRealtimeClient sets the transport used to reach the model endpoint.
func WithRealtimeClient(client RealtimeClient) ControllerOption {
	return func(c *Controller) { c.client = client }
}

// WithCapture sets the microphone backend.
func WithCapture(client CaptureClient) ControllerOption {
	return func(c *Controller) { c.capture = client }
}

// WithPlayback sets the speaker backend.
func WithPlayback(client PlaybackClient) ControllerOption {
	return func(c *Controller) { c.playback = client }
}

// WithTools registers additional tools on top of the built-in set. Duplicate
// names surface as an error from [Controller.Connect].
func WithTools(tools ...Tool) ControllerOption {
	return func(c *Controller) { c.extraTools = append(c.extraTools, tools...) }
}

// WithInstructions overrides the system instructions sent in the session
// configuration.
func WithInstructions(instructions string) ControllerOption {
	return func(c *Controller) { c.instructions = instructions }
}

// WithGreeting sets the user message submitted right after the session is
// configured, prompting the model to open the conversation. An empty greeting
// skips the opening response.
func WithGreeting(greeting string) ControllerOption {
	return func(c *Controller) { c.greeting = greeting }
}

// WithTurnDetection selects the initial turn-detection mode.
func WithTurnDetection(mode TurnDetection) ControllerOption {
	return func(c *Controller) { c.turnDetection = mode }
}

// WithWeatherEndpoint redirects the built-in weather tool, primarily for
// tests.
func WithWeatherEndpoint(endpoint string) ControllerOption {
	return func(c *Controller) { c.weatherEndpoint = endpoint }
}

// WithRenderInterval sets how often the visualization callback fires while
// connected.
func WithRenderInterval(interval time.Duration) ControllerOption {
	return func(c *Controller) { c.renderInterval = interval }
}

type controllerCallbacks struct {
	onStateChanged  func(state State)
	onItemsUpdated  func(items []Item)
	onEventLogged   func(events []LoggedEvent)
	onMemoryUpdated func(memory map[string]string)
	onMarkerUpdated func(marker Marker)
	onFrequencies   func(input, output audio.Frequencies)
	onError         func(err error)
}

// WithStateChangedCallback registers a callback for connection state
// transitions.
func WithStateChangedCallback(callback func(state State)) ControllerOption {
	return func(c *Controller) { c.callbacks.onStateChanged = callback }
}

// WithItemsUpdatedCallback registers a callback invoked with a fresh copy of
// the conversation whenever it changes.
func WithItemsUpdatedCallback(callback func(items []Item)) ControllerOption {
	return func(c *Controller) { c.callbacks.onItemsUpdated = callback }
}

// WithEventLoggedCallback registers a callback invoked with the coalesced
// event log after every appended record.
func WithEventLoggedCallback(callback func(events []LoggedEvent)) ControllerOption {
	return func(c *Controller) { c.callbacks.onEventLogged = callback }
}

// WithMemoryUpdatedCallback registers a callback for session memory writes.
func WithMemoryUpdatedCallback(callback func(memory map[string]string)) ControllerOption {
	return func(c *Controller) { c.callbacks.onMemoryUpdated = callback }
}

// WithMarkerUpdatedCallback registers a callback for location marker updates
// produced by the weather tool.
func WithMarkerUpdatedCallback(callback func(marker Marker)) ControllerOption {
	return func(c *Controller) { c.callbacks.onMarkerUpdated = callback }
}

// WithFrequenciesCallback registers a callback that periodically receives the
// capture and playback spectra while connected. It drives visualizations and
// runs on the render cadence, not per audio chunk.
func WithFrequenciesCallback(callback func(input, output audio.Frequencies)) ControllerOption {
	return func(c *Controller) { c.callbacks.onFrequencies = callback }
}

// WithErrorCallback registers a callback for asynchronous failures that have
// no caller to return to, such as protocol errors on the event stream.
func WithErrorCallback(callback func(err error)) ControllerOption {
	return func(c *Controller) { c.callbacks.onError = callback }
}
