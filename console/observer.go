package console

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adriansikora/voxa-core/core"
	"github.com/adriansikora/voxa-core/core/audio"
)

type stateMsg struct{ State session.State }

type itemsMsg struct{ Items []session.Item }

type eventsMsg struct{ Events []session.LoggedEvent }

type memoryMsg struct{ Memory map[string]string }

type markerMsg struct{ Marker session.Marker }

type frequenciesMsg struct {
	Input  audio.Frequencies
	Output audio.Frequencies
}

type errMsg struct{ Err error }

// Observer bridges session callbacks to bubbletea messages. Callbacks run on
// the controller's goroutines; program.Send is the only thing they do.
type Observer struct {
	program *tea.Program
}

func NewObserver() *Observer { return &Observer{} }

// Attach binds the observer to a running program. Callbacks before Attach are
// dropped.
func (o *Observer) Attach(program *tea.Program) { o.program = program }

// Options returns the controller options that route session updates into the
// interface.
func (o *Observer) Options() []session.ControllerOption {
	return []session.ControllerOption{
		session.WithStateChangedCallback(func(state session.State) {
			o.send(stateMsg{State: state})
		}),
		session.WithItemsUpdatedCallback(func(items []session.Item) {
			o.send(itemsMsg{Items: items})
		}),
		session.WithEventLoggedCallback(func(events []session.LoggedEvent) {
			o.send(eventsMsg{Events: events})
		}),
		session.WithMemoryUpdatedCallback(func(memory map[string]string) {
			o.send(memoryMsg{Memory: memory})
		}),
		session.WithMarkerUpdatedCallback(func(marker session.Marker) {
			o.send(markerMsg{Marker: marker})
		}),
		session.WithFrequenciesCallback(func(input, output audio.Frequencies) {
			o.send(frequenciesMsg{Input: input, Output: output})
		}),
		session.WithErrorCallback(func(err error) {
			o.send(errMsg{Err: err})
		}),
	}
}

func (o *Observer) send(msg tea.Msg) {
	if o.program != nil {
		o.program.Send(msg)
	}
}
