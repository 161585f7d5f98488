package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adriansikora/voxa-core/console"
	"github.com/adriansikora/voxa-core/core"
	"github.com/adriansikora/voxa-core/core/audio/miniaudio"
	"github.com/adriansikora/voxa-core/core/realtime"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "voxa:", err)
		os.Exit(1)
	}
}

func run() error {
	devices, err := miniaudio.NewClient()
	if err != nil {
		return fmt.Errorf("initializing audio: %w", err)
	}
	defer devices.Close()

	encoding := devices.Capture().EncodingInfo()
	if encoding.IsZero() {
		return fmt.Errorf("capture backend reported no usable encoding")
	}

	clientOpts := []realtime.ClientOption{
		realtime.WithSampleRate(encoding.SampleRate),
	}
	if model := os.Getenv("VOXA_MODEL"); model != "" {
		clientOpts = append(clientOpts, realtime.WithModel(model))
	}
	if baseURL := os.Getenv("VOXA_ENDPOINT"); baseURL != "" {
		clientOpts = append(clientOpts, realtime.WithBaseURL(baseURL))
	}

	observer := console.NewObserver()
	controllerOpts := append([]session.ControllerOption{
		session.WithRealtimeClient(realtime.NewClient(clientOpts...)),
		session.WithCapture(devices.Capture()),
		session.WithPlayback(devices.Playback()),
	}, observer.Options()...)
	if instructions := os.Getenv("VOXA_INSTRUCTIONS"); instructions != "" {
		controllerOpts = append(controllerOpts, session.WithInstructions(instructions))
	}

	controller := session.NewController(controllerOpts...)
	defer controller.Disconnect()

	program := tea.NewProgram(console.NewModel(controller), tea.WithAltScreen())
	observer.Attach(program)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running interface: %w", err)
	}
	return nil
}
