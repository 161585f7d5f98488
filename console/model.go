// Package console is a terminal interface for driving a voice session: it
// shows the conversation, the protocol event log, session memory, and live
// audio levels, with push-to-talk and turn-detection controls.
package console

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/adriansikora/voxa-core/core"
)

const (
	minWidth      = 60
	eventLogWidth = 44
	meterWidth    = 20
)

// Model is the bubbletea application state. All session mutations go through
// commands; the controller's callbacks come back as messages via [Observer].
type Model struct {
	controller *session.Controller

	width  int
	height int

	state   session.State
	items   []session.Item
	events  []session.LoggedEvent
	memory  map[string]string
	marker  session.Marker
	lastErr error

	inputLevel  float64
	outputLevel float64

	talking bool

	conversation viewport.Model
	eventLog     viewport.Model
	ready        bool
}

func NewModel(controller *session.Controller) Model {
	return Model{
		controller: controller,
		state:      session.StateDisconnected,
	}
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshPanes()
		m.ready = true
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case stateMsg:
		m.state = msg.State
		if msg.State == session.StateDisconnected {
			m.talking = false
		}
		return m, nil

	case itemsMsg:
		m.items = msg.Items
		m.refreshPanes()
		return m, nil

	case eventsMsg:
		m.events = msg.Events
		m.refreshPanes()
		return m, nil

	case memoryMsg:
		m.memory = msg.Memory
		return m, nil

	case markerMsg:
		m.marker = msg.Marker
		return m, nil

	case frequenciesMsg:
		m.inputLevel = msg.Input.Peak()
		m.outputLevel = msg.Output.Peak()
		return m, nil

	case errMsg:
		m.lastErr = msg.Err
		return m, nil
	}

	var cmd tea.Cmd
	m.conversation, cmd = m.conversation.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		controller := m.controller
		return m, tea.Sequence(
			func() tea.Msg { controller.Disconnect(); return nil },
			tea.Quit,
		)

	case "c":
		controller := m.controller
		return m, func() tea.Msg {
			if controller.State() == session.StateDisconnected {
				if err := controller.Connect(context.Background()); err != nil {
					return errMsg{Err: err}
				}
				return nil
			}
			controller.Disconnect()
			return nil
		}

	case " ":
		controller := m.controller
		if m.talking {
			m.talking = false
			return m, func() tea.Msg {
				if err := controller.StopPushToTalk(context.Background()); err != nil {
					return errMsg{Err: err}
				}
				return nil
			}
		}
		m.talking = true
		return m, func() tea.Msg {
			if err := controller.StartPushToTalk(context.Background()); err != nil {
				return errMsg{Err: err}
			}
			return nil
		}

	case "v":
		controller := m.controller
		return m, func() tea.Msg {
			mode := session.TurnDetectionServerVAD
			if controller.TurnDetection() == session.TurnDetectionServerVAD {
				mode = session.TurnDetectionManual
			}
			if err := controller.SetTurnDetection(context.Background(), mode); err != nil {
				return errMsg{Err: err}
			}
			return nil
		}

	case "d":
		controller := m.controller
		items := m.items
		if len(items) == 0 {
			return m, nil
		}
		last := items[len(items)-1].ID
		return m, func() tea.Msg {
			if err := controller.DeleteItem(context.Background(), last); err != nil {
				return errMsg{Err: err}
			}
			return nil
		}
	}

	var cmd tea.Cmd
	m.conversation, cmd = m.conversation.Update(msg)
	return m, cmd
}

func (m *Model) layout() {
	conversationWidth := m.width - eventLogWidth - 6
	if conversationWidth < minWidth-eventLogWidth {
		conversationWidth = minWidth - eventLogWidth
	}
	paneHeight := m.height - 8
	if paneHeight < 6 {
		paneHeight = 6
	}

	m.conversation = viewport.New(conversationWidth, paneHeight)
	m.eventLog = viewport.New(eventLogWidth, paneHeight)
}

func (m *Model) refreshPanes() {
	if m.conversation.Width == 0 {
		return
	}

	m.conversation.SetContent(m.renderItems(m.conversation.Width))
	m.conversation.GotoBottom()
	m.eventLog.SetContent(m.renderEvents())
	m.eventLog.GotoBottom()
}

func (m *Model) renderItems(width int) string {
	if len(m.items) == 0 {
		return helpStyle.Render("Press c to connect.")
	}

	var b strings.Builder
	for _, item := range m.items {
		b.WriteString(renderItem(item, width))
		b.WriteString("\n")
	}
	return b.String()
}

func renderItem(item session.Item, width int) string {
	switch item.Type {
	case session.ItemTypeFunctionCall:
		name := ""
		args := ""
		if item.Formatted.Tool != nil {
			name = item.Formatted.Tool.Name
			args = item.Formatted.Tool.Arguments
		}
		return toolStyle.Render(fmt.Sprintf("⚙ %s(%s)", name, args))

	case session.ItemTypeFunctionCallOutput:
		return toolStyle.Render(fmt.Sprintf("⚙ → %s", item.Formatted.Output))
	}

	label := userStyle.Render("you")
	if item.Role == session.RoleAssistant {
		label = assistantStyle.Render("assistant")
	}

	text := item.Formatted.Transcript
	if text == "" {
		text = item.Formatted.Text
	}
	if text == "" && item.Status == session.ItemStatusInProgress {
		text = "…"
	}
	return label + "\n" + wordwrap.String(text, width)
}

func (m *Model) renderEvents() string {
	start := m.controller.StartTime()

	var b strings.Builder
	for _, record := range m.events {
		style := serverEventStyle
		prefix := "↓"
		switch record.Source {
		case session.SourceClient:
			style = clientEventStyle
			prefix = "↑"
		case session.SourceError:
			style = errorEventStyle
			prefix = "!"
		}

		line := fmt.Sprintf("%6.1fs %s %s", record.Time.Sub(start).Seconds(), prefix, record.Type)
		if record.Count > 0 {
			line += fmt.Sprintf(" (x%d)", record.Count+1)
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) View() string {
	if !m.ready {
		return "starting…"
	}

	header := titleStyle.Render("voxa console") + "  " + m.renderStatus()

	conversation := paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		paneTitleStyle.Render("conversation"), m.conversation.View()))
	events := paneStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		paneTitleStyle.Render("events"), m.eventLog.View()))
	body := lipgloss.JoinHorizontal(lipgloss.Top, conversation, events)

	footer := lipgloss.JoinVertical(lipgloss.Left,
		m.renderMeters(),
		m.renderMemory(),
		helpStyle.Render("c connect · space talk · v vad · d delete last · q quit"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderStatus() string {
	status := statusDisconnectedStyle.Render(string(m.state))
	if m.state == session.StateConnected {
		mode := m.controller.TurnDetection()
		status = statusConnectedStyle.Render(fmt.Sprintf("%s · %s", m.state, mode))
		if m.talking {
			status += " " + statusConnectedStyle.Render("● rec")
		}
	}
	if m.lastErr != nil {
		status += "  " + statusErrorStyle.Render(m.lastErr.Error())
	}
	return status
}

func (m Model) renderMeters() string {
	return fmt.Sprintf("mic %s  out %s",
		meterStyle.Render(levelBar(m.inputLevel)),
		meterStyle.Render(levelBar(m.outputLevel)))
}

func levelBar(level float64) string {
	if level < 0 {
		level = 0
	}
	if level > 1 {
		level = 1
	}
	filled := int(level * meterWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", meterWidth-filled)
}

func (m Model) renderMemory() string {
	parts := make([]string, 0, len(m.memory)+1)
	if m.marker.Location != "" {
		pin := fmt.Sprintf("📍 %s", m.marker.Location)
		if m.marker.Temperature != nil {
			pin += fmt.Sprintf(" %.1f%s", m.marker.Temperature.Value, m.marker.Temperature.Units)
		}
		parts = append(parts, pin)
	}

	keys := make([]string, 0, len(m.memory))
	for key := range m.memory {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", key, m.memory[key]))
	}

	if len(parts) == 0 {
		return helpStyle.Render("memory: empty")
	}
	return helpStyle.Render("memory: ") + strings.Join(parts, "  ")
}
