package console

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	userStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Bold(true)
	assistantStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Bold(true)
	toolStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))

	clientEventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("45"))
	serverEventStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("120"))
	errorEventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)

	statusConnectedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("120")).Bold(true)
	statusDisconnectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	statusErrorStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))

	meterStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("76"))
)
