package lipgloss

import "github.com/charmbracelet/lipgloss"

var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5F87"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	Gray    = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D7D7D"))
	Info    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FAFFF"))

	// BoxStyle frames short summaries printed at the end of a command.
	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5FAFFF")).
			Padding(0, 1)
)
