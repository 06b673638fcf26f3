package notify

import "github.com/charmbracelet/lipgloss"

// Color palette shared by every terminal notification.
var (
	salmonPink = lipgloss.Color("#FFB3BA") // errors
	mintGreen  = lipgloss.Color("#A8E6CF") // success
	skyBlue    = lipgloss.Color("#A0C4FF") // progress
	mutedGray  = lipgloss.Color("#6B7280") // timestamps
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	infoStyle = lipgloss.NewStyle().
			Foreground(skyBlue)

	successStyle = lipgloss.NewStyle().
			Foreground(mintGreen).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)
)

func styleFor(severity string) lipgloss.Style {
	switch severity {
	case "success":
		return successStyle
	case "error":
		return errorStyle
	default:
		return infoStyle
	}
}
