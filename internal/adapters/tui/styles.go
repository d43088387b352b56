package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	errorColor     = lipgloss.Color("#EF4444") // Red
	warningColor   = lipgloss.Color("#F97316") // Orange
	infoColor      = lipgloss.Color("#3B82F6") // Blue
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	fgColor        = lipgloss.Color("#F9FAFB") // Light gray
)

// Styles
var (
	// Tab styles
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(fgColor).
			Background(primaryColor).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(mutedColor).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(mutedColor)

	// Content styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	// Box styles
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(1, 2)

	// Status styles
	statusOKStyle = lipgloss.NewStyle().
			Foreground(secondaryColor).
			Bold(true)

	statusErrorStyle = lipgloss.NewStyle().
				Foreground(errorColor).
				Bold(true)

	statusWarningStyle = lipgloss.NewStyle().
				Foreground(warningColor).
				Bold(true)

	statusInfoStyle = lipgloss.NewStyle().
			Foreground(infoColor)

	// Progress bar styles
	progressFilledStyle = lipgloss.NewStyle().Foreground(secondaryColor)
	progressEmptyStyle  = lipgloss.NewStyle().Foreground(mutedColor)
)

// renderStatus colors a lifecycle status.
func renderStatus(status string) string {
	switch status {
	case "ONGOING", "ACTIVE", "COMPLETED", "RESOLVED", "AVAILABLE":
		return statusOKStyle.Render("● " + status)
	case "FAILED", "PAUSED_EMERGENCY", "EMERGENCY", "OFFLINE":
		return statusErrorStyle.Render("● " + status)
	case "PAUSED", "ON_HOLD", "MAINTENANCE", "ACKNOWLEDGED":
		return statusWarningStyle.Render("● " + status)
	case "PENDING", "PLANNING", "IN_USE", "RAISED":
		return statusInfoStyle.Render("○ " + status)
	default:
		return statusInfoStyle.Render("● " + status)
	}
}

// renderProgressBar renders a fixed-width textual progress bar.
func renderProgressBar(percent float64, width int) string {
	if width < 4 {
		width = 4
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += progressFilledStyle.Render("█")
		} else {
			bar += progressEmptyStyle.Render("░")
		}
	}
	return bar
}
