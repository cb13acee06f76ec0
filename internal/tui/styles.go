package tui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

const (
	// DefaultPadding is the horizontal padding around the view.
	DefaultPadding = 2
	// ProgressBarWidth is the bar width before the first window size message.
	ProgressBarWidth = 40
	// MaxProgressBarWidth caps the bar on wide terminals.
	MaxProgressBarWidth = 80
	// LogLines is how many activity lines are shown.
	LogLines = 6

	eventBuffer = 256
)

const (
	accentColorCode  = "62"  // Blue
	dimColorCode     = "240" // Dark gray
	errorColorCode   = "196" // Red
	primaryColorCode = "205" // Pink/purple
	successColorCode = "42"  // Green
	warningColorCode = "214" // Orange
)

//nolint:gochecknoglobals // read once from the environment
var colorsDisabled = os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb"

func color(code string) lipgloss.TerminalColor {
	if colorsDisabled {
		return lipgloss.NoColor{}
	}

	return lipgloss.Color(code)
}

// TitleStyle returns the style for the operation title.
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Bold(true).
		Foreground(color(primaryColorCode)).
		MarginBottom(1)
}

// LabelStyle returns the style for part labels.
func LabelStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(color(accentColorCode)).
		Bold(true)
}

// DimStyle returns the style for secondary text.
func DimStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color(dimColorCode))
}

// SuccessStyle returns the style for success messages.
func SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(color(successColorCode)).
		Bold(true)
}

// WarningStyle returns the style for non-fatal problems.
func WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(color(warningColorCode))
}

// ErrorStyle returns the style for error messages.
func ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(color(errorColorCode)).
		Bold(true)
}
