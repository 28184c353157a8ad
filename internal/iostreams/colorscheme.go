package iostreams

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	boldStyle    = lipgloss.NewStyle().Bold(true)
)

// ColorScheme provides terminal color formatting. When colors are
// disabled, methods return the input string unmodified.
type ColorScheme struct {
	enabled bool
}

// NewColorScheme creates a new ColorScheme.
func NewColorScheme(enabled bool) *ColorScheme {
	return &ColorScheme{enabled: enabled}
}

// Enabled returns whether colors are enabled.
func (cs *ColorScheme) Enabled() bool {
	return cs.enabled
}

func (cs *ColorScheme) render(style lipgloss.Style, s string) string {
	if !cs.enabled {
		return s
	}
	return style.Render(s)
}

// Red returns the string in the error color.
func (cs *ColorScheme) Red(s string) string {
	return cs.render(errorStyle, s)
}

// Redf returns a formatted string in the error color.
func (cs *ColorScheme) Redf(format string, a ...any) string {
	return cs.Red(fmt.Sprintf(format, a...))
}

// Yellow returns the string in the warning color.
func (cs *ColorScheme) Yellow(s string) string {
	return cs.render(warningStyle, s)
}

// Green returns the string in the success color.
func (cs *ColorScheme) Green(s string) string {
	return cs.render(successStyle, s)
}

// Cyan returns the string in the accent color.
func (cs *ColorScheme) Cyan(s string) string {
	return cs.render(accentStyle, s)
}

// Gray returns the string in a muted color.
func (cs *ColorScheme) Gray(s string) string {
	return cs.render(mutedStyle, s)
}

// Bold returns the string in bold.
func (cs *ColorScheme) Bold(s string) string {
	return cs.render(boldStyle, s)
}

// SuccessIcon returns a green check mark.
func (cs *ColorScheme) SuccessIcon() string {
	return cs.Green("✓")
}

// FailureIcon returns a red cross.
func (cs *ColorScheme) FailureIcon() string {
	return cs.Red("✗")
}

// WarningIcon returns a yellow exclamation mark.
func (cs *ColorScheme) WarningIcon() string {
	return cs.Yellow("!")
}
