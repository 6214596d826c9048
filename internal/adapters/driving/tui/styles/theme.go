// Package styles provides the colour palette and lipgloss styles of the
// chat interface.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette. Each colour adapts to light and dark
// terminal backgrounds.
type Theme struct {
	Accent     lipgloss.AdaptiveColor
	Question   lipgloss.AdaptiveColor
	Answer     lipgloss.AdaptiveColor
	Citation   lipgloss.AdaptiveColor
	Text       lipgloss.AdaptiveColor
	Faint      lipgloss.AdaptiveColor
	Failure    lipgloss.AdaptiveColor
	Frame      lipgloss.AdaptiveColor
	StatusBack lipgloss.AdaptiveColor
}

// DefaultTheme returns the default palette.
func DefaultTheme() *Theme {
	return &Theme{
		Accent:     lipgloss.AdaptiveColor{Light: "#5B21B6", Dark: "#7C3AED"},
		Question:   lipgloss.AdaptiveColor{Light: "#0E7490", Dark: "#06B6D4"},
		Answer:     lipgloss.AdaptiveColor{Light: "#15803D", Dark: "#A6E3A1"},
		Citation:   lipgloss.AdaptiveColor{Light: "#B45309", Dark: "#F9E2AF"},
		Text:       lipgloss.AdaptiveColor{Light: "#1E1E2E", Dark: "#CDD6F4"},
		Faint:      lipgloss.AdaptiveColor{Light: "#8C8FA1", Dark: "#6C7086"},
		Failure:    lipgloss.AdaptiveColor{Light: "#D20F39", Dark: "#F38BA8"},
		Frame:      lipgloss.AdaptiveColor{Light: "#BCC0CC", Dark: "#45475A"},
		StatusBack: lipgloss.AdaptiveColor{Light: "#E6E9EF", Dark: "#181825"},
	}
}

// Styles holds the rendered styles used across views.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
	Help     lipgloss.Style

	// InputField frames the question input.
	InputField lipgloss.Style
	StatusBar  lipgloss.Style

	// User and Assistant label transcript turns.
	User      lipgloss.Style
	Assistant lipgloss.Style

	// Source renders document ids cited by an answer.
	Source lipgloss.Style

	// Attachment renders the line announcing a generated file.
	Attachment lipgloss.Style
}

// NewStyles creates styles from a theme. A nil theme uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Title:    lipgloss.NewStyle().Bold(true).Foreground(theme.Accent),
		Subtitle: lipgloss.NewStyle().Bold(true).Foreground(theme.Question),
		Normal:   lipgloss.NewStyle().Foreground(theme.Text),
		Muted:    lipgloss.NewStyle().Foreground(theme.Faint),
		Selected: lipgloss.NewStyle().Bold(true).Foreground(theme.Text).Background(theme.Accent),
		Error:    lipgloss.NewStyle().Foreground(theme.Failure),
		Help:     lipgloss.NewStyle().Foreground(theme.Faint),

		InputField: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Frame).
			Padding(0, 1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Faint).
			Background(theme.StatusBack).
			Padding(0, 1),

		User:      lipgloss.NewStyle().Bold(true).Foreground(theme.Question),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(theme.Answer),

		Source:     lipgloss.NewStyle().Foreground(theme.Citation),
		Attachment: lipgloss.NewStyle().Bold(true).Foreground(theme.Answer),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
