// Package status renders the one-line bar under the chat transcript.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// State is what the bar reports on its left side.
type State int

const (
	StateReady State = iota
	StateThinking
	StateAnswered
	StateError
)

// Hints picks the key bindings listed on the right side.
type Hints int

const (
	HintsShort Hints = iota
	HintsChat
	HintsSources
)

// Bar is driven entirely through its setters; it handles no messages.
type Bar struct {
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	state   State
	hints   Hints
	message string
	sources int
	session string
	width   int
}

// NewBar returns a bar 80 columns wide. Nil arguments take the defaults.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	h := help.New()
	h.ShortSeparator = " | "
	h.Styles.ShortKey = s.Normal
	h.Styles.ShortDesc = s.Muted
	h.Styles.ShortSeparator = s.Muted

	return &Bar{styles: s, keys: km, help: h, width: 80}
}

func (b *Bar) View() string {
	left, right := b.status(), b.hintLine()
	gap := max(1, b.width-lipgloss.Width(left)-lipgloss.Width(right))
	return b.styles.StatusBar.Width(b.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (b *Bar) status() string {
	if b.state == StateError {
		if b.message == "" {
			return b.styles.Error.Render("Error")
		}
		return b.styles.Error.Render("Error: " + b.message)
	}

	var text string
	switch b.state {
	case StateThinking:
		text = b.styles.Muted.Render("Thinking...")
	case StateAnswered:
		text = b.styles.Normal.Render(fmt.Sprintf("%d sources", b.sources))
	default:
		text = b.styles.Muted.Render("Ready")
	}
	if b.message != "" {
		text += b.styles.Muted.Render(" - " + b.message)
	}
	if b.session != "" {
		text = b.styles.Muted.Render("["+b.session+"] ") + text
	}
	return text
}

func (b *Bar) hintLine() string {
	var bindings []key.Binding
	switch b.hints {
	case HintsChat:
		bindings = b.keys.ChatHelp()
	case HintsSources:
		bindings = b.keys.SourcesHelp()
	default:
		bindings = b.keys.ShortHelp()
	}
	return b.help.ShortHelpView(bindings)
}

func (b *Bar) SetState(state State) { b.state = state }

func (b *Bar) State() State { return b.state }

func (b *Bar) SetHints(h Hints) { b.hints = h }

// SetMessage adds a note after the state, or replaces the generic text of
// StateError.
func (b *Bar) SetMessage(message string) { b.message = message }

func (b *Bar) Message() string { return b.message }

// SetSourceCount is the number of documents the last answer referenced.
func (b *Bar) SetSourceCount(n int) { b.sources = n }

func (b *Bar) SetSession(id string) { b.session = id }

func (b *Bar) SetWidth(width int) { b.width = width }

// Clear returns to StateReady. The session id is kept.
func (b *Bar) Clear() {
	b.state = StateReady
	b.message = ""
	b.sources = 0
}
