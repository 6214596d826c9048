// Package menu is the start screen of the chat interface.
package menu

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// action is what choosing an entry does.
type action int

const (
	actionResume action = iota
	actionFresh
	actionHelp
	actionQuit
)

type entry struct {
	label  string
	detail string
	action action
}

var entries = []entry{
	{label: "Chat", detail: "continue the current conversation", action: actionResume},
	{label: "New session", detail: "start over without previous turns", action: actionFresh},
	{label: "Help", detail: "keys and commands", action: actionHelp},
	{label: "Quit", detail: "leave docrag", action: actionQuit},
}

// View lets the user pick between resuming a conversation, starting a
// fresh one, reading the help or quitting.
type View struct {
	styles   *styles.Styles
	keys     *keymap.KeyMap
	items    []entry
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. Nil arguments fall back to the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles: s,
		keys:   km,
		items:  entries,
		width:  80,
		height: 24,
	}
}

// Init implements tea.Model.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update moves the cursor or acts on the highlighted entry.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, v.keys.Up):
			v.selected = max(v.selected-1, 0)
		case key.Matches(msg, v.keys.Down):
			v.selected = min(v.selected+1, len(v.items)-1)
		case key.Matches(msg, v.keys.Select):
			return v, v.choose(v.items[v.selected].action)
		case key.Matches(msg, v.keys.Help):
			return v, v.choose(actionHelp)
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		}
	}
	return v, nil
}

func (v *View) choose(a action) tea.Cmd {
	switch a {
	case actionQuit:
		return tea.Quit
	case actionFresh:
		id := uuid.NewString()
		return func() tea.Msg { return messages.SessionStarted{SessionID: id} }
	case actionHelp:
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewHelp} }
	default:
		return func() tea.Msg { return messages.ViewChanged{View: messages.ViewChat} }
	}
}

// View renders the entries with the cursor on the selected one.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("docrag"))
	b.WriteString("\n")
	b.WriteString(v.styles.Muted.Render("Questions over your documents"))
	b.WriteString("\n\n")

	for i, e := range v.items {
		label := fmt.Sprintf("%-12s", e.label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Selected.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		b.WriteString(" " + v.styles.Muted.Render(e.detail) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render(helpLine(v.keys.Up, v.keys.Down, v.keys.Select, v.keys.Quit)))
	return b.String()
}

func helpLine(bindings ...key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " • ")
}

// SetDimensions records the terminal size.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Selected returns the cursor position.
func (v *View) Selected() int {
	return v.selected
}
