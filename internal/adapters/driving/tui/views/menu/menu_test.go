package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

func runes(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestNewView_Defaults(t *testing.T) {
	view := NewView(nil, nil)

	require.NotNil(t, view.styles)
	require.NotNil(t, view.keys)
	assert.Len(t, view.items, 4)
	assert.Zero(t, view.Selected())
	assert.False(t, view.ready)
	assert.Nil(t, view.Init())
}

func TestNewView_UsesGivenStyles(t *testing.T) {
	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	view := NewView(s, km)

	assert.Same(t, s, view.styles)
	assert.Same(t, km, view.keys)
}

func TestView_CursorIsClamped(t *testing.T) {
	view := NewView(nil, nil)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Zero(t, view.Selected())

	for range 10 {
		view.Update(runes('j'))
	}
	assert.Equal(t, len(view.items)-1, view.Selected())

	view.Update(runes('k'))
	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, len(view.items)-3, view.Selected())
}

func TestView_Choose(t *testing.T) {
	tests := []struct {
		name     string
		selected int
		check    func(t *testing.T, msg tea.Msg)
	}{
		{
			name: "chat resumes the session",
			check: func(t *testing.T, msg tea.Msg) {
				assert.Equal(t, messages.ViewChanged{View: messages.ViewChat}, msg)
			},
		},
		{
			name:     "new session gets a fresh id",
			selected: 1,
			check: func(t *testing.T, msg tea.Msg) {
				started, ok := msg.(messages.SessionStarted)
				require.True(t, ok)
				assert.Len(t, started.SessionID, 36)
			},
		},
		{
			name:     "help",
			selected: 2,
			check: func(t *testing.T, msg tea.Msg) {
				assert.Equal(t, messages.ViewChanged{View: messages.ViewHelp}, msg)
			},
		},
		{
			name:     "quit",
			selected: 3,
			check: func(t *testing.T, msg tea.Msg) {
				assert.IsType(t, tea.QuitMsg{}, msg)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil, nil)
			view.selected = tt.selected

			_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

			require.NotNil(t, cmd)
			tt.check(t, cmd())
		})
	}
}

func TestView_NewSessionIDsDiffer(t *testing.T) {
	view := NewView(nil, nil)
	view.selected = 1

	_, first := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	_, second := view.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.NotEqual(t, first().(messages.SessionStarted).SessionID, second().(messages.SessionStarted).SessionID)
}

func TestView_Shortcuts(t *testing.T) {
	view := NewView(nil, nil)

	_, cmd := view.Update(runes('?'))
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewHelp}, cmd())

	_, cmd = view.Update(runes('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView_Render(t *testing.T) {
	view := NewView(nil, nil)
	assert.Equal(t, "Initialising...", view.View())

	view.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	assert.Equal(t, 100, view.width)
	assert.Equal(t, 30, view.height)

	out := view.View()
	for _, want := range []string{"docrag", "Questions over your documents", "Chat", "New session", "start over", "Help", "Quit", "> "} {
		assert.Contains(t, out, want)
	}
	assert.Contains(t, out, "quit")
}
