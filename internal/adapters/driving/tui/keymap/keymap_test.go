package keymap

import (
	"testing"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func TestDefaultKeyMap_Keys(t *testing.T) {
	km := DefaultKeyMap()

	tests := []struct {
		name    string
		binding key.Binding
		keys    []string
		help    string
	}{
		{"quit", km.Quit, []string{"q", "ctrl+c"}, "quit"},
		{"help", km.Help, []string{"?"}, "help"},
		{"back", km.Back, []string{"esc"}, "back"},
		{"send", km.Send, []string{"enter"}, "ask"},
		{"up", km.Up, []string{"up", "k"}, "up"},
		{"down", km.Down, []string{"down", "j"}, "down"},
		{"select", km.Select, []string{"enter"}, "select"},
		{"focus", km.Focus, []string{"tab"}, "sources"},
		{"scope", km.Scope, []string{" ", "enter"}, "scope"},
		{"clear scope", km.ClearScope, []string{"c"}, "clear scope"},
		{"save", km.Save, []string{"s"}, "save file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.keys, tt.binding.Keys())
			assert.Equal(t, tt.help, tt.binding.Help().Desc)
			assert.True(t, tt.binding.Enabled())
		})
	}
}

func TestKeyMap_HelpGroups(t *testing.T) {
	km := DefaultKeyMap()

	assert.Equal(t, []key.Binding{km.Quit, km.Help}, km.ShortHelp())
	assert.Equal(t, []key.Binding{km.Send, km.Focus, km.Back}, km.ChatHelp())
	assert.Equal(t, []key.Binding{km.Up, km.Scope, km.ClearScope, km.Save, km.Focus}, km.SourcesHelp())

	full := km.FullHelp()
	assert.Len(t, full, 4)
	assert.Contains(t, full[2], km.Save)
	assert.Contains(t, full[3], km.Quit)
}

func TestKeyMap_RendersWithHelpModel(t *testing.T) {
	h := help.New()
	h.ShowAll = true

	view := h.View(DefaultKeyMap())
	for _, want := range []string{"ask", "clear scope", "save file", "quit"} {
		assert.Contains(t, view, want)
	}
}

func TestKeyMap_MatchesKeyMessages(t *testing.T) {
	km := DefaultKeyMap()

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlC}, km.Quit))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, km.Scope))
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}, km.Down))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")}, km.ClearScope))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyDown}, km.Up))
}
