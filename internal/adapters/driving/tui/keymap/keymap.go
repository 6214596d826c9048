// Package keymap holds the key bindings of the chat interface.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

var _ help.KeyMap = (*KeyMap)(nil)

// KeyMap is grouped by where a binding applies. Bindings in different
// groups may share keys.
type KeyMap struct {
	// Everywhere.
	Quit key.Binding
	Help key.Binding
	Back key.Binding

	// Menu.
	Up     key.Binding
	Down   key.Binding
	Select key.Binding

	// Question input.
	Send  key.Binding
	Focus key.Binding

	// Sources of the last answer.
	Scope      key.Binding
	ClearScope key.Binding
	Save       key.Binding
}

func binding(label, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(label, desc))
}

func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Quit: binding("q", "quit", "q", "ctrl+c"),
		Help: binding("?", "help", "?"),
		Back: binding("esc", "back", "esc"),

		Up:     binding("↑/k", "up", "up", "k"),
		Down:   binding("↓/j", "down", "down", "j"),
		Select: binding("enter", "select", "enter"),

		Send:  binding("enter", "ask", "enter"),
		Focus: binding("tab", "sources", "tab"),

		Scope:      binding("space", "scope", " ", "enter"),
		ClearScope: binding("c", "clear scope", "c"),
		Save:       binding("s", "save file", "s"),
	}
}

func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help}
}

// ChatHelp is shown while the question input has focus.
func (k *KeyMap) ChatHelp() []key.Binding {
	return []key.Binding{k.Send, k.Focus, k.Back}
}

// SourcesHelp is shown while the sources list has focus.
func (k *KeyMap) SourcesHelp() []key.Binding {
	return []key.Binding{k.Up, k.Scope, k.ClearScope, k.Save, k.Focus}
}

// FullHelp lists one column per group for the help screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Send, k.Focus, k.Back},
		{k.Scope, k.ClearScope, k.Save},
		{k.Help, k.Quit},
	}
}
