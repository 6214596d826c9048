// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
)

// SourceList shows the documents referenced by the last answer and tracks
// which of them restrict the next question's retrieval.
type SourceList struct {
	sources  []string
	scoped   map[string]bool
	order    []string
	selected int
	focused  bool
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates an empty source list.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		scoped: make(map[string]bool),
		styles: s,
		width:  80,
		height: 8,
	}
}

// Init initialises the source list.
func (r *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the list. Scoped documents carry a check mark.
func (r *SourceList) View() string {
	lines := make([]string, 0, len(r.sources)+2)

	header := fmt.Sprintf("Sources (%d)", len(r.sources))
	if len(r.order) > 0 {
		header += fmt.Sprintf(" - scope: %s", strings.Join(r.order, ", "))
	}
	lines = append(lines, r.styles.Subtitle.Render(header))

	if len(r.sources) == 0 {
		lines = append(lines, r.styles.Muted.Render("  none"))
		return strings.Join(lines, "\n")
	}

	visible := r.height - 1
	if visible < 1 {
		visible = 1
	}
	start := 0
	if r.selected >= visible {
		start = r.selected - visible + 1
	}
	end := start + visible
	if end > len(r.sources) {
		end = len(r.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, r.renderSource(i))
	}
	return strings.Join(lines, "\n")
}

func (r *SourceList) renderSource(i int) string {
	id := r.sources[i]
	mark := "[ ]"
	if r.scoped[id] {
		mark = "[x]"
	}

	maxLen := r.width - 10
	if maxLen < 10 {
		maxLen = 10
	}
	if len(id) > maxLen {
		id = id[:maxLen-3] + "..."
	}

	line := fmt.Sprintf("%d. %s %s", i+1, mark, id)
	if r.focused && i == r.selected {
		return r.styles.Selected.Render("> " + line)
	}
	if r.scoped[r.sources[i]] {
		return r.styles.Source.Render("  " + line)
	}
	return r.styles.Normal.Render("  " + line)
}

// SetSources replaces the listed documents. The scope is kept.
func (r *SourceList) SetSources(ids []string) {
	r.sources = ids
	r.selected = 0
}

// Sources returns the listed document ids.
func (r *SourceList) Sources() []string {
	return r.sources
}

// Selected returns the index of the selected source.
func (r *SourceList) Selected() int {
	return r.selected
}

// SelectedSource returns the selected document id, or "" when empty.
func (r *SourceList) SelectedSource() string {
	if r.selected < 0 || r.selected >= len(r.sources) {
		return ""
	}
	return r.sources[r.selected]
}

// ToggleScope adds or removes the selected source from the scope.
func (r *SourceList) ToggleScope() {
	id := r.SelectedSource()
	if id == "" {
		return
	}
	if r.scoped[id] {
		delete(r.scoped, id)
		for i, s := range r.order {
			if s == id {
				r.order = append(r.order[:i], r.order[i+1:]...)
				break
			}
		}
		return
	}
	r.scoped[id] = true
	r.order = append(r.order, id)
}

// Scope returns the scoped document ids in the order they were added.
func (r *SourceList) Scope() []string {
	if len(r.order) == 0 {
		return nil
	}
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ClearScope empties the scope.
func (r *SourceList) ClearScope() {
	r.scoped = make(map[string]bool)
	r.order = nil
}

// MoveUp moves selection up.
func (r *SourceList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *SourceList) MoveDown() {
	if r.selected < len(r.sources)-1 {
		r.selected++
	}
}

// SetFocused controls whether the selection is highlighted.
func (r *SourceList) SetFocused(focused bool) {
	r.focused = focused
}

// Focused reports whether the list has focus.
func (r *SourceList) Focused() bool {
	return r.focused
}

// SetDimensions sets the component dimensions.
func (r *SourceList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of sources.
func (r *SourceList) Count() int {
	return len(r.sources)
}

// IsEmpty returns whether the list is empty.
func (r *SourceList) IsEmpty() bool {
	return len(r.sources) == 0
}
