// Package chat provides the question and answer view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// ErrNoRAGService is reported when a question is asked without a pipeline.
var ErrNoRAGService = errors.New("rag service not available")

// historyLimit caps the turns loaded when a session is opened.
const historyLimit = 50

// sourcesHeight is the number of rows given to the sources list.
const sourcesHeight = 5

// Config identifies who is asking and where the conversation is kept.
type Config struct {
	OwnerID   string
	SessionID string
	// HistoryTurns is how many prior turns are sent with each question.
	HistoryTurns int
	// SaveDir receives generated files. Empty saves to the working
	// directory, and only on request.
	SaveDir string
}

type entry struct {
	role    domain.Role
	content string
	sources []string
	file    *domain.GeneratedDocument
	failed  bool
}

// View is the chat transcript with a question input, the sources of the
// last answer and a status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	sources   *list.SourceList
	statusbar *status.Bar

	rag          driving.RAGService
	conversation driving.ConversationService
	cfg          Config
	ctx          context.Context

	entries  []entry
	lastFile *domain.GeneratedDocument
	pending  bool

	width      int
	height     int
	ready      bool
	err        error
	focusInput bool
}

// NewView creates a chat view.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	rag driving.RAGService,
	conversation driving.ConversationService,
	cfg Config,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:       s,
		keymap:       km,
		input:        input.NewQuestionInput(s),
		sources:      list.NewSourceList(s),
		statusbar:    status.NewBar(s, km),
		rag:          rag,
		conversation: conversation,
		cfg:          cfg,
		ctx:          context.Background(),
		width:        80,
		height:       24,
		focusInput:   true,
	}
	v.statusbar.SetHints(status.HintsChat)
	v.statusbar.SetSession(cfg.SessionID)
	return v
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init starts the cursor and loads the session history.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Init(), v.loadHistory())
}

// SetSession switches to sessionID, clearing the transcript and scope.
func (v *View) SetSession(sessionID string) tea.Cmd {
	v.cfg.SessionID = sessionID
	v.entries = nil
	v.lastFile = nil
	v.err = nil
	v.sources.SetSources(nil)
	v.sources.ClearScope()
	v.statusbar.Clear()
	v.statusbar.SetSession(sessionID)
	return v.loadHistory()
}

// Session returns the active session id.
func (v *View) Session() string {
	return v.cfg.SessionID
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.AnswerReceived:
		return v, v.handleAnswer(msg)

	case messages.HistoryLoaded:
		v.handleHistory(msg)
		return v, nil

	case messages.FileSaved:
		if msg.Err != nil {
			// Local file errors are the user's own and shown in full.
			v.setError(msg.Err)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.statusbar.SetMessage("saved " + msg.Path)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if key.Matches(msg, v.keymap.Back) {
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}
	if key.Matches(msg, v.keymap.Focus) {
		v.toggleFocus()
		return v, nil
	}

	if v.focusInput {
		if msg.Type == tea.KeyEnter {
			return v, v.submit()
		}
		var cmd tea.Cmd
		v.input, cmd = v.input.Update(msg)
		return v, cmd
	}

	switch {
	case key.Matches(msg, v.keymap.Scope):
		v.sources.ToggleScope()
	case key.Matches(msg, v.keymap.ClearScope):
		v.sources.ClearScope()
	case key.Matches(msg, v.keymap.Save):
		if v.lastFile == nil {
			v.statusbar.SetMessage("no generated file")
			return v, nil
		}
		return v, v.saveFile(v.lastFile)
	default:
		v.sources, _ = v.sources.Update(msg)
	}
	return v, nil
}

func (v *View) toggleFocus() {
	v.focusInput = !v.focusInput
	v.sources.SetFocused(!v.focusInput)
	if v.focusInput {
		v.input.Focus()
		v.statusbar.SetHints(status.HintsChat)
		return
	}
	v.input.Blur()
	v.statusbar.SetHints(status.HintsSources)
}

// submit sends the typed question. Questions typed while an answer is
// pending are kept in the input.
func (v *View) submit() tea.Cmd {
	query := strings.TrimSpace(v.input.Value())
	if query == "" || v.pending {
		return nil
	}
	v.input.SetValue("")
	v.entries = append(v.entries, entry{role: domain.RoleUser, content: query})
	v.pending = true
	v.err = nil
	v.statusbar.SetState(status.StateThinking)
	v.statusbar.SetMessage("")
	return v.ask(query)
}

func (v *View) ask(query string) tea.Cmd {
	cfg := v.cfg
	scope := v.sources.Scope()
	ctx := v.ctx
	rag := v.rag
	conversation := v.conversation

	return func() tea.Msg {
		if rag == nil {
			return messages.AnswerReceived{Query: query, Err: ErrNoRAGService}
		}
		in := domain.QueryInput{
			Query:             query,
			OwnerID:           cfg.OwnerID,
			SessionID:         cfg.SessionID,
			UseSemanticSearch: true,
			DocumentIDs:       scope,
		}
		if conversation != nil && cfg.SessionID != "" && cfg.HistoryTurns > 0 {
			// Without history the question is still answerable.
			if history, err := conversation.BuildContext(ctx, cfg.SessionID, cfg.HistoryTurns); err == nil {
				in.ConversationContext = history
			}
		}
		result, err := rag.RunQuery(ctx, in)
		return messages.AnswerReceived{Query: query, Result: result, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) tea.Cmd {
	v.pending = false
	if msg.Err != nil {
		v.entries = append(v.entries, entry{
			role:    domain.RoleAssistant,
			content: domain.UserMessage(msg.Err),
			failed:  true,
		})
		v.setError(msg.Err)
		return nil
	}
	if msg.Result == nil {
		return nil
	}

	v.err = nil
	v.entries = append(v.entries, entry{
		role:    domain.RoleAssistant,
		content: msg.Result.Response,
		sources: msg.Result.ReferencedDocuments,
		file:    msg.Result.DocumentFile,
	})
	v.sources.SetSources(msg.Result.ReferencedDocuments)
	v.statusbar.SetState(status.StateAnswered)
	v.statusbar.SetSourceCount(len(msg.Result.ReferencedDocuments))
	v.statusbar.SetMessage("")

	if msg.Result.DocumentFile != nil {
		v.lastFile = msg.Result.DocumentFile
		if v.cfg.SaveDir != "" {
			return v.saveFile(v.lastFile)
		}
	}
	return nil
}

func (v *View) handleHistory(msg messages.HistoryLoaded) {
	if msg.SessionID != v.cfg.SessionID {
		return
	}
	if msg.Err != nil {
		v.setError(fmt.Errorf("loading history: %w", msg.Err))
		return
	}
	restored := make([]entry, 0, len(msg.Turns)+len(v.entries))
	for _, t := range msg.Turns {
		restored = append(restored, entry{role: t.Role, content: t.Content, sources: t.ReferencedDocs})
	}
	v.entries = append(restored, v.entries...)
}

func (v *View) loadHistory() tea.Cmd {
	if v.conversation == nil || v.cfg.SessionID == "" {
		return nil
	}
	sessionID := v.cfg.SessionID
	ctx := v.ctx
	conversation := v.conversation
	return func() tea.Msg {
		turns, err := conversation.History(ctx, sessionID, historyLimit)
		return messages.HistoryLoaded{SessionID: sessionID, Turns: turns, Err: err}
	}
}

func (v *View) saveFile(doc *domain.GeneratedDocument) tea.Cmd {
	dir := v.cfg.SaveDir
	if dir == "" {
		dir = "."
	}
	return func() tea.Msg {
		data, err := doc.Decode()
		if err != nil {
			return messages.FileSaved{Err: err}
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return messages.FileSaved{Err: fmt.Errorf("creating %s: %w", dir, err)}
		}
		path := filepath.Join(dir, filepath.Base(doc.Name))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return messages.FileSaved{Err: fmt.Errorf("writing %s: %w", path, err)}
		}
		return messages.FileSaved{Path: path}
	}
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(domain.UserMessage(err))
}

// View renders the chat view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 8)
	sections = append(sections,
		v.styles.Title.Render("docrag"),
		v.renderTranscript(),
		v.input.View(),
		v.sources.View(),
		v.statusbar.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderTranscript renders the newest entries that fit the space above
// the input.
func (v *View) renderTranscript() string {
	bodyWidth := v.width - 4
	if bodyWidth < 20 {
		bodyWidth = 20
	}
	body := lipgloss.NewStyle().Width(bodyWidth).PaddingLeft(2)

	var lines []string
	for _, e := range v.entries {
		label := v.styles.User.Render("You")
		if e.role == domain.RoleAssistant {
			label = v.styles.Assistant.Render("Assistant")
		}
		lines = append(lines, label)

		text := body.Render(e.content)
		if e.failed {
			text = v.styles.Error.Render(text)
		}
		lines = append(lines, strings.Split(text, "\n")...)

		if len(e.sources) > 0 {
			lines = append(lines, v.styles.Muted.Render("  sources: ")+v.styles.Source.Render(strings.Join(e.sources, ", ")))
		}
		if e.file != nil {
			lines = append(lines, v.styles.Attachment.Render(
				fmt.Sprintf("  generated: %s (%d bytes)", e.file.Name, e.file.Size)))
		}
		lines = append(lines, "")
	}
	if v.pending {
		lines = append(lines, v.styles.Muted.Render("  ..."))
	}
	if len(lines) == 0 {
		lines = append(lines, v.styles.Muted.Render("Ask a question to get started."))
	}

	// title, input box, sources list and status bar
	available := v.height - (1 + 3 + sourcesHeight + 1)
	if available < 3 {
		available = 3
	}
	if len(lines) > available {
		lines = lines[len(lines)-available:]
	}
	return strings.Join(lines, "\n")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.sources.SetDimensions(width, sourcesHeight)
	v.statusbar.SetWidth(width)
}

// Ready returns whether the view is ready to render.
func (v *View) Ready() bool {
	return v.ready
}

// Pending reports whether an answer is outstanding.
func (v *View) Pending() bool {
	return v.pending
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}

// Query returns the text currently typed.
func (v *View) Query() string {
	return v.input.Value()
}

// SetQuery sets the typed text.
func (v *View) SetQuery(query string) {
	v.input.SetValue(query)
}

// Scope returns the document ids the next question is restricted to.
func (v *View) Scope() []string {
	return v.sources.Scope()
}

// Transcript returns the role and content of every entry, oldest first.
func (v *View) Transcript() []domain.ConversationTurn {
	out := make([]domain.ConversationTurn, 0, len(v.entries))
	for _, e := range v.entries {
		out = append(out, domain.ConversationTurn{
			SessionID:      v.cfg.SessionID,
			Role:           e.role,
			Content:        e.content,
			ReferencedDocs: e.sources,
		})
	}
	return out
}
