package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/views/menu"
)

// Config identifies the chat session the app opens with.
type Config struct {
	OwnerID   string
	SessionID string
	// HistoryTurns is how many prior turns are sent with each question.
	HistoryTurns int
	// SaveDir receives generated files automatically when set.
	SaveDir string
}

var _ tea.Model = (*App)(nil)

// App switches between the menu, the chat and the help screen. The chat
// view keeps its state while another screen is shown.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keys   *keymap.KeyMap
	help   help.Model

	menu *menu.View
	chat *chat.View

	view  messages.ViewType
	err   error
	ready bool
}

// NewApp validates ports and opens on the chat view.
func NewApp(ports *Ports, cfg Config) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()
	h := help.New()
	h.ShowAll = true
	h.Styles.FullKey = s.Normal
	h.Styles.FullDesc = s.Muted
	h.Styles.FullSeparator = s.Muted

	return &App{
		ports:  ports,
		ctx:    context.Background(),
		styles: s,
		keys:   km,
		help:   h,
		menu:   menu.NewView(s, km),
		chat: chat.NewView(s, km, ports.RAG, ports.Conversation, chat.Config{
			OwnerID:      cfg.OwnerID,
			SessionID:    cfg.SessionID,
			HistoryTurns: cfg.HistoryTurns,
			SaveDir:      cfg.SaveDir,
		}),
		view: messages.ViewChat,
	}, nil
}

// WithContext sets the context passed to service calls.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.chat.WithContext(ctx)
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("docrag"), a.chat.Init())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.ready = true
		a.help.Width = msg.Width
		a.menu.SetDimensions(msg.Width, msg.Height)
		a.chat.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case messages.ViewChanged:
		a.view = msg.View
		return a, nil

	case messages.SessionStarted:
		a.view = messages.ViewChat
		return a, a.chat.SetSession(msg.SessionID)

	case messages.ErrorOccurred:
		a.err = msg.Err
		return a, a.toChat(msg)

	// Results of earlier commands reach the chat whichever screen is shown.
	case messages.AnswerReceived, messages.HistoryLoaded, messages.FileSaved:
		return a, a.toChat(msg)

	case messages.Quit:
		return a, tea.Quit
	}

	if a.view == messages.ViewChat {
		return a, a.toChat(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}

	var cmd tea.Cmd
	switch a.view {
	case messages.ViewMenu:
		a.menu, cmd = a.menu.Update(msg)
	case messages.ViewChat:
		cmd = a.toChat(msg)
	case messages.ViewHelp:
		if key.Matches(msg, a.keys.Back) {
			a.view = messages.ViewMenu
		}
	}
	return cmd
}

func (a *App) toChat(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	a.chat, cmd = a.chat.Update(msg)
	return cmd
}

func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}
	switch a.view {
	case messages.ViewMenu:
		return a.menu.View()
	case messages.ViewHelp:
		return a.helpView()
	default:
		return a.chat.View()
	}
}

func (a *App) helpView() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Help"))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Normal.Render("Type a question and press enter. Answers cite the documents they used;"))
	b.WriteString("\n")
	b.WriteString(a.styles.Normal.Render("tab moves to that list, where space limits the next question to one document."))
	b.WriteString("\n\n")
	b.WriteString(a.help.View(a.keys))
	b.WriteString("\n\n")
	b.WriteString(a.styles.Help.Render("ctrl+c quits from anywhere • esc back to menu"))
	return b.String()
}

// Run blocks until the user quits.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx)).Run()
	return err
}

func (a *App) CurrentView() messages.ViewType { return a.view }

func (a *App) Chat() *chat.View { return a.chat }

// Err is the last error reported by a view.
func (a *App) Err() error { return a.err }

func (a *App) Ready() bool { return a.ready }

// SetDimensions feeds a window size message through Update.
func (a *App) SetDimensions(width, height int) {
	a.Update(tea.WindowSizeMsg{Width: width, Height: height})
}
