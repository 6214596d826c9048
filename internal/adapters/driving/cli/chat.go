package cli

import (
	"errors"
	"fmt"
	"os"
	"runtime/debug"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui"
)

var (
	chatOwner   string
	chatSession string
	chatSaveTo  string
)

var chatCmd = &cobra.Command{
	Use:     "chat",
	Aliases: []string{"tui"},
	Short:   "Chat with your documents in the terminal",
	Long: `Opens an interactive chat. Each question is answered from your documents
and saved to the session, so follow-up questions see the conversation.

Without --session a new session id is generated. Reuse it to continue
later, or inspect it with "docrag history".

Controls:
  enter    - Ask
  tab      - Switch to the sources of the last answer
  space    - Restrict the next question to the selected source
  s        - Save the last generated file
  esc      - Menu
  ctrl+c   - Quit`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatOwner, "owner", defaultOwner, "owner whose documents are searched")
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "session id to continue (default: new session)")
	chatCmd.Flags().StringVar(&chatSaveTo, "save-to", "", "directory generated files are saved to automatically")
	rootCmd.AddCommand(chatCmd)
}

func newChatApp(cmd *cobra.Command) (*tui.App, error) {
	if ragService == nil {
		return nil, errors.New("rag service not configured")
	}

	session := chatSession
	if session == "" {
		session = uuid.NewString()
	}
	cfg := tui.Config{
		OwnerID:   chatOwner,
		SessionID: session,
		SaveDir:   chatSaveTo,
	}
	if services != nil {
		cfg.HistoryTurns = services.HistoryTurns
	}

	app, err := tui.NewApp(&tui.Ports{RAG: ragService, Conversation: conversationService}, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create TUI: %w", err)
	}
	return app.WithContext(cmd.Context()), nil
}

func runChat(cmd *cobra.Command, _ []string) error {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "Panic in TUI: %v\n", r)
			fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
		}
	}()

	app, err := newChatApp(cmd)
	if err != nil {
		return err
	}

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	cmd.Printf("Session: %s\n", app.Chat().Session())
	return nil
}
