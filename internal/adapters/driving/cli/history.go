package cli

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	historyLimit int
	historyClear bool
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "Show or clear a conversation",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show only the last n turns (0 = all)")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the session's history")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output turns as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	if conversationService == nil {
		return errors.New("conversation service not configured")
	}
	sessionID := args[0]

	if historyClear {
		if err := conversationService.Clear(cmd.Context(), sessionID); err != nil {
			return fmt.Errorf("clear failed: %w", err)
		}
		cmd.Printf("Cleared session %s\n", sessionID)
		return nil
	}

	turns, err := conversationService.History(cmd.Context(), sessionID, historyLimit)
	if err != nil {
		return fmt.Errorf("history failed: %w", err)
	}
	if historyJSON {
		if turns == nil {
			turns = []domain.ConversationTurn{}
		}
		return outputJSON(cmd, turns)
	}

	if len(turns) == 0 {
		cmd.Println("No turns recorded.")
		return nil
	}

	user := color.New(color.FgGreen, color.Bold).SprintFunc()
	assistant := color.New(color.FgCyan, color.Bold).SprintFunc()
	for _, t := range turns {
		label := user("You:")
		if t.Role == domain.RoleAssistant {
			label = assistant("Assistant:")
		}
		cmd.Printf("%s %s  %s\n", t.CreatedAt.Local().Format("2006-01-02 15:04"), label, t.Content)
		if len(t.ReferencedDocs) > 0 {
			cmd.Printf("    sources: %v\n", t.ReferencedDocs)
		}
	}
	return nil
}
