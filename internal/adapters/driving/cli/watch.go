package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/logger"
)

var (
	watchOwner    string
	watchInitial  bool
	watchDebounce time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory]",
	Short: "Keep a directory in sync with the index",
	Long: `Watches a directory tree and re-ingests files as they are created or
modified. Removed or renamed files are deleted from the index. Bursts of
events for the same file are collapsed within the debounce window.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchOwner, "owner", defaultOwner, "owner of the documents")
	watchCmd.Flags().BoolVar(&watchInitial, "initial", false, "ingest every file before watching")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 500*time.Millisecond, "delay before applying changes")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	if watchDebounce <= 0 {
		return errors.New("--debounce must be positive")
	}

	conn := filesystem.New(filesystem.ResolvePath(args[0]))
	defer conn.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchInitial {
		files, err := conn.FullSync(ctx)
		if err != nil {
			return err
		}
		for _, f := range files {
			applyChange(ctx, cmd, filesystem.Change{Type: filesystem.ChangeCreated, File: f})
		}
	}

	changes, err := conn.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", conn.Root())

	ticker := time.NewTicker(watchDebounce)
	defer ticker.Stop()

	pending := make(map[string]filesystem.Change)
	flush := func() {
		ids := make([]string, 0, len(pending))
		for id := range pending {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		for _, id := range ids {
			applyChange(ctx, cmd, pending[id])
			delete(pending, id)
		}
	}

	for {
		select {
		case change, ok := <-changes:
			if !ok {
				flush()
				return nil
			}
			logger.Debug("%s %s", change.Type, change.File.Path)
			pending[change.File.DocumentID] = change
		case <-ticker.C:
			flush()
		}
	}
}

// applyChange mirrors one change into the index. Failures are reported
// and do not stop the watch.
func applyChange(ctx context.Context, cmd *cobra.Command, change filesystem.Change) {
	if change.Type == filesystem.ChangeDeleted {
		if err := ingestionService.DeleteDocument(ctx, change.File.DocumentID, watchOwner); err != nil {
			cmd.PrintErrf("  %s: %v\n", change.File.DocumentID, err)
			return
		}
		cmd.Printf("  - %s\n", change.File.DocumentID)
		return
	}

	content, err := os.ReadFile(change.File.Path)
	if err != nil {
		// Removed between the event and the read; the delete follows.
		logger.Debug("Skipping %s: %v", change.File.Path, err)
		return
	}
	result, err := ingestionService.IngestFile(ctx, fileRequest(change.File, watchOwner, content))
	if err != nil {
		cmd.PrintErrf("  %s: %v\n", change.File.DocumentID, err)
		return
	}
	cmd.Printf("  + %s (%d chunks)\n", result.DocumentID, result.ChunksCount)
}
