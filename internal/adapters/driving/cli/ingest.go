package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/connectors/filesystem"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

var (
	ingestOwner     string
	ingestID        string
	ingestChunkSize int
	ingestOverlap   int
	deleteOwner     string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Ingest files or directories",
	Long: `Extracts text from each file, splits it into overlapping chunks, embeds
the chunks and stores them for the owner. Directories are walked
recursively; hidden entries are skipped. Re-ingesting a document replaces it.

Document ids default to the path relative to the argument it was found
under. Use "-" to read text from standard input (requires --id).`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id...]",
	Short: "Remove documents from the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDelete,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestOwner, "owner", defaultOwner, "owner of the documents")
	ingestCmd.Flags().StringVar(&ingestID, "id", "", "document id (single file or stdin only)")
	ingestCmd.Flags().IntVar(&ingestChunkSize, "chunk-size", 0, "maximum chunk length in characters (0 = configured default)")
	ingestCmd.Flags().IntVar(&ingestOverlap, "overlap", 0, "words carried into the next chunk (default from settings, 0 disables)")
	rootCmd.AddCommand(ingestCmd)

	deleteCmd.Flags().StringVar(&deleteOwner, "owner", defaultOwner, "owner of the documents")
	rootCmd.AddCommand(deleteCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	if ingestID != "" && len(args) > 1 {
		return errors.New("--id can only be used with a single path")
	}

	if len(args) == 1 && args[0] == "-" {
		return ingestStdin(cmd)
	}

	var ingested, failed int
	for _, root := range args {
		files, err := filesystem.New(filesystem.ResolvePath(root)).FullSync(cmd.Context())
		if err != nil {
			return err
		}
		if ingestID != "" && len(files) != 1 {
			return errors.New("--id can only be used with a single file")
		}
		for _, f := range files {
			id := ingestID
			if id == "" {
				id = f.DocumentID
			}
			result, err := ingestPath(cmd, id, ingestOwner, f.Path)
			if err != nil {
				failed++
				cmd.PrintErrf("  %s: %v\n", f.Path, err)
				continue
			}
			ingested++
			cmd.Printf("  %s -> %s (%d chunks)\n", f.Path, result.DocumentID, result.ChunksCount)
		}
	}

	cmd.Printf("Ingested %d document(s)", ingested)
	if failed > 0 {
		cmd.Printf(", %d failed", failed)
	}
	cmd.Println()
	if ingested == 0 && failed > 0 {
		return errors.New("no documents ingested")
	}
	return nil
}

func ingestStdin(cmd *cobra.Command) error {
	if ingestID == "" {
		return errors.New("--id is required when reading from stdin")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return fmt.Errorf("reading stdin: %w", err)
	}
	result, err := ingestionService.IngestDocument(cmd.Context(), domain.IngestRequest{
		DocumentID: ingestID,
		OwnerID:    ingestOwner,
		Text:       string(data),
		ChunkSize:  ingestChunkSize,
		Overlap:    overlapFlag(cmd),
	})
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}
	cmd.Printf("Ingested %s (%d chunks)\n", result.DocumentID, result.ChunksCount)
	return nil
}

// ingestPath ingests one file. Plain text honours the chunk flags; other
// formats go through the normalisers.
func ingestPath(cmd *cobra.Command, id, owner, path string) (*domain.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	overlap := overlapFlag(cmd)
	if isPlainText(path) && (ingestChunkSize != 0 || overlap != nil) {
		return ingestionService.IngestDocument(cmd.Context(), domain.IngestRequest{
			DocumentID: id,
			OwnerID:    owner,
			Text:       string(content),
			ChunkSize:  ingestChunkSize,
			Overlap:    overlap,
		})
	}
	return ingestionService.IngestFile(cmd.Context(),
		fileRequest(filesystem.File{Path: path, DocumentID: id}, owner, content))
}

// overlapFlag returns the --overlap value, or nil when it was not given.
func overlapFlag(cmd *cobra.Command) *int {
	if !cmd.Flags().Changed("overlap") {
		return nil
	}
	overlap := ingestOverlap
	return &overlap
}

func fileRequest(f filesystem.File, owner string, content []byte) domain.FileIngestRequest {
	return domain.FileIngestRequest{
		DocumentID: f.DocumentID,
		OwnerID:    owner,
		Filename:   filepath.Base(f.Path),
		Content:    content,
	}
}

func runDelete(cmd *cobra.Command, args []string) error {
	if ingestionService == nil {
		return errors.New("ingestion service not configured")
	}
	for _, id := range args {
		if err := ingestionService.DeleteDocument(cmd.Context(), id, deleteOwner); err != nil {
			return fmt.Errorf("delete %s: %w", id, err)
		}
		cmd.Printf("Deleted %s\n", id)
	}
	return nil
}

func isPlainText(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".text", ".log", ".csv", ".tsv":
		return true
	default:
		return false
	}
}
