package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// defaultOwner is the owner id used when --owner is not given.
const defaultOwner = "local"

var (
	askOwner           string
	askSession         string
	askDocuments       []string
	askNoSemantic      bool
	askRequireSemantic bool
	askTopK            int
	askThreshold       float64
	askJSON            bool
	askYAML            bool
	askOutputDir       string
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question about your documents",
	Long: `Retrieves the chunks most similar to the question, answers from them and,
when the question asks for a report, document or spreadsheet, renders the
answer as a PDF, DOCX or XLSX file.

Examples:
  docrag ask "What is the total of invoice 7?"
  docrag ask --doc invoice-7 --doc invoice-8 "Compare the two invoices"
  docrag ask --save-to ./out "Create a spreadsheet of this quarter's expenses"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askOwner, "owner", defaultOwner, "owner whose documents are searched")
	askCmd.Flags().StringVarP(&askSession, "session", "s", "", "conversation id; turns are saved under it")
	askCmd.Flags().StringSliceVarP(&askDocuments, "doc", "d", nil, "restrict retrieval to these document ids")
	askCmd.Flags().BoolVar(&askNoSemantic, "no-semantic", false, "skip retrieval and answer without document context")
	askCmd.Flags().BoolVar(&askRequireSemantic, "require-semantic", false, "fail instead of answering without context")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "maximum context chunks (0 = configured default)")
	askCmd.Flags().Float64Var(&askThreshold, "threshold", 0, "minimum similarity (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the result as JSON")
	askCmd.Flags().BoolVar(&askYAML, "yaml", false, "output the result as YAML")
	askCmd.Flags().StringVar(&askOutputDir, "save-to", "", "directory to write a generated file to")
	askCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if ragService == nil {
		return errors.New("rag service not configured")
	}

	input := domain.QueryInput{
		Query:             strings.Join(args, " "),
		OwnerID:           askOwner,
		SessionID:         askSession,
		UseSemanticSearch: !askNoSemantic,
		RequireSemantic:   askRequireSemantic,
		DocumentIDs:       askDocuments,
		TopK:              askTopK,
	}
	if cmd.Flags().Changed("threshold") {
		threshold := askThreshold
		input.Threshold = &threshold
	}
	input.ConversationContext = sessionContext(cmd, askSession)

	result, err := ragService.RunQuery(cmd.Context(), input)
	if err != nil {
		if errors.Is(err, domain.ErrGenerationFailed) {
			logger.Debug("Generation failed: %v", err)
			return errors.New(domain.UserMessage(err))
		}
		return fmt.Errorf("ask failed: %w", err)
	}

	var savedPath string
	if askOutputDir != "" && result.DocumentFile != nil {
		savedPath, err = saveDocumentFile(askOutputDir, result.DocumentFile)
		if err != nil {
			return err
		}
		logger.Info("Saved %s", savedPath)
	}

	switch {
	case askJSON:
		return outputJSON(cmd, result)
	case askYAML:
		return outputYAML(cmd, result)
	}
	printResult(cmd, result)
	if savedPath != "" {
		cmd.Printf("Saved %s\n", savedPath)
	}
	return nil
}

// sessionContext renders the session's recent turns, or "" when there is
// no session or history cannot be read.
func sessionContext(cmd *cobra.Command, sessionID string) string {
	if sessionID == "" || conversationService == nil || services == nil || services.HistoryTurns <= 0 {
		return ""
	}
	history, err := conversationService.BuildContext(cmd.Context(), sessionID, services.HistoryTurns)
	if err != nil {
		logger.Warn("Loading history for session %s: %v", sessionID, err)
		return ""
	}
	return history
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputYAML(cmd *cobra.Command, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}
	cmd.Print(string(data))
	return nil
}

func printResult(cmd *cobra.Command, result *domain.QueryResult) {
	heading := color.New(color.FgCyan, color.Bold).SprintFunc()
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, result.Response)
	if len(result.ReferencedDocuments) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, heading("Sources:"))
		for i, id := range result.ReferencedDocuments {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, id)
		}
	}
	if f := result.DocumentFile; f != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "%s %s (%s, %d bytes)\n", heading("Generated:"), f.Name, f.MIMEType, f.Size)
	}
}

// saveDocumentFile decodes the data URI of f into dir.
func saveDocumentFile(dir string, f *domain.GeneratedDocument) (string, error) {
	data, err := f.Decode()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating %s: %w", dir, err)
	}
	path := filepath.Join(dir, filepath.Base(f.Name))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
