// Package cli implements the docrag command line interface on cobra.
package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/docrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// version is set by Execute.
var version = "dev"

// Global flags.
var (
	verbose   bool
	configDir string
	dataDir   string
)

// Options carries the global flags into a Bootstrap.
type Options struct {
	ConfigDir string
	DataDir   string
	// SettingsOnly asks for the settings service alone, so a broken
	// backend configuration can still be repaired.
	SettingsOnly bool
}

// Services bundles the driving ports the commands use.
type Services struct {
	RAG          driving.RAGService
	Ingestion    driving.IngestionService
	Conversation driving.ConversationService
	Settings     driving.SettingsService

	// HistoryTurns is how many prior turns a session feeds back as context.
	HistoryTurns int
	// Checks back the HTTP health endpoint.
	Checks map[string]httpapi.HealthCheck
	// Close releases stores and clients. May be nil.
	Close func() error
}

// Bootstrap builds the services from the global flags.
type Bootstrap func(ctx context.Context, opts Options) (*Services, error)

// Package-level service handles, populated before a command runs.
var (
	bootstrap           Bootstrap
	services            *Services
	ragService          driving.RAGService
	ingestionService    driving.IngestionService
	conversationService driving.ConversationService
	settingsService     driving.SettingsService
)

// Annotation keys controlling bootstrap per command.
const (
	annotationBootstrap = "bootstrap"
	bootstrapNone       = "none"
	bootstrapSettings   = "settings"
)

var rootCmd = &cobra.Command{
	Use:   "docrag",
	Short: "Ask questions over your business documents",
	Long: `docrag answers questions from the documents you ingest.

Documents are chunked, embedded and stored per owner. Questions retrieve the
most similar chunks, an LLM writes a grounded answer, and when you ask for a
report, document or spreadsheet the answer is rendered as PDF, DOCX or XLSX.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.docrag)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory (default ~/.docrag/data)")
}

// SetBootstrap sets the function that builds services before a command runs.
func SetBootstrap(b Bootstrap) {
	bootstrap = b
}

// SetServices installs already built services. Commands run after this
// skip the bootstrap.
func SetServices(s *Services) {
	services = s
	if s == nil {
		ragService, ingestionService, conversationService, settingsService = nil, nil, nil, nil
		return
	}
	ragService = s.RAG
	ingestionService = s.Ingestion
	conversationService = s.Conversation
	settingsService = s.Settings
}

// Execute runs the root command.
func Execute(v string) error {
	if v != "" {
		version = v
	}
	return rootCmd.Execute()
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	loadEnv()

	mode := cmd.Annotations[annotationBootstrap]
	if mode == bootstrapNone || services != nil || bootstrap == nil {
		return nil
	}

	s, err := bootstrap(cmd.Context(), Options{
		ConfigDir:    configDir,
		DataDir:      dataDir,
		SettingsOnly: mode == bootstrapSettings,
	})
	if err != nil {
		return err
	}
	SetServices(s)
	return nil
}

func teardown(_ *cobra.Command, _ []string) error {
	if services == nil || services.Close == nil || bootstrap == nil {
		return nil
	}
	err := services.Close()
	SetServices(nil)
	return err
}

// loadEnv loads .env from the working directory, then from the config
// directory. Variables already set are never overridden.
func loadEnv() {
	files := []string{".env"}
	dir := configDir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".docrag")
		}
	}
	if dir != "" {
		files = append(files, filepath.Join(dir, ".env"))
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Loading %s: %v", f, err)
		}
	}
}
