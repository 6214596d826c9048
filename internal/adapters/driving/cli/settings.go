package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/docrag/internal/core/domain"
	coreservices "github.com/custodia-labs/docrag/internal/core/services"
)

var settingsAnnotations = map[string]string{annotationBootstrap: bootstrapSettings}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure AI providers, storage backends, chunking and retrieval.

Use subcommands to configure providers interactively or set single keys.`,
	Annotations: settingsAnnotations,
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: settingsAnnotations,
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a single setting",
	Long: `Set a single setting by its dot-notation key.

Available keys:
  ` + strings.Join(coreservices.SettableKeys(), "\n  "),
	Args:        cobra.ExactArgs(2),
	Annotations: settingsAnnotations,
	RunE:        runSettingsSet,
}

var settingsSetKeyCmd = &cobra.Command{
	Use:   "set-key <embedding|llm|vector_store>",
	Short: "Store an API key without echoing it",
	Long: `Prompts for an API key and stores it for the embedding provider, the
LLM provider or Qdrant Cloud. Environment variables take precedence over
stored keys.`,
	Args:        cobra.ExactArgs(1),
	ValidArgs:   []string{"embedding", "llm", "vector_store"},
	Annotations: settingsAnnotations,
	RunE:        runSettingsSetKey,
}

var settingsEmbeddingCmd = &cobra.Command{
	Use:         "embedding",
	Short:       "Configure embedding provider",
	Long:        `Configure the provider used to embed document chunks and questions.`,
	Annotations: settingsAnnotations,
	RunE:        runSettingsEmbedding,
}

var settingsLLMCmd = &cobra.Command{
	Use:         "llm",
	Short:       "Configure LLM provider",
	Long:        `Configure the provider used to write answers and generated documents.`,
	Annotations: settingsAnnotations,
	RunE:        runSettingsLLM,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsSetKeyCmd)
	settingsCmd.AddCommand(settingsEmbeddingCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	if settings.Embedding.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", displayKey(settings.Embedding.APIKey))
	}
	cmd.Printf("  Status: %s\n", configuredStatus(settings.Embedding.IsConfigured()))
	cmd.Println()

	cmd.Println("[LLM]")
	cmd.Printf("  Provider: %s\n", settings.LLM.Provider.Description())
	cmd.Printf("  Model: %s\n", settings.LLM.Model)
	if settings.LLM.Provider == domain.AIProviderOllama {
		cmd.Printf("  Base URL: %s\n", settings.LLM.BaseURL)
	}
	if settings.LLM.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", displayKey(settings.LLM.APIKey))
	}
	cmd.Printf("  Temperature: %.2f\n", settings.LLM.Temperature)
	cmd.Printf("  Max tokens: %d\n", settings.LLM.MaxTokens)
	cmd.Printf("  Status: %s\n", configuredStatus(settings.LLM.IsConfigured()))
	cmd.Println()

	cmd.Println("[Vector Store]")
	cmd.Printf("  Backend: %s\n", settings.VectorStore.Backend)
	if settings.VectorStore.URL != "" {
		cmd.Printf("  URL: %s\n", settings.VectorStore.URL)
	}
	if settings.VectorStore.Backend == domain.VectorBackendQdrant {
		cmd.Printf("  API Key: %s\n", displayKey(settings.VectorStore.APIKey))
	}
	cmd.Printf("  Collection: %s\n", settings.VectorStore.Collection)
	cmd.Printf("  Dimensions: %d\n", settings.VectorStore.Dimensions)
	cmd.Println()

	cmd.Println("[Conversation]")
	cmd.Printf("  Backend: %s\n", settings.Conversation.Backend)
	if settings.Conversation.Backend == domain.StoreBackendPostgres {
		dsn := "(not set)"
		if settings.Conversation.DSN != "" {
			dsn = "(set)"
		}
		cmd.Printf("  DSN: %s\n", dsn)
	}
	cmd.Printf("  History turns: %d\n", settings.Conversation.HistoryTurns)
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Chunk size: %d\n", settings.Chunking.ChunkSize)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Retrieval]")
	cmd.Printf("  Top K: %d\n", settings.Retrieval.TopK)
	cmd.Printf("  Threshold: %.2f\n", settings.Retrieval.Threshold)
	cmd.Println()

	cmd.Println("[Ingestion]")
	cmd.Printf("  Batch size: %d\n", settings.Ingestion.BatchSize)
	cmd.Printf("  Concurrency: %d\n", settings.Ingestion.Concurrency)
	if settings.Ingestion.RatePerSecond > 0 {
		cmd.Printf("  Rate limit: %.1f/s\n", settings.Ingestion.RatePerSecond)
	} else {
		cmd.Println("  Rate limit: none")
	}
	cmd.Println()

	if !settings.Embedding.IsConfigured() {
		cmd.Println("Warning: embedding provider is not configured.")
		cmd.Println("Run 'docrag settings embedding' to configure it.")
	}
	if !settings.LLM.IsConfigured() {
		cmd.Println("Warning: LLM provider is not configured; questions cannot be answered.")
		cmd.Println("Run 'docrag settings llm' to configure it.")
	}

	return nil
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.SetValue(args[0], args[1]); err != nil {
		return err
	}
	value := args[1]
	if strings.HasSuffix(args[0], ".api_key") || strings.HasSuffix(args[0], ".dsn") {
		value = maskAPIKey(value)
	}
	cmd.Printf("%s = %s\n", args[0], value)
	return nil
}

func runSettingsSetKey(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	target := args[0]
	switch target {
	case "embedding", "llm", "vector_store":
	default:
		return fmt.Errorf("%w: unknown key target %q", domain.ErrInvalidInput, target)
	}

	cmd.Printf("Enter %s API key: ", target)
	key := readSecret(cmd.InOrStdin(), bufio.NewReader(cmd.InOrStdin()))
	cmd.Println()
	if key == "" {
		return errors.New("API key is required")
	}

	if err := settingsService.SetValue(target+".api_key", key); err != nil {
		return err
	}
	cmd.Printf("Stored %s API key %s\n", target, maskAPIKey(key))
	return nil
}

func runSettingsEmbedding(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	return configureEmbeddingProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

func runSettingsLLM(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	return configureLLMProvider(cmd, bufio.NewReader(cmd.InOrStdin()))
}

// providerChoice is the answer to the provider prompt sequence.
type providerChoice struct {
	provider domain.AIProvider
	model    string
	apiKey   string
}

// promptProvider asks for a provider, a model and, when needed, an API key.
func promptProvider(
	cmd *cobra.Command,
	reader *bufio.Reader,
	title string,
	providers []domain.AIProvider,
	defaults map[domain.AIProvider]string,
) providerChoice {
	cmd.Println(title)
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	choice := providerChoice{provider: providers[idx-1]}

	defaultModel := defaults[choice.provider]
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	choice.model = readLine(reader)
	if choice.model == "" {
		choice.model = defaultModel
	}

	if choice.provider.RequiresAPIKey() {
		cmd.Print("Enter API key: ")
		choice.apiKey = readSecret(cmd.InOrStdin(), reader)
		cmd.Println()
	}
	return choice
}

func configureEmbeddingProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	choice := promptProvider(cmd, reader, "Select Embedding Provider",
		domain.AllEmbeddingProviders(), domain.DefaultEmbeddingModels())

	if err := settingsService.SetEmbeddingProvider(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure embedding provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("embedding configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("Embedding provider configured: %s (%s)\n", choice.provider.Description(), choice.model)
	if dims, ok := domain.EmbeddingDimensions()[choice.model]; ok {
		cmd.Printf("Vectors have %d dimensions; existing collections built with another model must be re-ingested.\n", dims)
	}
	return nil
}

func configureLLMProvider(cmd *cobra.Command, reader *bufio.Reader) error {
	choice := promptProvider(cmd, reader, "Select LLM Provider",
		domain.AllLLMProviders(), domain.DefaultLLMModels())

	if err := settingsService.SetLLMProvider(choice.provider, choice.model, choice.apiKey); err != nil {
		return fmt.Errorf("failed to configure LLM provider: %w", err)
	}

	cmd.Print("Validating configuration... ")
	if err := settingsService.ValidateLLMConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return fmt.Errorf("LLM configuration validation failed: %w", err)
	}
	cmd.Println("OK")

	cmd.Printf("LLM provider configured: %s (%s)\n", choice.provider.Description(), choice.model)
	return nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

// readSecret reads without echo when in is a terminal, otherwise a line
// from reader.
func readSecret(in io.Reader, reader *bufio.Reader) string {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return strings.TrimSpace(string(password))
		}
	}
	return readLine(reader)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func configuredStatus(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}
