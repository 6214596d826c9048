package services

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyEmbedProvider    = "embedding.provider"
	keyEmbedModel       = "embedding.model"
	keyEmbedBaseURL     = "embedding.base_url"
	keyEmbedAPIKey      = "embedding.api_key"
	keyLLMProvider      = "llm.provider"
	keyLLMModel         = "llm.model"
	keyLLMBaseURL       = "llm.base_url"
	keyLLMAPIKey        = "llm.api_key"
	keyLLMTemperature   = "llm.temperature"
	keyLLMMaxTokens     = "llm.max_tokens"
	keyVectorBackend    = "vector_store.backend"
	keyVectorURL        = "vector_store.url"
	keyVectorAPIKey     = "vector_store.api_key"
	keyVectorCollection = "vector_store.collection"
	keyVectorDims       = "vector_store.dimensions"
	keyConvBackend      = "conversation.backend"
	keyConvDSN          = "conversation.dsn"
	keyConvHistory      = "conversation.history_turns"
	keyChunkSize        = "chunking.chunk_size"
	keyChunkOverlap     = "chunking.overlap"
	keyTopK             = "retrieval.top_k"
	keyThreshold        = "retrieval.threshold"
	keyBatchSize        = "ingestion.batch_size"
	keyConcurrency      = "ingestion.concurrency"
	keyRatePerSecond    = "ingestion.rate_per_second"
)

// Environment variables that override stored secrets.
//
//nolint:gosec // G101: These are variable names, not actual credentials.
const (
	EnvOpenAIAPIKey    = "DOCRAG_OPENAI_API_KEY"
	EnvAnthropicAPIKey = "DOCRAG_ANTHROPIC_API_KEY"
	EnvQdrantAPIKey    = "DOCRAG_QDRANT_API_KEY"
	EnvPostgresDSN     = "DOCRAG_POSTGRES_DSN"
)

type valueKind int

const (
	kindString valueKind = iota
	kindInt
	kindFloat
	kindEmbedProvider
	kindLLMProvider
	kindVectorBackend
	kindStoreBackend
)

// settableKeys lists every key SetValue accepts.
var settableKeys = map[string]valueKind{
	keyEmbedProvider:    kindEmbedProvider,
	keyEmbedModel:       kindString,
	keyEmbedBaseURL:     kindString,
	keyEmbedAPIKey:      kindString,
	keyLLMProvider:      kindLLMProvider,
	keyLLMModel:         kindString,
	keyLLMBaseURL:       kindString,
	keyLLMAPIKey:        kindString,
	keyLLMTemperature:   kindFloat,
	keyLLMMaxTokens:     kindInt,
	keyVectorBackend:    kindVectorBackend,
	keyVectorURL:        kindString,
	keyVectorAPIKey:     kindString,
	keyVectorCollection: kindString,
	keyVectorDims:       kindInt,
	keyConvBackend:      kindStoreBackend,
	keyConvDSN:          kindString,
	keyConvHistory:      kindInt,
	keyChunkSize:        kindInt,
	keyChunkOverlap:     kindInt,
	keyTopK:             kindInt,
	keyThreshold:        kindFloat,
	keyBatchSize:        kindInt,
	keyConcurrency:      kindInt,
	keyRatePerSecond:    kindFloat,
}

// SettableKeys returns the keys accepted by SetValue, sorted.
func SettableKeys() []string {
	keys := make([]string, 0, len(settableKeys))
	for k := range settableKeys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// Secrets from the environment take precedence over stored values.
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment lookup.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider: embedProvider,
			Model:    s.getString(keyEmbedModel, domain.DefaultEmbeddingModels()[embedProvider]),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			APIKey:   s.configStore.GetString(keyEmbedAPIKey),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL),
			APIKey:      s.configStore.GetString(keyLLMAPIKey),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
		},
		VectorStore: domain.VectorStoreSettings{
			Backend:    s.getVectorBackend(defaults.VectorStore.Backend),
			URL:        s.configStore.GetString(keyVectorURL),
			APIKey:     s.configStore.GetString(keyVectorAPIKey),
			Collection: s.getString(keyVectorCollection, defaults.VectorStore.Collection),
			Dimensions: s.getInt(keyVectorDims, defaults.VectorStore.Dimensions),
		},
		Conversation: domain.ConversationSettings{
			Backend:      s.getStoreBackend(defaults.Conversation.Backend),
			DSN:          s.configStore.GetString(keyConvDSN),
			HistoryTurns: s.getInt(keyConvHistory, defaults.Conversation.HistoryTurns),
		},
		Chunking: domain.ChunkingSettings{
			ChunkSize: s.getInt(keyChunkSize, defaults.Chunking.ChunkSize),
			Overlap:   s.getInt(keyChunkOverlap, defaults.Chunking.Overlap),
		},
		Retrieval: domain.RetrievalSettings{
			TopK:      s.getInt(keyTopK, defaults.Retrieval.TopK),
			Threshold: s.getFloat(keyThreshold, defaults.Retrieval.Threshold),
		},
		Ingestion: domain.IngestionSettings{
			BatchSize:     s.getInt(keyBatchSize, defaults.Ingestion.BatchSize),
			Concurrency:   s.getInt(keyConcurrency, defaults.Ingestion.Concurrency),
			RatePerSecond: s.getFloat(keyRatePerSecond, defaults.Ingestion.RatePerSecond),
		},
	}

	s.applyEnv(settings)
	return settings, nil
}

// applyEnv overrides secrets and connection strings from the environment.
func (s *SettingsService) applyEnv(settings *domain.AppSettings) {
	if s.lookupEnv == nil {
		return
	}
	env := func(name string) (string, bool) {
		v, ok := s.lookupEnv(name)
		return v, ok && v != ""
	}

	if key, ok := env(EnvOpenAIAPIKey); ok {
		if settings.Embedding.Provider == domain.AIProviderOpenAI {
			settings.Embedding.APIKey = key
		}
		if settings.LLM.Provider == domain.AIProviderOpenAI {
			settings.LLM.APIKey = key
		}
	}
	if key, ok := env(EnvAnthropicAPIKey); ok && settings.LLM.Provider == domain.AIProviderAnthropic {
		settings.LLM.APIKey = key
	}
	if key, ok := env(EnvQdrantAPIKey); ok && settings.VectorStore.Backend == domain.VectorBackendQdrant {
		settings.VectorStore.APIKey = key
	}
	if dsn, ok := env(EnvPostgresDSN); ok {
		if settings.VectorStore.Backend == domain.VectorBackendPgvector {
			settings.VectorStore.URL = dsn
		}
		if settings.Conversation.Backend == domain.StoreBackendPostgres {
			settings.Conversation.DSN = dsn
		}
	}
}

// Save persists application settings. Empty secrets are not written so
// that keys supplied through the environment are never copied to disk
// as blanks.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
	}{
		{keyEmbedProvider, settings.Embedding.Provider.String()},
		{keyEmbedModel, settings.Embedding.Model},
		{keyEmbedBaseURL, settings.Embedding.BaseURL},
		{keyLLMProvider, settings.LLM.Provider.String()},
		{keyLLMModel, settings.LLM.Model},
		{keyLLMBaseURL, settings.LLM.BaseURL},
		{keyLLMTemperature, settings.LLM.Temperature},
		{keyLLMMaxTokens, settings.LLM.MaxTokens},
		{keyVectorBackend, settings.VectorStore.Backend.String()},
		{keyVectorURL, settings.VectorStore.URL},
		{keyVectorCollection, settings.VectorStore.Collection},
		{keyVectorDims, settings.VectorStore.Dimensions},
		{keyConvBackend, string(settings.Conversation.Backend)},
		{keyConvHistory, settings.Conversation.HistoryTurns},
		{keyChunkSize, settings.Chunking.ChunkSize},
		{keyChunkOverlap, settings.Chunking.Overlap},
		{keyTopK, settings.Retrieval.TopK},
		{keyThreshold, settings.Retrieval.Threshold},
		{keyBatchSize, settings.Ingestion.BatchSize},
		{keyConcurrency, settings.Ingestion.Concurrency},
		{keyRatePerSecond, settings.Ingestion.RatePerSecond},
	}
	for _, v := range values {
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	secrets := []struct{ key, value string }{
		{keyEmbedAPIKey, settings.Embedding.APIKey},
		{keyLLMAPIKey, settings.LLM.APIKey},
		{keyVectorAPIKey, settings.VectorStore.APIKey},
		{keyConvDSN, settings.Conversation.DSN},
	}
	for _, v := range secrets {
		if v.value == "" {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}

	return nil
}

// SetEmbeddingProvider configures the embedding provider.
func (s *SettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid embedding provider: %s", provider)
	}
	if !supports(domain.AllEmbeddingProviders(), provider) {
		return fmt.Errorf("provider %s does not support embeddings", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.Embedding.Provider = provider
	if model != "" {
		settings.Embedding.Model = model
	} else {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[provider]
	}

	switch provider {
	case domain.AIProviderOllama:
		if settings.Embedding.BaseURL == "" {
			settings.Embedding.BaseURL = "http://localhost:11434"
		}
	default:
		settings.Embedding.BaseURL = ""
	}
	settings.Embedding.APIKey = apiKey

	// The collection must be created with the model's vector size.
	if d, ok := domain.EmbeddingDimensions()[settings.Embedding.Model]; ok {
		settings.VectorStore.Dimensions = d
	}

	return s.Save(settings)
}

// SetLLMProvider configures the LLM provider.
func (s *SettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	if !provider.IsValid() {
		return fmt.Errorf("invalid LLM provider: %s", provider)
	}
	if !supports(domain.AllLLMProviders(), provider) {
		return fmt.Errorf("provider %s does not support chat", provider)
	}
	if provider.RequiresAPIKey() && apiKey == "" {
		return fmt.Errorf("API key required for %s", provider)
	}

	settings, err := s.Get()
	if err != nil {
		return err
	}

	settings.LLM.Provider = provider
	if model != "" {
		settings.LLM.Model = model
	} else {
		settings.LLM.Model = domain.DefaultLLMModels()[provider]
	}

	if provider.IsLocal() {
		if settings.LLM.BaseURL == "" {
			settings.LLM.BaseURL = "http://localhost:11434"
		}
	} else {
		settings.LLM.BaseURL = ""
	}
	settings.LLM.APIKey = apiKey

	return s.Save(settings)
}

// SetValue parses and stores a single key.
func (s *SettingsService) SetValue(key, value string) error {
	kind, ok := settableKeys[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	value = strings.TrimSpace(value)

	var parsed any
	switch kind {
	case kindString:
		parsed = value
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s must be a non-negative integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case kindEmbedProvider:
		p := domain.AIProvider(value)
		if !supports(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("%w: %s is not an embedding provider", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindLLMProvider:
		if !supports(domain.AllLLMProviders(), domain.AIProvider(value)) {
			return fmt.Errorf("%w: %s is not an LLM provider", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindVectorBackend:
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown vector store backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	case kindStoreBackend:
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: unknown conversation backend %q", domain.ErrInvalidInput, value)
		}
		parsed = value
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig validates the current embedding configuration by pinging the provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig validates the current LLM configuration by pinging the provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getInt honours an explicitly stored zero.
func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

// getFloat honours an explicitly stored zero.
func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	provider := domain.AIProvider(s.configStore.GetString(key))
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getVectorBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	backend := domain.VectorBackend(s.configStore.GetString(keyVectorBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func (s *SettingsService) getStoreBackend(defaultVal domain.StoreBackend) domain.StoreBackend {
	backend := domain.StoreBackend(s.configStore.GetString(keyConvBackend))
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}

func supports(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}
