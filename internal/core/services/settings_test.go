package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
)

func newSettings(seed map[string]any, env map[string]string) *SettingsService {
	svc := NewSettingsService(memory.NewConfigStore(seed), nil)
	svc.SetEnvLookup(func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	})
	return svc
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	settings, err := newSettings(nil, nil).Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, domain.AIProviderHashing, settings.Embedding.Provider)
	assert.Equal(t, "feature-hash-384", settings.Embedding.Model)
	assert.Equal(t, defaults.LLM.Temperature, settings.LLM.Temperature)
	assert.Equal(t, defaults.LLM.MaxTokens, settings.LLM.MaxTokens)
	assert.Equal(t, defaults.VectorStore, settings.VectorStore)
	assert.Equal(t, defaults.Chunking, settings.Chunking)
	assert.Equal(t, defaults.Retrieval, settings.Retrieval)
	assert.Equal(t, defaults.Ingestion, settings.Ingestion)
	assert.Equal(t, defaults.Conversation, settings.Conversation)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	settings, err := newSettings(map[string]any{
		"embedding.provider":        "ollama",
		"embedding.model":           "all-minilm",
		"llm.provider":              "anthropic",
		"llm.temperature":           0.0,
		"llm.max_tokens":            512,
		"vector_store.backend":      "qdrant",
		"vector_store.url":          "localhost:6334",
		"retrieval.top_k":           8,
		"retrieval.threshold":       0.3,
		"chunking.overlap":          0,
		"ingestion.batch_size":      int64(16),
		"conversation.backend":      "memory",
		"ingestion.concurrency":     2.0,
		"ingestion.rate_per_second": 5,
	}, nil).Get()
	require.NoError(t, err)

	assert.Equal(t, domain.AIProviderOllama, settings.Embedding.Provider)
	assert.Equal(t, "all-minilm", settings.Embedding.Model)
	assert.Equal(t, domain.AIProviderAnthropic, settings.LLM.Provider)
	assert.Zero(t, settings.LLM.Temperature, "an explicit zero is kept")
	assert.Equal(t, 512, settings.LLM.MaxTokens)
	assert.Equal(t, domain.VectorBackendQdrant, settings.VectorStore.Backend)
	assert.Equal(t, "localhost:6334", settings.VectorStore.URL)
	assert.Equal(t, 8, settings.Retrieval.TopK)
	assert.InDelta(t, 0.3, settings.Retrieval.Threshold, 1e-9)
	assert.Zero(t, settings.Chunking.Overlap)
	assert.Equal(t, 16, settings.Ingestion.BatchSize)
	assert.Equal(t, 2, settings.Ingestion.Concurrency)
	assert.InDelta(t, 5.0, settings.Ingestion.RatePerSecond, 1e-9)
	assert.Equal(t, domain.StoreBackendMemory, settings.Conversation.Backend)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	settings, err := newSettings(map[string]any{
		"embedding.provider":   "invalid_provider",
		"vector_store.backend": "faiss",
		"conversation.backend": "redis",
	}, nil).Get()
	require.NoError(t, err)

	defaults := domain.DefaultAppSettings()
	assert.Equal(t, defaults.Embedding.Provider, settings.Embedding.Provider)
	assert.Equal(t, defaults.VectorStore.Backend, settings.VectorStore.Backend)
	assert.Equal(t, defaults.Conversation.Backend, settings.Conversation.Backend)
}

func TestSettingsService_EnvOverrides(t *testing.T) {
	seed := map[string]any{
		"embedding.provider":   "openai",
		"embedding.api_key":    "sk-stored",
		"llm.provider":         "anthropic",
		"vector_store.backend": "pgvector",
		"conversation.backend": "postgres",
	}
	env := map[string]string{
		EnvOpenAIAPIKey:    "sk-env",
		EnvAnthropicAPIKey: "sk-ant-env",
		EnvQdrantAPIKey:    "qd-env",
		EnvPostgresDSN:     "postgres://u@db/docrag",
	}

	settings, err := newSettings(seed, env).Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", settings.Embedding.APIKey)
	assert.Equal(t, "sk-ant-env", settings.LLM.APIKey)
	assert.Empty(t, settings.VectorStore.APIKey, "qdrant key only applies to the qdrant backend")
	assert.Equal(t, "postgres://u@db/docrag", settings.VectorStore.URL)
	assert.Equal(t, "postgres://u@db/docrag", settings.Conversation.DSN)
}

func TestSettingsService_EnvIgnoredWhenEmpty(t *testing.T) {
	settings, err := newSettings(
		map[string]any{"embedding.provider": "openai", "embedding.api_key": "sk-stored"},
		map[string]string{EnvOpenAIAPIKey: ""},
	).Get()
	require.NoError(t, err)
	assert.Equal(t, "sk-stored", settings.Embedding.APIKey)
}

func TestSettingsService_SaveRoundTrip(t *testing.T) {
	svc := newSettings(nil, nil)
	settings := domain.DefaultAppSettings()
	settings.Embedding = domain.EmbeddingSettings{Provider: domain.AIProviderOpenAI, Model: "text-embedding-3-small", APIKey: "sk-test"}
	settings.LLM.Provider = domain.AIProviderOllama
	settings.LLM.Model = "llama3.2"
	settings.LLM.Temperature = 0.2
	settings.VectorStore.Backend = domain.VectorBackendQdrant
	settings.Retrieval.TopK = 3

	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, settings, *got)
}

func TestSettingsService_Save_SkipsEmptySecrets(t *testing.T) {
	store := memory.NewConfigStore()
	svc := NewSettingsService(store, nil)
	settings := domain.DefaultAppSettings()

	require.NoError(t, svc.Save(&settings))
	_, exists := store.Get("llm.api_key")
	assert.False(t, exists)
	_, exists = store.Get("conversation.dsn")
	assert.False(t, exists)
}

func TestSettingsService_SetEmbeddingProvider(t *testing.T) {
	svc := newSettings(nil, nil)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOllama, "", ""))
	settings, _ := svc.Get()
	assert.Equal(t, "nomic-embed-text", settings.Embedding.Model)
	assert.Equal(t, "http://localhost:11434", settings.Embedding.BaseURL)
	assert.Equal(t, 768, settings.VectorStore.Dimensions)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "text-embedding-3-large", "sk-1"))
	settings, _ = svc.Get()
	assert.Empty(t, settings.Embedding.BaseURL)
	assert.Equal(t, 3072, settings.VectorStore.Dimensions)
	assert.Equal(t, "sk-1", settings.Embedding.APIKey)

	require.NoError(t, svc.SetEmbeddingProvider(domain.AIProviderHashing, "", ""))
	settings, _ = svc.Get()
	assert.Equal(t, domain.HashingDimensions, settings.VectorStore.Dimensions)
}

func TestSettingsService_SetEmbeddingProvider_Errors(t *testing.T) {
	svc := newSettings(nil, nil)
	assert.Error(t, svc.SetEmbeddingProvider("invalid", "", ""))
	assert.Error(t, svc.SetEmbeddingProvider(domain.AIProviderAnthropic, "", "key"))
	assert.Error(t, svc.SetEmbeddingProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetLLMProvider(t *testing.T) {
	svc := newSettings(nil, nil)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderAnthropic, "", "sk-ant"))
	settings, _ := svc.Get()
	assert.Equal(t, "claude-3-5-sonnet-latest", settings.LLM.Model)
	assert.Empty(t, settings.LLM.BaseURL)

	require.NoError(t, svc.SetLLMProvider(domain.AIProviderOllama, "mistral", ""))
	settings, _ = svc.Get()
	assert.Equal(t, "mistral", settings.LLM.Model)
	assert.Equal(t, "http://localhost:11434", settings.LLM.BaseURL)

	assert.Error(t, svc.SetLLMProvider(domain.AIProviderHashing, "", ""))
	assert.Error(t, svc.SetLLMProvider(domain.AIProviderOpenAI, "", ""))
}

func TestSettingsService_SetValue(t *testing.T) {
	svc := newSettings(nil, nil)

	tests := []struct {
		key, value string
		ok         bool
	}{
		{"retrieval.top_k", "7", true},
		{"retrieval.threshold", "0.65", true},
		{"llm.temperature", "0", true},
		{"vector_store.backend", "pgvector", true},
		{"conversation.backend", "memory", true},
		{"embedding.provider", "ollama", true},
		{"llm.provider", "openai", true},
		{"llm.model", " gpt-4o ", true},
		{"retrieval.top_k", "seven", false},
		{"retrieval.top_k", "-1", false},
		{"retrieval.threshold", "high", false},
		{"vector_store.backend", "faiss", false},
		{"embedding.provider", "anthropic", false},
		{"llm.provider", "hashing", false},
		{"unknown.key", "1", false},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			err := svc.SetValue(tt.key, tt.value)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
			}
		})
	}

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, settings.Retrieval.TopK)
	assert.InDelta(t, 0.65, settings.Retrieval.Threshold, 1e-9)
	assert.Zero(t, settings.LLM.Temperature)
	assert.Equal(t, domain.VectorBackendPgvector, settings.VectorStore.Backend)
	assert.Equal(t, "gpt-4o", settings.LLM.Model)
}

func TestSettableKeys_Sorted(t *testing.T) {
	keys := SettableKeys()
	assert.Contains(t, keys, "llm.temperature")
	assert.IsIncreasing(t, keys)
}

type mockAIConfigValidator struct {
	embeddingErr error
	llmErr       error
}

func (m *mockAIConfigValidator) ValidateEmbedding(_ *domain.EmbeddingSettings) error {
	return m.embeddingErr
}

func (m *mockAIConfigValidator) ValidateLLM(_ *domain.LLMSettings) error {
	return m.llmErr
}

func TestSettingsService_Validate(t *testing.T) {
	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil).ValidateEmbeddingConfig())
	assert.NoError(t, NewSettingsService(memory.NewConfigStore(), nil).ValidateLLMConfig())

	boom := errors.New("unreachable")
	svc := NewSettingsService(memory.NewConfigStore(), &mockAIConfigValidator{embeddingErr: boom, llmErr: boom})
	assert.ErrorIs(t, svc.ValidateEmbeddingConfig(), boom)
	assert.ErrorIs(t, svc.ValidateLLMConfig(), boom)
}
