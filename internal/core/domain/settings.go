package domain

const unknownDescription = "Unknown"

// Retrieval, generation and ingestion defaults.
const (
	// DefaultSimilarityThreshold is the minimum cosine score a chunk needs
	// to be used as context.
	DefaultSimilarityThreshold = 0.5

	// DefaultTopK caps the number of chunks used as context.
	DefaultTopK = 5

	// DefaultChunkSize is the maximum chunk length in characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the number of trailing words carried into the
	// next chunk.
	DefaultChunkOverlap = 200

	// DefaultBatchSize is the number of chunks written per vector store call.
	DefaultBatchSize = 64

	// DefaultEmbedConcurrency bounds in-flight embedding calls per batch.
	DefaultEmbedConcurrency = 3

	// DefaultTemperature is the sampling temperature for responses.
	DefaultTemperature = 0.7

	// DefaultMaxTokens caps the response length.
	DefaultMaxTokens = 2000

	// HashingDimensions is the vector size of the built-in hashing embedder.
	HashingDimensions = 384

	// DefaultCollection is the vector store collection or table name.
	DefaultCollection = "document_chunks"
)

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// VectorBackend identifies a vector store implementation.
type VectorBackend string

// Available vector store backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendSQLite   VectorBackend = "sqlite"
	VectorBackendQdrant   VectorBackend = "qdrant"
	VectorBackendPgvector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendQdrant, VectorBackendPgvector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// StoreBackend identifies a conversation store implementation.
type StoreBackend string

// Available conversation store backends.
const (
	StoreBackendMemory   StoreBackend = "memory"
	StoreBackendSQLite   StoreBackend = "sqlite"
	StoreBackendPostgres StoreBackend = "postgres"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendMemory, StoreBackendSQLite, StoreBackendPostgres:
		return true
	default:
		return false
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI/Anthropic).
	APIKey string

	// Temperature is the sampling temperature.
	Temperature float64

	// MaxTokens caps the completion length.
	MaxTokens int
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorStoreSettings holds vector store configuration.
type VectorStoreSettings struct {
	// Backend selects the store implementation.
	Backend VectorBackend

	// URL is host:port for Qdrant or a DSN for pgvector.
	URL string

	// APIKey authenticates against Qdrant Cloud.
	APIKey string

	// Collection is the collection or table name.
	Collection string

	// Dimensions is the embedding vector size the collection is created with.
	Dimensions int
}

// ConversationSettings holds conversation store configuration.
type ConversationSettings struct {
	// Backend selects the store implementation.
	Backend StoreBackend

	// DSN is the Postgres connection string.
	DSN string

	// HistoryTurns is how many prior turns the CLI feeds back as context.
	HistoryTurns int
}

// ChunkingSettings holds chunker configuration.
type ChunkingSettings struct {
	ChunkSize int
	Overlap   int
}

// RetrievalSettings holds ranking configuration.
type RetrievalSettings struct {
	TopK      int
	Threshold float64
}

// IngestionSettings holds batching and throttling configuration.
type IngestionSettings struct {
	// BatchSize is the number of chunks upserted per call.
	BatchSize int

	// Concurrency bounds in-flight embedding calls.
	Concurrency int

	// RatePerSecond throttles embedding calls. Zero disables throttling.
	RatePerSecond float64
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding    EmbeddingSettings
	LLM          LLMSettings
	VectorStore  VectorStoreSettings
	Conversation ConversationSettings
	Chunking     ChunkingSettings
	Retrieval    RetrievalSettings
	Ingestion    IngestionSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Embeddings work offline out of the box; the LLM is left unconfigured
// and must be set up explicitly.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider: AIProviderHashing,
		},
		LLM: LLMSettings{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		VectorStore: VectorStoreSettings{
			Backend:    VectorBackendSQLite,
			Collection: DefaultCollection,
			Dimensions: HashingDimensions,
		},
		Conversation: ConversationSettings{
			Backend:      StoreBackendSQLite,
			HistoryTurns: 10,
		},
		Chunking: ChunkingSettings{
			ChunkSize: DefaultChunkSize,
			Overlap:   DefaultChunkOverlap,
		},
		Retrieval: RetrievalSettings{
			TopK:      DefaultTopK,
			Threshold: DefaultSimilarityThreshold,
		},
		Ingestion: IngestionSettings{
			BatchSize:   DefaultBatchSize,
			Concurrency: DefaultEmbedConcurrency,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "feature-hash-384",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"feature-hash-384": HashingDimensions,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config for extensibility - new processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration as generic maps.
	// Key is processor name, value is processor-specific config.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": DefaultChunkSize,
				"overlap":    DefaultChunkOverlap,
			},
		},
	}
}
