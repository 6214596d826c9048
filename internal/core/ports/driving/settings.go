package driving

import "github.com/custodia-labs/docrag/internal/core/domain"

// SettingsService reads and changes the persisted configuration.
type SettingsService interface {
	// Get merges stored values over defaults and environment overrides.
	Get() (*domain.AppSettings, error)
	Save(settings *domain.AppSettings) error
	GetDefaults() domain.AppSettings

	// SetValue parses value for key and stores it. Unknown keys and
	// out-of-range values return domain.ErrInvalidInput.
	SetValue(key, value string) error

	// SetEmbeddingProvider and SetLLMProvider switch provider and model
	// together. Cloud providers require an API key.
	SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error
	SetLLMProvider(provider domain.AIProvider, model, apiKey string) error

	// ValidateEmbeddingConfig and ValidateLLMConfig contact the stored
	// providers and report whether they answer.
	ValidateEmbeddingConfig() error
	ValidateLLMConfig() error
}
