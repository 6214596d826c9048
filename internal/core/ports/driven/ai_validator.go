package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// AIConfigValidator tries provider settings against the live service
// before they are saved. Settings that name no provider pass.
type AIConfigValidator interface {
	ValidateEmbedding(cfg *domain.EmbeddingSettings) error
	ValidateLLM(cfg *domain.LLMSettings) error
}
