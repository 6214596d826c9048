package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// probeText is embedded to check a provider end to end.
const probeText = "docrag configuration check"

// ConfigValidator checks provider settings before they are saved.
// Settings without a provider are accepted as-is.
type ConfigValidator struct {
	timeout time.Duration
}

// NewConfigValidator returns a validator using the default ping timeout.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{timeout: pingTimeout}
}

// WithTimeout bounds each provider round trip.
func (v *ConfigValidator) WithTimeout(d time.Duration) *ConfigValidator {
	if d > 0 {
		v.timeout = d
	}
	return v
}

// ValidateEmbedding embeds a probe string and checks that the vector
// has the width the service advertises. A mismatch would corrupt the
// vector store on the first ingest.
func (v *ConfigValidator) ValidateEmbedding(cfg *domain.EmbeddingSettings) error {
	if cfg == nil || !cfg.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	vec, err := svc.Embed(ctx, probeText)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrEmbeddingUnavailable, svc.ModelName(), err)
	}
	if want := svc.Dimensions(); want > 0 && len(vec) != want {
		return fmt.Errorf("%w: %s returned %d dimensions, expected %d",
			domain.ErrEmbeddingUnavailable, svc.ModelName(), len(vec), want)
	}
	return nil
}

// ValidateLLM pings the configured chat provider.
func (v *ConfigValidator) ValidateLLM(cfg *domain.LLMSettings) error {
	if cfg == nil || !cfg.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrLLMUnavailable, svc.ModelName(), err)
	}
	return nil
}
