package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure LazyEmbedder implements the interface.
var _ driven.EmbeddingService = (*LazyEmbedder)(nil)

// EmbedderFactory constructs the underlying embedding service.
type EmbedderFactory func(ctx context.Context) (driven.EmbeddingService, error)

// LazyEmbedder is the process-wide embedding handle. The backend is built
// on first use; concurrent first callers wait for a single construction.
// A failed construction is not remembered, so the next call retries.
type LazyEmbedder struct {
	factory EmbedderFactory

	mu      sync.Mutex
	service driven.EmbeddingService
}

// NewLazyEmbedder creates a lazy handle around factory.
func NewLazyEmbedder(factory EmbedderFactory) *LazyEmbedder {
	return &LazyEmbedder{factory: factory}
}

// get returns the backend, constructing it if needed.
func (e *LazyEmbedder) get(ctx context.Context) (driven.EmbeddingService, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.service != nil {
		return e.service, nil
	}
	if e.factory == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	svc, err := e.factory(ctx)
	if err != nil {
		logger.Warn("Embedding backend init failed: %v", err)
		return nil, fmt.Errorf("%w: init: %w", domain.ErrEmbeddingUnavailable, err)
	}
	if svc == nil {
		return nil, fmt.Errorf("%w: factory returned no service", domain.ErrEmbeddingUnavailable)
	}
	logger.Debug("Embedding backend ready: %s (%d dims)", svc.ModelName(), svc.Dimensions())
	e.service = svc
	return svc, nil
}

// Embed returns the embedding of text. Blank text fails with
// domain.ErrEmptyInput before the backend is touched.
func (e *LazyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if domain.IsBlank(text) {
		return nil, domain.ErrEmptyInput
	}
	svc, err := e.get(ctx)
	if err != nil {
		return nil, err
	}
	vec, err := svc.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return vec, nil
}

// EmbedBatch embeds every text. Any blank text fails the whole batch.
func (e *LazyEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	for i, text := range texts {
		if domain.IsBlank(text) {
			return nil, fmt.Errorf("text %d: %w", i, domain.ErrEmptyInput)
		}
	}
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	svc, err := e.get(ctx)
	if err != nil {
		return nil, err
	}
	vecs, err := svc.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return vecs, nil
}

// Dimensions returns the backend's vector size, or 0 when it cannot be built.
func (e *LazyEmbedder) Dimensions() int {
	svc, err := e.get(context.Background())
	if err != nil {
		return 0
	}
	return svc.Dimensions()
}

// ModelName returns the backend's model name, or "" when it cannot be built.
func (e *LazyEmbedder) ModelName() string {
	svc, err := e.get(context.Background())
	if err != nil {
		return ""
	}
	return svc.ModelName()
}

// Ping builds the backend if needed and checks it is reachable.
func (e *LazyEmbedder) Ping(ctx context.Context) error {
	svc, err := e.get(ctx)
	if err != nil {
		return err
	}
	if err := svc.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	return nil
}

// Close releases the backend if one was built.
func (e *LazyEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.service == nil {
		return nil
	}
	err := e.service.Close()
	e.service = nil
	return err
}

// Reset drops the built backend so the next call constructs a new one.
func (e *LazyEmbedder) Reset() {
	_ = e.Close()
}
