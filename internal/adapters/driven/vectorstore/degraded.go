// Package vectorstore holds vector store wiring shared by every backend.
package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Degraded implements the interface.
var _ driven.VectorStore = (*Degraded)(nil)

// Factory constructs a vector store backend.
type Factory func(ctx context.Context) (driven.VectorStore, error)

// Degraded wraps a backend that may be unavailable. When construction or
// the readiness check fails at startup, every operation reports
// domain.ErrVectorStoreUnavailable instead of failing the process.
type Degraded struct {
	backend driven.VectorStore
	cause   error
}

// NewDegraded builds the backend and checks it is ready. It never fails.
func NewDegraded(ctx context.Context, factory Factory) *Degraded {
	if factory == nil {
		return &Degraded{cause: errors.New("no vector store configured")}
	}

	backend, err := factory(ctx)
	if err != nil {
		logger.Warn("Vector store unavailable, semantic search disabled: %v", err)
		return &Degraded{cause: err}
	}
	if err := backend.EnsureReady(ctx); err != nil {
		logger.Warn("Vector store not ready, semantic search disabled: %v", err)
		_ = backend.Close()
		return &Degraded{cause: err}
	}
	return &Degraded{backend: backend}
}

func (d *Degraded) unavailable() error {
	return fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, d.cause)
}

// EnsureReady delegates to the backend.
func (d *Degraded) EnsureReady(ctx context.Context) error {
	if d.backend == nil {
		return d.unavailable()
	}
	return d.backend.EnsureReady(ctx)
}

// Upsert delegates to the backend.
func (d *Degraded) Upsert(ctx context.Context, ownerID string, chunks []domain.Chunk) error {
	if d.backend == nil {
		return d.unavailable()
	}
	return d.backend.Upsert(ctx, ownerID, chunks)
}

// Search delegates to the backend.
func (d *Degraded) Search(ctx context.Context, query []float32, filter driven.VectorFilter, topK int) ([]driven.VectorHit, error) {
	if d.backend == nil {
		return nil, d.unavailable()
	}
	return d.backend.Search(ctx, query, filter, topK)
}

// DeleteByDocument delegates to the backend.
func (d *Degraded) DeleteByDocument(ctx context.Context, ownerID, documentID string) error {
	if d.backend == nil {
		return d.unavailable()
	}
	return d.backend.DeleteByDocument(ctx, ownerID, documentID)
}

// TrimDocument delegates to the backend.
func (d *Degraded) TrimDocument(ctx context.Context, ownerID, documentID string, keep int) error {
	if d.backend == nil {
		return d.unavailable()
	}
	return d.backend.TrimDocument(ctx, ownerID, documentID, keep)
}

// Close closes the backend if there is one.
func (d *Degraded) Close() error {
	if d.backend == nil {
		return nil
	}
	return d.backend.Close()
}
