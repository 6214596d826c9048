package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// RAGService answers questions from the owner's documents.
type RAGService interface {
	// RunQuery runs retrieval, generation, materialisation and persistence
	// in order and returns the final result.
	RunQuery(ctx context.Context, input domain.QueryInput) (*domain.QueryResult, error)
}
