package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// VectorStore stores chunk embeddings and answers similarity queries.
// Every read and delete is scoped to an owner; owner and document ids are
// always passed as bound parameters, never spliced into query text.
type VectorStore interface {
	// EnsureReady creates the collection or table if needed. It is
	// idempotent and adapters call it before every operation.
	EnsureReady(ctx context.Context) error

	// Upsert writes chunks with their embeddings. Writing a chunk id that
	// already exists replaces it.
	Upsert(ctx context.Context, ownerID string, chunks []domain.Chunk) error

	// Search returns up to topK chunks by descending cosine similarity.
	Search(ctx context.Context, query []float32, filter VectorFilter, topK int) ([]VectorHit, error)

	// DeleteByDocument removes every chunk of the owner's document.
	DeleteByDocument(ctx context.Context, ownerID, documentID string) error

	// TrimDocument removes the owner's chunks of documentID whose index is
	// keep or higher.
	TrimDocument(ctx context.Context, ownerID, documentID string, keep int) error

	// Close releases resources.
	Close() error
}

// VectorFilter scopes a search.
type VectorFilter struct {
	// OwnerID is required; hits never cross owners.
	OwnerID string

	// DocumentIDs optionally restricts hits to these documents.
	DocumentIDs []string
}

// Allows reports whether documentID passes the document allowlist.
func (f VectorFilter) Allows(documentID string) bool {
	if len(f.DocumentIDs) == 0 {
		return true
	}
	for _, id := range f.DocumentIDs {
		if id == documentID {
			return true
		}
	}
	return false
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	ChunkID    string
	DocumentID string
	Text       string
	Index      int

	// Score is the cosine similarity.
	Score float64

	// Embedding is populated by backends that return stored vectors.
	Embedding []float32
}
