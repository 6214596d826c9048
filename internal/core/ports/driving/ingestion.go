package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// IngestionService adds documents to and removes them from the vector store.
type IngestionService interface {
	// IngestDocument chunks, embeds and stores text.
	IngestDocument(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// IngestFile extracts text from an uploaded file and ingests it.
	IngestFile(ctx context.Context, req domain.FileIngestRequest) (*domain.IngestResult, error)

	// DeleteDocument removes every chunk of the owner's document.
	DeleteDocument(ctx context.Context, documentID, ownerID string) error
}
