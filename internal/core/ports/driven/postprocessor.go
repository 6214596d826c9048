package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// PostProcessor is one stage of the chunking pipeline. The first stage
// receives nil chunks and splits doc.Content; later stages receive the
// previous stage's output and may rewrite, drop or annotate chunks.
type PostProcessor interface {
	Name() string
	Process(ctx context.Context, doc *domain.Document, chunks []domain.Chunk) ([]domain.Chunk, error)
}

// PostProcessorPipeline turns a normalised document into the chunks that
// get embedded.
type PostProcessorPipeline interface {
	Process(ctx context.Context, doc *domain.Document) ([]domain.Chunk, error)
}
