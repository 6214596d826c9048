// Package chunker splits document text into overlapping, bounded chunks
// on sentence boundaries.
package chunker

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.PostProcessor = (*Processor)(nil)

const (
	// DefaultChunkSize is in characters.
	DefaultChunkSize = domain.DefaultChunkSize
	// DefaultChunkOverlap is in words.
	DefaultChunkOverlap = domain.DefaultChunkOverlap
)

// Processor is the first stage of the ingestion pipeline. It discards any
// chunks it is given and cuts new ones from the document content.
type Processor struct {
	chunkSize int
	overlap   int
}

type Option func(*Processor)

// WithChunkSize ignores values below one.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap ignores negative values.
func WithOverlap(words int) Option {
	return func(p *Processor) {
		if words >= 0 {
			p.overlap = words
		}
	}
}

// New applies opts over the defaults. An overlap of half the chunk size or
// more is cut to a quarter: every word takes at least two characters with
// its separator, so carried words could otherwise fill the whole chunk.
func New(opts ...Option) *Processor {
	p := &Processor{chunkSize: DefaultChunkSize, overlap: DefaultChunkOverlap}
	for _, opt := range opts {
		opt(p)
	}
	if p.overlap >= p.chunkSize/2 {
		p.overlap = p.chunkSize / 4
	}
	return p
}

func (p *Processor) Name() string { return "chunker" }

func (p *Processor) ChunkSize() int { return p.chunkSize }

func (p *Processor) Overlap() int { return p.overlap }

// Process returns chunks with ids <document id>#<index>, so re-ingesting
// the same text yields the same ids.
func (p *Processor) Process(ctx context.Context, doc *domain.Document, _ []domain.Chunk) ([]domain.Chunk, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	texts := Split(doc.Content, p.chunkSize, p.overlap)
	if len(texts) == 0 {
		return nil, nil
	}

	chunks := make([]domain.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = domain.Chunk{
			ID:         domain.ChunkID(doc.ID, i),
			DocumentID: doc.ID,
			OwnerID:    doc.OwnerID,
			Text:       text,
			Index:      i,
		}
	}
	return chunks, nil
}
