package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// ChunkPipelineBuilder builds the chunking pipeline for one request.
type ChunkPipelineBuilder func(chunkSize, overlap int) (driven.PostProcessorPipeline, error)

// IngestionService chunks, embeds and stores documents.
// Chunks are embedded with bounded concurrency and upserted one batch at
// a time, so peak memory is bounded by the batch size.
type IngestionService struct {
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	chunkers    ChunkPipelineBuilder
	normalisers driven.NormaliserRegistry

	chunkSize   int
	overlap     int
	batchSize   int
	concurrency int
	limiter     *rate.Limiter
	now         func() time.Time
}

// IngestionOption configures an IngestionService.
type IngestionOption func(*IngestionService)

// WithChunkDefaults sets the chunk size and overlap used when a request
// leaves them unset.
func WithChunkDefaults(chunkSize, overlap int) IngestionOption {
	return func(s *IngestionService) {
		if chunkSize > 0 {
			s.chunkSize = chunkSize
		}
		if overlap >= 0 {
			s.overlap = overlap
		}
	}
}

// WithBatchSize sets the number of chunks per vector store write.
func WithBatchSize(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithConcurrency bounds in-flight embedding calls.
func WithConcurrency(n int) IngestionOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithRateLimit throttles embedding calls to perSecond. Zero disables it.
func WithRateLimit(perSecond float64) IngestionOption {
	return func(s *IngestionService) {
		if perSecond > 0 {
			burst := int(perSecond)
			if burst < 1 {
				burst = 1
			}
			s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithNormalisers enables IngestFile.
func WithNormalisers(registry driven.NormaliserRegistry) IngestionOption {
	return func(s *IngestionService) {
		s.normalisers = registry
	}
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	chunkers ChunkPipelineBuilder,
	opts ...IngestionOption,
) *IngestionService {
	s := &IngestionService{
		embedder:    embedder,
		store:       store,
		chunkers:    chunkers,
		chunkSize:   domain.DefaultChunkSize,
		overlap:     domain.DefaultChunkOverlap,
		batchSize:   domain.DefaultBatchSize,
		concurrency: domain.DefaultEmbedConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IngestDocument replaces the stored chunks of a document with freshly
// embedded ones. New chunks overwrite old ones by id and leftovers past the
// new chunk count are trimmed last, so a failed re-ingest leaves the
// previous version searchable.
func (s *IngestionService) IngestDocument(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if err := validateIDs(req.DocumentID, req.OwnerID); err != nil {
		return nil, err
	}
	if domain.IsBlank(req.Text) {
		return nil, fmt.Errorf("document %s: %w", req.DocumentID, domain.ErrEmptyInput)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, domain.ErrVectorStoreUnavailable
	}
	if s.chunkers == nil {
		return nil, fmt.Errorf("%w: no chunker configured", domain.ErrInvalidInput)
	}

	chunkSize, overlap := s.chunkSize, s.overlap
	if req.ChunkSize > 0 {
		chunkSize = req.ChunkSize
	}
	if req.Overlap != nil {
		if *req.Overlap < 0 {
			return nil, fmt.Errorf("%w: overlap must not be negative", domain.ErrInvalidInput)
		}
		overlap = *req.Overlap
	}

	logger.Section("Ingest")
	logger.Debug("Document %s (owner %s): %d chars, chunk size %d, overlap %d",
		req.DocumentID, req.OwnerID, len(req.Text), chunkSize, overlap)

	pipeline, err := s.chunkers(chunkSize, overlap)
	if err != nil {
		return nil, fmt.Errorf("build chunker: %w", err)
	}
	doc := &domain.Document{
		ID:        req.DocumentID,
		OwnerID:   req.OwnerID,
		Content:   req.Text,
		CreatedAt: s.now(),
	}
	chunks, err := pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}

	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]
		if err := s.embedBatch(ctx, batch); err != nil {
			return nil, fmt.Errorf("embed chunks %d-%d: %w", start, end-1, err)
		}
		if err := s.store.Upsert(ctx, req.OwnerID, batch); err != nil {
			return nil, fmt.Errorf("store chunks %d-%d: %w", start, end-1, err)
		}
		logger.Debug("Stored batch %d-%d", start, end-1)
	}

	if err := s.store.TrimDocument(ctx, req.OwnerID, req.DocumentID, len(chunks)); err != nil {
		return nil, fmt.Errorf("remove stale chunks: %w", err)
	}

	logger.Info("Ingested %s: %d chunks", req.DocumentID, len(chunks))
	return &domain.IngestResult{DocumentID: req.DocumentID, ChunksCount: len(chunks)}, nil
}

// embedBatch fills in the embedding of every chunk. Results are written by
// index, so completion order does not affect chunk order.
func (s *IngestionService) embedBatch(ctx context.Context, batch []domain.Chunk) error {
	embeddings := make([][]float32, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range batch {
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			vec, err := s.embedder.Embed(gctx, batch[i].Text)
			if err != nil {
				return fmt.Errorf("chunk %s: %w", batch[i].ID, err)
			}
			embeddings[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	insertedAt := s.now()
	for i := range batch {
		batch[i].Embedding = embeddings[i]
		batch[i].InsertedAt = insertedAt
	}
	return nil
}

// IngestFile extracts text from an uploaded file and ingests it with the
// default chunk settings.
func (s *IngestionService) IngestFile(ctx context.Context, req domain.FileIngestRequest) (*domain.IngestResult, error) {
	if err := validateIDs(req.DocumentID, req.OwnerID); err != nil {
		return nil, err
	}
	if s.normalisers == nil {
		return nil, fmt.Errorf("%s: %w", req.Filename, domain.ErrUnsupportedType)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%s: %w", req.Filename, domain.ErrEmptyInput)
	}

	result, err := s.normalisers.Normalise(ctx, &domain.RawDocument{
		DocumentID: req.DocumentID,
		OwnerID:    req.OwnerID,
		URI:        req.Filename,
		MIMEType:   req.MIMEType,
		Content:    req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", req.Filename, err)
	}

	return s.IngestDocument(ctx, domain.IngestRequest{
		DocumentID: req.DocumentID,
		OwnerID:    req.OwnerID,
		Text:       result.Document.Content,
	})
}

// DeleteDocument removes every chunk of the owner's document.
func (s *IngestionService) DeleteDocument(ctx context.Context, documentID, ownerID string) error {
	if err := validateIDs(documentID, ownerID); err != nil {
		return err
	}
	if s.store == nil {
		return domain.ErrVectorStoreUnavailable
	}
	if err := s.store.DeleteByDocument(ctx, ownerID, documentID); err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	logger.Info("Deleted chunks of %s", documentID)
	return nil
}

func validateIDs(documentID, ownerID string) error {
	if strings.TrimSpace(documentID) == "" {
		return fmt.Errorf("%w: document id is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(ownerID) == "" {
		return fmt.Errorf("%w: owner id is required", domain.ErrInvalidInput)
	}
	return nil
}
