package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Ensure Pipeline implements the interface.
var _ driving.RAGService = (*Pipeline)(nil)

// Stage names, in run order.
const (
	stageRetrieveContext  = "RetrieveContext"
	stageGenerateResponse = "GenerateResponse"
	stageGenerateDocument = "GenerateDocument"
	stageSaveConversation = "SaveConversation"
)

// pipelineState accumulates stage outputs for one run.
type pipelineState struct {
	input     domain.QueryInput
	context   string
	retrieved domain.RetrievedContext
	response  string
	document  *domain.GeneratedDocument
}

// stageResult is what a stage hands back to the run loop. update is merged
// into the state; degraded is logged and the run continues; fatal aborts.
type stageResult struct {
	update   func(*pipelineState)
	degraded error
	fatal    error
}

type stage struct {
	name string
	run  func(ctx context.Context, state pipelineState) stageResult
}

// Pipeline answers a query by running retrieval, generation,
// materialisation and persistence strictly in order.
type Pipeline struct {
	embedder      driven.EmbeddingService
	store         driven.VectorStore
	generator     *ResponseGenerator
	materializer  *Materializer
	conversations driven.ConversationStore

	topK      int
	threshold float64
	now       func() time.Time
	stages    []stage
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithRetrieval sets the default top-K and similarity threshold.
// Non-positive top-K and negative thresholds are ignored.
func WithRetrieval(topK int, threshold float64) PipelineOption {
	return func(p *Pipeline) {
		if topK > 0 {
			p.topK = topK
		}
		if threshold >= 0 {
			p.threshold = threshold
		}
	}
}

// WithMaterializer enables file generation for document-like responses.
func WithMaterializer(m *Materializer) PipelineOption {
	return func(p *Pipeline) {
		p.materializer = m
	}
}

// WithConversationStore enables conversation persistence.
func WithConversationStore(store driven.ConversationStore) PipelineOption {
	return func(p *Pipeline) {
		p.conversations = store
	}
}

// WithPipelineClock sets the time source for turn timestamps.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *Pipeline) {
		p.now = now
	}
}

// NewPipeline creates a pipeline. embedder and store may be nil, in which
// case semantic retrieval degrades to conversation context only.
func NewPipeline(
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	generator *ResponseGenerator,
	opts ...PipelineOption,
) *Pipeline {
	p := &Pipeline{
		embedder:  embedder,
		store:     store,
		generator: generator,
		topK:      domain.DefaultTopK,
		threshold: domain.DefaultSimilarityThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.stages = []stage{
		{name: stageRetrieveContext, run: p.retrieveContext},
		{name: stageGenerateResponse, run: p.generateResponse},
		{name: stageGenerateDocument, run: p.generateDocument},
		{name: stageSaveConversation, run: p.saveConversation},
	}
	return p
}

// RunQuery runs every stage in order and returns the final result.
// Only a failed response generation, or a failed retrieval when
// RequireSemantic is set, is returned as an error.
func (p *Pipeline) RunQuery(ctx context.Context, input domain.QueryInput) (*domain.QueryResult, error) {
	if domain.IsBlank(input.Query) {
		return nil, fmt.Errorf("query: %w", domain.ErrEmptyInput)
	}

	logger.Section("RAG Query")
	logger.Debug("Owner: %q, session: %q, semantic: %t", input.OwnerID, input.SessionID, input.UseSemanticSearch)

	state := pipelineState{input: input}
	for _, s := range p.stages {
		start := time.Now()
		res := s.run(ctx, state)
		if res.fatal != nil {
			logger.Error("%s failed: %v", s.name, res.fatal)
			return nil, res.fatal
		}
		if res.degraded != nil {
			logger.Warn("%s degraded: %v", s.name, res.degraded)
		}
		if res.update != nil {
			res.update(&state)
		}
		logger.Debug("%s done in %s", s.name, time.Since(start))
	}

	refs := state.retrieved.DocumentIDs()
	return &domain.QueryResult{
		Response:            state.response,
		ReferencedDocuments: refs,
		DocumentFile:        state.document,
	}, nil
}

func (p *Pipeline) retrieveContext(ctx context.Context, state pipelineState) stageResult {
	in := state.input
	fallback := AssembleContext(nil, in.ConversationContext)
	withFallback := func(err error) stageResult {
		if in.RequireSemantic {
			return stageResult{fatal: err}
		}
		return stageResult{
			update:   func(s *pipelineState) { s.context = fallback },
			degraded: err,
		}
	}

	if !in.UseSemanticSearch {
		return stageResult{update: func(s *pipelineState) { s.context = fallback }}
	}
	if p.embedder == nil {
		return withFallback(domain.ErrEmbeddingUnavailable)
	}
	if p.store == nil {
		return withFallback(domain.ErrVectorStoreUnavailable)
	}

	queryVec, err := p.embedder.Embed(ctx, in.Query)
	if err != nil {
		return withFallback(fmt.Errorf("embed query: %w", err))
	}

	topK, threshold := p.topK, p.threshold
	if in.TopK > 0 {
		topK = in.TopK
	}
	if in.Threshold != nil {
		threshold = *in.Threshold
	}

	filter := driven.VectorFilter{OwnerID: in.OwnerID, DocumentIDs: in.DocumentIDs}
	hits, err := p.store.Search(ctx, queryVec, filter, topK)
	if err != nil {
		if !errors.Is(err, domain.ErrVectorStoreUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrVectorStoreUnavailable, err)
		}
		return withFallback(fmt.Errorf("search: %w", err))
	}

	ranked := Rank(queryVec, hits, topK, threshold)
	retrieved := domain.RetrievedContext{Chunks: make([]domain.RetrievedChunk, 0, len(ranked))}
	for _, hit := range ranked {
		// Backends enforce the filter; this guards against one that does not.
		if !filter.Allows(hit.DocumentID) {
			continue
		}
		retrieved.Chunks = append(retrieved.Chunks, domain.RetrievedChunk{
			ChunkID:    hit.ChunkID,
			DocumentID: hit.DocumentID,
			Text:       hit.Text,
			Index:      hit.Index,
			Score:      hit.Score,
		})
	}
	logger.Debug("Retrieved %d of %d candidates (top-K %d, threshold %.2f)", len(retrieved.Chunks), len(hits), topK, threshold)

	assembled := AssembleContext(retrieved.Texts(), in.ConversationContext)
	return stageResult{update: func(s *pipelineState) {
		s.context = assembled
		s.retrieved = retrieved
	}}
}

func (p *Pipeline) generateResponse(ctx context.Context, state pipelineState) stageResult {
	if p.generator == nil {
		return stageResult{fatal: fmt.Errorf("%w: %w", domain.ErrGenerationFailed, domain.ErrLLMUnavailable)}
	}
	text, err := p.generator.Generate(ctx, state.input.Query, state.context)
	if err != nil {
		return stageResult{fatal: err}
	}
	return stageResult{update: func(s *pipelineState) { s.response = text }}
}

func (p *Pipeline) generateDocument(ctx context.Context, state pipelineState) stageResult {
	if p.materializer == nil {
		return stageResult{}
	}
	doc, err := p.materializer.MaybeGenerate(ctx, state.response)
	if err != nil {
		return stageResult{degraded: err}
	}
	return stageResult{update: func(s *pipelineState) { s.document = doc }}
}

func (p *Pipeline) saveConversation(ctx context.Context, state pipelineState) stageResult {
	if p.conversations == nil || state.input.SessionID == "" {
		return stageResult{}
	}
	// An abandoned request leaves no partial history.
	if err := ctx.Err(); err != nil {
		return stageResult{degraded: fmt.Errorf("%w: %w", domain.ErrPersistence, err)}
	}

	now := p.now().UTC()
	refs := state.retrieved.DocumentIDs()
	turns := []domain.ConversationTurn{
		{
			ID:             uuid.NewString(),
			SessionID:      state.input.SessionID,
			Role:           domain.RoleUser,
			Content:        state.input.Query,
			ReferencedDocs: []string{},
			CreatedAt:      now,
		},
		{
			ID:             uuid.NewString(),
			SessionID:      state.input.SessionID,
			Role:           domain.RoleAssistant,
			Content:        state.response,
			ReferencedDocs: refs,
			CreatedAt:      now.Add(time.Millisecond),
		},
	}
	if err := p.conversations.AppendTurns(ctx, turns...); err != nil {
		return stageResult{degraded: fmt.Errorf("%w: %w", domain.ErrPersistence, err)}
	}
	return stageResult{}
}
