package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docrag/internal/adapters/driven/ai"
	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driven/render/docx"
	"github.com/custodia-labs/docrag/internal/adapters/driven/render/pdf"
	"github.com/custodia-labs/docrag/internal/adapters/driven/render/xlsx"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/docrag/internal/adapters/driven/vectorstore/qdrant"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/services"
	"github.com/custodia-labs/docrag/internal/logger"
	"github.com/custodia-labs/docrag/internal/normalisers"
	"github.com/custodia-labs/docrag/internal/postprocessors"
)

// resources opens each backing store at most once and closes them in
// reverse order.
type resources struct {
	dataDir string

	sqlite   *sqlite.Store
	postgres map[string]*postgres.Store
	closers  []func() error
}

func (r *resources) onClose(fn func() error) {
	r.closers = append(r.closers, fn)
}

func (r *resources) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *resources) openSQLite() (*sqlite.Store, error) {
	if r.sqlite != nil {
		return r.sqlite, nil
	}
	store, err := sqlite.NewStore(r.dataDir)
	if err != nil {
		return nil, err
	}
	r.sqlite = store
	r.onClose(store.Close)
	return store, nil
}

// openPostgres shares one pool per DSN between the vector and
// conversation stores.
func (r *resources) openPostgres(ctx context.Context, dsn string) (*postgres.Store, error) {
	if store, ok := r.postgres[dsn]; ok {
		return store, nil
	}
	store, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if r.postgres == nil {
		r.postgres = make(map[string]*postgres.Store)
	}
	r.postgres[dsn] = store
	r.onClose(store.Close)
	return store, nil
}

// vectorFactory returns the constructor for the configured backend.
func (r *resources) vectorFactory(cfg domain.VectorStoreSettings) vectorstore.Factory {
	return func(ctx context.Context) (driven.VectorStore, error) {
		switch cfg.Backend {
		case domain.VectorBackendMemory:
			return memory.NewVectorStore(), nil
		case domain.VectorBackendSQLite:
			store, err := r.openSQLite()
			if err != nil {
				return nil, err
			}
			return store.VectorStore(), nil
		case domain.VectorBackendQdrant:
			return qdrant.New(qdrant.Config{
				URL:        cfg.URL,
				APIKey:     cfg.APIKey,
				Collection: cfg.Collection,
				Dimensions: cfg.Dimensions,
			})
		case domain.VectorBackendPgvector:
			store, err := r.openPostgres(ctx, cfg.URL)
			if err != nil {
				return nil, err
			}
			return store.VectorStore(cfg.Collection, cfg.Dimensions)
		default:
			return nil, fmt.Errorf("%w: unknown vector store backend %q", domain.ErrInvalidInput, cfg.Backend)
		}
	}
}

// conversationStore opens the configured store. A store that cannot be
// opened falls back to memory so questions can still be answered.
func (r *resources) conversationStore(ctx context.Context, cfg domain.ConversationSettings) driven.ConversationStore {
	var (
		store driven.ConversationStore
		err   error
	)
	switch cfg.Backend {
	case domain.StoreBackendMemory:
		return memory.NewConversationStore()
	case domain.StoreBackendPostgres:
		var pg *postgres.Store
		if pg, err = r.openPostgres(ctx, cfg.DSN); err == nil {
			store = pg.ConversationStore()
		}
	default:
		var sq *sqlite.Store
		if sq, err = r.openSQLite(); err == nil {
			store = sq.ConversationStore()
		}
	}
	if err != nil {
		logger.Warn("Conversation store unavailable, history is kept in memory: %v", err)
		return memory.NewConversationStore()
	}
	return store
}

// defaultConfigDir returns ~/.docrag, or "" to let each store choose.
func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".docrag")
}

// bootstrap builds every service from the stored settings.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = defaultConfigDir()
	}
	dataDir := opts.DataDir
	if dataDir == "" && configDir != "" {
		dataDir = filepath.Join(configDir, "data")
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())
	if opts.SettingsOnly {
		return &cli.Services{Settings: settingsService}, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}

	res := &resources{dataDir: dataDir}

	vectors := vectorstore.NewDegraded(ctx, res.vectorFactory(settings.VectorStore))
	res.onClose(vectors.Close)

	conversations := res.conversationStore(ctx, settings.Conversation)

	embedder := services.NewLazyEmbedder(ai.EmbedderFactory(settings.Embedding))
	res.onClose(embedder.Close)

	llm := ai.InitLLM(ctx, &settings.LLM, false)
	for _, w := range llm.Warnings {
		logger.Warn("%s", w)
	}
	res.onClose(func() error {
		llm.Close()
		return nil
	})

	generator := services.NewResponseGenerator(llm.LLMService, driven.ChatOptions{
		MaxTokens:   settings.LLM.MaxTokens,
		Temperature: settings.LLM.Temperature,
	})
	promptDir := ""
	if configDir != "" {
		promptDir = filepath.Join(configDir, "prompts")
	}
	if prompts, err := file.NewPromptStore(promptDir); err == nil {
		generator.SetPromptStore(prompts)
	} else {
		logger.Warn("Custom prompts unavailable, using defaults: %v", err)
	}

	materializer := services.NewMaterializer([]driven.DocumentRenderer{pdf.New(), docx.New(), xlsx.New()})

	pipeline := services.NewPipeline(embedder, vectors, generator,
		services.WithRetrieval(settings.Retrieval.TopK, settings.Retrieval.Threshold),
		services.WithMaterializer(materializer),
		services.WithConversationStore(conversations),
	)

	normaliserRegistry := normalisers.NewRegistry()
	normalisers.RegisterDefaults(normaliserRegistry)
	processorRegistry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(processorRegistry)

	ingestion := services.NewIngestionService(embedder, vectors, processorRegistry.ChunkPipeline,
		services.WithChunkDefaults(settings.Chunking.ChunkSize, settings.Chunking.Overlap),
		services.WithBatchSize(settings.Ingestion.BatchSize),
		services.WithConcurrency(settings.Ingestion.Concurrency),
		services.WithRateLimit(settings.Ingestion.RatePerSecond),
		services.WithNormalisers(normaliserRegistry),
	)

	return &cli.Services{
		RAG:          pipeline,
		Ingestion:    ingestion,
		Conversation: services.NewConversationService(conversations),
		Settings:     settingsService,
		HistoryTurns: settings.Conversation.HistoryTurns,
		Checks: map[string]httpapi.HealthCheck{
			"vector_store": vectors.EnsureReady,
			"embedding":    embedder.Ping,
			"llm": func(ctx context.Context) error {
				if llm.LLMService == nil {
					return domain.ErrLLMUnavailable
				}
				return llm.LLMService.Ping(ctx)
			},
		},
		Close: res.Close,
	}, nil
}
