package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docrag/internal/adapters/driving/cli"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/services"
)

func configure(t *testing.T, configDir string, values map[string]string) {
	t.Helper()
	store, err := file.NewConfigStore(configDir)
	require.NoError(t, err)
	settings := services.NewSettingsService(store, nil)
	for k, v := range values {
		require.NoError(t, settings.SetValue(k, v))
	}
}

func TestBootstrap_SettingsOnly(t *testing.T) {
	s, err := bootstrap(context.Background(), cli.Options{ConfigDir: t.TempDir(), SettingsOnly: true})
	require.NoError(t, err)

	assert.NotNil(t, s.Settings)
	assert.Nil(t, s.RAG)
	assert.Nil(t, s.Ingestion)
	assert.Nil(t, s.Close)
}

func TestBootstrap_MemoryBackends(t *testing.T) {
	configDir := t.TempDir()
	configure(t, configDir, map[string]string{
		"vector_store.backend": "memory",
		"conversation.backend": "memory",
		"retrieval.threshold":  "0",
	})

	ctx := context.Background()
	s, err := bootstrap(ctx, cli.Options{ConfigDir: configDir, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer func() { assert.NoError(t, s.Close()) }()

	result, err := s.Ingestion.IngestDocument(ctx, domain.IngestRequest{
		DocumentID: "invoice-7",
		OwnerID:    "acme",
		Text:       "Invoice 7 totals 120 EUR including tax.",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ChunksCount)

	assert.NoError(t, s.Checks["vector_store"](ctx))
	assert.NoError(t, s.Checks["embedding"](ctx))
	assert.ErrorIs(t, s.Checks["llm"](ctx), domain.ErrLLMUnavailable)

	// No LLM is configured, so generation fails with a retryable error.
	_, err = s.RAG.RunQuery(ctx, domain.QueryInput{
		Query:             "What does invoice 7 total?",
		OwnerID:           "acme",
		UseSemanticSearch: true,
	})
	assert.ErrorIs(t, err, domain.ErrGenerationFailed)
	assert.Equal(t, 10, s.HistoryTurns)
}

func TestBootstrap_SQLiteDefault(t *testing.T) {
	dataDir := t.TempDir()

	s, err := bootstrap(context.Background(), cli.Options{ConfigDir: t.TempDir(), DataDir: dataDir})
	require.NoError(t, err)

	assert.NoError(t, s.Checks["vector_store"](context.Background()))
	_, err = os.Stat(filepath.Join(dataDir, "docrag.db"))
	assert.NoError(t, err)
	assert.NoError(t, s.Close())
}

func TestBootstrap_UnavailableVectorStoreDegrades(t *testing.T) {
	configDir := t.TempDir()
	configure(t, configDir, map[string]string{
		"vector_store.backend": "pgvector",
		"vector_store.url":     "",
		"conversation.backend": "memory",
	})

	s, err := bootstrap(context.Background(), cli.Options{ConfigDir: configDir, DataDir: t.TempDir()})
	require.NoError(t, err)
	defer s.Close()

	assert.ErrorIs(t, s.Checks["vector_store"](context.Background()), domain.ErrVectorStoreUnavailable)
}

func TestResources_CloseInReverse(t *testing.T) {
	var order []int
	res := &resources{}
	for i := 1; i <= 3; i++ {
		res.onClose(func() error {
			order = append(order, i)
			if i == 2 {
				return errors.New("close 2")
			}
			return nil
		})
	}

	err := res.Close()

	assert.EqualError(t, err, "close 2")
	assert.Equal(t, []int{3, 2, 1}, order)
	assert.NoError(t, res.Close())
}

func TestResources_SQLiteOpenedOnce(t *testing.T) {
	res := &resources{dataDir: t.TempDir()}
	defer res.Close()

	a, err := res.openSQLite()
	require.NoError(t, err)
	b, err := res.openSQLite()
	require.NoError(t, err)

	assert.Same(t, a, b)
	assert.Len(t, res.closers, 1)
}

func TestVectorFactory_UnknownBackend(t *testing.T) {
	res := &resources{}

	_, err := res.vectorFactory(domain.VectorStoreSettings{Backend: "faiss"})(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestConversationStore_FallsBackToMemory(t *testing.T) {
	res := &resources{}

	store := res.conversationStore(context.Background(), domain.ConversationSettings{
		Backend: domain.StoreBackendPostgres,
	})
	require.NotNil(t, store)

	ctx := context.Background()
	require.NoError(t, store.AppendTurns(ctx, domain.ConversationTurn{
		ID: "1", SessionID: "s", Role: domain.RoleUser, Content: "hi",
	}))
	turns, err := store.ListTurns(ctx, "s", 0)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}
