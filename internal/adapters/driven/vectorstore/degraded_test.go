package vectorstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

type notReadyStore struct {
	*memory.VectorStore
	closed bool
}

func (s *notReadyStore) EnsureReady(context.Context) error {
	return errors.New("collection missing")
}

func (s *notReadyStore) Close() error {
	s.closed = true
	return nil
}

func TestNewDegraded_Healthy(t *testing.T) {
	ctx := context.Background()
	d := NewDegraded(ctx, func(context.Context) (driven.VectorStore, error) {
		return memory.NewVectorStore(), nil
	})

	require.NotNil(t, d.backend)
	assert.NoError(t, d.cause)

	require.NoError(t, d.Upsert(ctx, "u1", []domain.Chunk{
		{ID: "doc#0", DocumentID: "doc", Text: "hello", Embedding: []float32{1, 0}},
	}))
	hits, err := d.Search(ctx, []float32{1, 0}, driven.VectorFilter{OwnerID: "u1"}, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)

	require.NoError(t, d.TrimDocument(ctx, "u1", "doc", 0))
	require.NoError(t, d.DeleteByDocument(ctx, "u1", "doc"))
	require.NoError(t, d.EnsureReady(ctx))
	require.NoError(t, d.Close())
}

func TestNewDegraded_FactoryFails(t *testing.T) {
	ctx := context.Background()
	d := NewDegraded(ctx, func(context.Context) (driven.VectorStore, error) {
		return nil, errors.New("dial tcp: connection refused")
	})

	assert.Nil(t, d.backend)
	require.Error(t, d.cause)

	_, err := d.Search(ctx, []float32{1}, driven.VectorFilter{OwnerID: "u1"}, 5)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")

	assert.ErrorIs(t, d.Upsert(ctx, "u1", nil), domain.ErrVectorStoreUnavailable)
	assert.ErrorIs(t, d.DeleteByDocument(ctx, "u1", "doc"), domain.ErrVectorStoreUnavailable)
	assert.ErrorIs(t, d.TrimDocument(ctx, "u1", "doc", 0), domain.ErrVectorStoreUnavailable)
	assert.ErrorIs(t, d.EnsureReady(ctx), domain.ErrVectorStoreUnavailable)
	assert.NoError(t, d.Close())
}

func TestNewDegraded_NotReady(t *testing.T) {
	backend := &notReadyStore{VectorStore: memory.NewVectorStore()}
	d := NewDegraded(context.Background(), func(context.Context) (driven.VectorStore, error) {
		return backend, nil
	})

	assert.ErrorIs(t, d.EnsureReady(context.Background()), domain.ErrVectorStoreUnavailable)
	assert.True(t, backend.closed)
}

func TestNewDegraded_NilFactory(t *testing.T) {
	d := NewDegraded(context.Background(), nil)
	assert.ErrorIs(t, d.EnsureReady(context.Background()), domain.ErrVectorStoreUnavailable)

	_, err := d.Search(context.Background(), nil, driven.VectorFilter{OwnerID: "u1"}, 1)
	assert.ErrorIs(t, err, domain.ErrVectorStoreUnavailable)
}
