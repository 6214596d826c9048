package memory

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore is a brute-force cosine store partitioned by owner.
type VectorStore struct {
	mu     sync.RWMutex
	owners map[string]map[string]domain.Chunk
}

// NewVectorStore creates an empty vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{owners: make(map[string]map[string]domain.Chunk)}
}

// EnsureReady is a no-op.
func (s *VectorStore) EnsureReady(context.Context) error { return nil }

// Upsert stores chunks under ownerID, replacing chunks with the same id.
func (s *VectorStore) Upsert(ctx context.Context, ownerID string, chunks []domain.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ownerID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owned, ok := s.owners[ownerID]
	if !ok {
		owned = make(map[string]domain.Chunk)
		s.owners[ownerID] = owned
	}
	for _, c := range chunks {
		c.OwnerID = ownerID
		c.Embedding = append([]float32(nil), c.Embedding...)
		owned[c.ID] = c
	}
	return nil
}

// Search scores every chunk of the filter's owner.
func (s *VectorStore) Search(ctx context.Context, query []float32, filter driven.VectorFilter, topK int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topK <= 0 {
		return []driven.VectorHit{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]driven.VectorHit, 0)
	for _, c := range s.owners[filter.OwnerID] {
		if !filter.Allows(c.DocumentID) {
			continue
		}
		hits = append(hits, driven.VectorHit{
			ChunkID:    c.ID,
			DocumentID: c.DocumentID,
			Text:       c.Text,
			Index:      c.Index,
			Score:      cosine(query, c.Embedding),
			Embedding:  c.Embedding,
		})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}
	return hits, nil
}

// DeleteByDocument removes the owner's chunks of documentID.
func (s *VectorStore) DeleteByDocument(_ context.Context, ownerID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.owners[ownerID] {
		if c.DocumentID == documentID {
			delete(s.owners[ownerID], id)
		}
	}
	return nil
}

// TrimDocument removes the owner's chunks of documentID from index keep on.
func (s *VectorStore) TrimDocument(_ context.Context, ownerID, documentID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.owners[ownerID] {
		if c.DocumentID == documentID && c.Index >= keep {
			delete(s.owners[ownerID], id)
		}
	}
	return nil
}

// Close is a no-op.
func (s *VectorStore) Close() error { return nil }

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
