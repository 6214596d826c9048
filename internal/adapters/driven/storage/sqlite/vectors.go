package sqlite

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore implements driven.VectorStore with a brute-force cosine scan
// over the owner's rows. Owner and document ids are bound parameters.
type VectorStore struct {
	store *Store
}

// EnsureReady is satisfied by the migrations run in NewStore.
func (s *VectorStore) EnsureReady(ctx context.Context) error {
	return s.store.db.PingContext(ctx)
}

// Upsert writes chunks in one transaction, replacing existing chunk ids.
func (s *VectorStore) Upsert(ctx context.Context, ownerID string, chunks []domain.Chunk) error {
	if ownerID == "" {
		return fmt.Errorf("upsert chunks: %w: owner id is required", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (owner_id, id, document_id, chunk_index, content, embedding, dimensions, inserted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(owner_id, id) DO UPDATE SET
			document_id = excluded.document_id,
			chunk_index = excluded.chunk_index,
			content = excluded.content,
			embedding = excluded.embedding,
			dimensions = excluded.dimensions,
			inserted_at = excluded.inserted_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, ownerID, c.ID, c.DocumentID, c.Index, c.Text,
			encodeVector(c.Embedding), len(c.Embedding), c.InsertedAt.UTC()); err != nil {
			return fmt.Errorf("saving chunk %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Search scores every chunk the filter admits that has the query's width
// and returns the best topK.
func (s *VectorStore) Search(
	ctx context.Context, query []float32, filter driven.VectorFilter, topK int,
) ([]driven.VectorHit, error) {
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("search chunks: %w: owner id is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return []driven.VectorHit{}, nil
	}

	q := "SELECT id, document_id, chunk_index, content, embedding FROM chunks WHERE owner_id = ? AND dimensions = ?"
	args := []any{filter.OwnerID, len(query)}
	if len(filter.DocumentIDs) > 0 {
		q += " AND document_id IN (?" + strings.Repeat(", ?", len(filter.DocumentIDs)-1) + ")"
		for _, id := range filter.DocumentIDs {
			args = append(args, id)
		}
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0)
	for rows.Next() {
		var (
			hit  driven.VectorHit
			blob []byte
		)
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Index, &hit.Text, &blob); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		hit.Embedding = decodeVector(blob)
		hit.Score = cosine(query, hit.Embedding)
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
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
func (s *VectorStore) DeleteByDocument(ctx context.Context, ownerID, documentID string) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("delete chunks: %w: owner and document id are required", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE owner_id = ? AND document_id = ?", ownerID, documentID)
	if err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// TrimDocument removes the owner's chunks of documentID from index keep on.
func (s *VectorStore) TrimDocument(ctx context.Context, ownerID, documentID string, keep int) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("trim chunks: %w: owner and document id are required", domain.ErrInvalidInput)
	}
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM chunks WHERE owner_id = ? AND document_id = ? AND chunk_index >= ?",
		ownerID, documentID, keep)
	if err != nil {
		return fmt.Errorf("trimming chunks: %w", err)
	}
	return nil
}

// Close is a no-op; the parent Store owns the connection.
func (s *VectorStore) Close() error {
	return nil
}

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
