package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore implements driven.VectorStore on a pgvector table.
type VectorStore struct {
	db         *sql.DB
	table      string // quoted
	indexName  string // quoted
	dimensions int

	mu    sync.Mutex
	ready bool
}

// EnsureReady creates the extension, table and index once.
func (s *VectorStore) EnsureReady(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			owner_id    TEXT NOT NULL,
			id          TEXT NOT NULL,
			document_id TEXT NOT NULL,
			chunk_index INTEGER NOT NULL DEFAULT 0,
			content     TEXT NOT NULL,
			embedding   vector(%d) NOT NULL,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (owner_id, id)
		)`, s.table, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (owner_id, document_id)`, s.indexName, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("pgvector: prepare schema: %w", err)
		}
	}

	s.ready = true
	return nil
}

// Upsert writes chunks in one transaction, replacing existing chunk ids.
func (s *VectorStore) Upsert(ctx context.Context, ownerID string, chunks []domain.Chunk) error {
	if ownerID == "" {
		return fmt.Errorf("pgvector upsert: %w: owner id is required", domain.ErrInvalidInput)
	}
	if len(chunks) == 0 {
		return nil
	}
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("pgvector upsert: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`
		INSERT INTO %s (owner_id, id, document_id, chunk_index, content, embedding, inserted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			chunk_index = EXCLUDED.chunk_index,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			inserted_at = EXCLUDED.inserted_at
	`, s.table))
	if err != nil {
		return fmt.Errorf("pgvector upsert: prepare: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		if _, err := stmt.ExecContext(ctx, ownerID, c.ID, c.DocumentID, c.Index, c.Text,
			pgvector.NewVector(c.Embedding), c.InsertedAt.UTC()); err != nil {
			return fmt.Errorf("pgvector upsert %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("pgvector upsert: commit: %w", err)
	}
	return nil
}

// Search orders the owner's chunks by cosine distance. The score is
// 1 - distance, i.e. cosine similarity.
func (s *VectorStore) Search(
	ctx context.Context, query []float32, filter driven.VectorFilter, topK int,
) ([]driven.VectorHit, error) {
	if filter.OwnerID == "" {
		return nil, fmt.Errorf("pgvector search: %w: owner id is required", domain.ErrInvalidInput)
	}
	if topK <= 0 {
		return []driven.VectorHit{}, nil
	}
	if err := s.EnsureReady(ctx); err != nil {
		return nil, err
	}

	docIDs := filter.DocumentIDs
	if docIDs == nil {
		docIDs = []string{}
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, document_id, chunk_index, content, embedding, 1 - (embedding <=> $1) AS score
		FROM %s
		WHERE owner_id = $2
		  AND (cardinality($3::text[]) = 0 OR document_id = ANY($3::text[]))
		ORDER BY embedding <=> $1, id
		LIMIT $4
	`, s.table), pgvector.NewVector(query), filter.OwnerID, pq.Array(docIDs), topK)
	if err != nil {
		return nil, fmt.Errorf("pgvector search: %w", err)
	}
	defer rows.Close()

	hits := make([]driven.VectorHit, 0, topK)
	for rows.Next() {
		var (
			hit driven.VectorHit
			vec pgvector.Vector
		)
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Index, &hit.Text, &vec, &hit.Score); err != nil {
			return nil, fmt.Errorf("pgvector search: scan: %w", err)
		}
		hit.Embedding = vec.Slice()
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgvector search: rows: %w", err)
	}
	return hits, nil
}

// DeleteByDocument removes the owner's chunks of documentID.
func (s *VectorStore) DeleteByDocument(ctx context.Context, ownerID, documentID string) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("pgvector delete: %w: owner and document id are required", domain.ErrInvalidInput)
	}
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1 AND document_id = $2`, s.table),
		ownerID, documentID)
	if err != nil {
		return fmt.Errorf("pgvector delete: %w", err)
	}
	return nil
}

// TrimDocument removes the owner's chunks of documentID from index keep on.
func (s *VectorStore) TrimDocument(ctx context.Context, ownerID, documentID string, keep int) error {
	if ownerID == "" || documentID == "" {
		return fmt.Errorf("pgvector trim: %w: owner and document id are required", domain.ErrInvalidInput)
	}
	if err := s.EnsureReady(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE owner_id = $1 AND document_id = $2 AND chunk_index >= $3`, s.table),
		ownerID, documentID, keep)
	if err != nil {
		return fmt.Errorf("pgvector trim: %w", err)
	}
	return nil
}

// Close is a no-op; the parent Store owns the pool.
func (s *VectorStore) Close() error {
	return nil
}
