// Package postgres provides PostgreSQL implementations of the storage ports.
//
// Chunk embeddings live in a pgvector column and are searched with the
// cosine distance operator. Conversation turns keep their referenced
// document ids in a text[] column. Tables are created on first use.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"github.com/lib/pq"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// connectTimeout bounds the initial ping.
const connectTimeout = 5 * time.Second

// identPattern restricts table names taken from configuration.
var identPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Store owns the connection pool shared by the postgres stores.
type Store struct {
	db *sql.DB
}

// Open connects to PostgreSQL and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: %w: DSN is required", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// VectorStore returns a pgvector store over the named table.
func (s *Store) VectorStore(table string, dimensions int) (*VectorStore, error) {
	if table == "" {
		table = domain.DefaultCollection
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("postgres: %w: invalid table name %q", domain.ErrInvalidInput, table)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("postgres: %w: dimensions must be positive", domain.ErrInvalidInput)
	}
	return &VectorStore{
		db:         s.db,
		table:      pq.QuoteIdentifier(table),
		indexName:  pq.QuoteIdentifier(table + "_owner_document_idx"),
		dimensions: dimensions,
	}, nil
}

// ConversationStore returns the conversation turn store.
func (s *Store) ConversationStore() *ConversationStore {
	return &ConversationStore{db: s.db}
}
