package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/lib/pq"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.ConversationStore = (*ConversationStore)(nil)

const conversationSchema = `
CREATE TABLE IF NOT EXISTS conversation_turns (
	seq             BIGSERIAL PRIMARY KEY,
	id              TEXT NOT NULL UNIQUE,
	session_id      TEXT NOT NULL,
	role            TEXT NOT NULL CHECK (role IN ('user', 'assistant')),
	content         TEXT NOT NULL,
	referenced_docs TEXT[] NOT NULL DEFAULT '{}',
	created_at      TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS conversation_turns_session_idx ON conversation_turns (session_id, created_at)`

// ConversationStore implements driven.ConversationStore on PostgreSQL.
type ConversationStore struct {
	db *sql.DB

	mu    sync.Mutex
	ready bool
}

func (s *ConversationStore) ensureSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ready {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, conversationSchema); err != nil {
		return fmt.Errorf("conversation schema: %w", err)
	}
	s.ready = true
	return nil
}

// AppendTurns inserts every turn in one transaction.
func (s *ConversationStore) AppendTurns(ctx context.Context, turns ...domain.ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	for _, t := range turns {
		if t.SessionID == "" || t.ID == "" {
			return fmt.Errorf("append turns: %w: turn and session id are required", domain.ErrInvalidInput)
		}
		if !t.Role.IsValid() {
			return fmt.Errorf("append turns: %w: role %q", domain.ErrInvalidInput, t.Role)
		}
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append turns: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, t := range turns {
		refs := t.ReferencedDocs
		if refs == nil {
			refs = []string{}
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_turns (id, session_id, role, content, referenced_docs, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, t.ID, t.SessionID, string(t.Role), t.Content, pq.Array(refs), t.CreatedAt.UTC())
		if err != nil {
			return fmt.Errorf("append turns: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append turns: commit: %w", err)
	}
	return nil
}

// ListTurns returns the last limit turns of a session, oldest first.
func (s *ConversationStore) ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}

	// A NULL limit means no limit.
	var lim sql.NullInt64
	if limit > 0 {
		lim = sql.NullInt64{Int64: int64(limit), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, role, content, referenced_docs, created_at FROM (
			SELECT * FROM conversation_turns
			WHERE session_id = $1
			ORDER BY created_at DESC, seq DESC
			LIMIT $2
		) recent
		ORDER BY created_at, seq
	`, sessionID, lim)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			t    domain.ConversationTurn
			role string
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &role, &t.Content, pq.Array(&t.ReferencedDocs), &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("list turns: scan: %w", err)
		}
		t.Role = domain.Role(role)
		t.CreatedAt = t.CreatedAt.UTC()
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list turns: rows: %w", err)
	}
	return turns, nil
}

// DeleteSession removes every turn of a session.
func (s *ConversationStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversation_turns WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
