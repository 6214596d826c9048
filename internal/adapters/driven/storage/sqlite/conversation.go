package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// AppendTurns inserts every turn or none.
func (s *conversationStore) AppendTurns(ctx context.Context, turns ...domain.ConversationTurn) error {
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

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO conversation_turns (id, session_id, role, content, referenced_docs, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, t := range turns {
		refs := t.ReferencedDocs
		if refs == nil {
			refs = []string{}
		}
		refsJSON, err := json.Marshal(refs)
		if err != nil {
			return fmt.Errorf("marshalling referenced docs: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, t.ID, t.SessionID, string(t.Role), t.Content,
			string(refsJSON), t.CreatedAt.UTC()); err != nil {
			return fmt.Errorf("saving turn: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ListTurns returns the last limit turns of a session, oldest first.
func (s *conversationStore) ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	q := `
		SELECT id, session_id, role, content, referenced_docs, created_at
		FROM conversation_turns WHERE session_id = ?
		ORDER BY created_at DESC, rowid DESC`
	args := []any{sessionID}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.store.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.ConversationTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var (
			t         domain.ConversationTurn
			role      string
			refsJSON  string
			createdAt time.Time
		)
		if err := rows.Scan(&t.ID, &t.SessionID, &role, &t.Content, &refsJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		t.Role = domain.Role(role)
		t.CreatedAt = createdAt.UTC()
		if err := json.Unmarshal([]byte(refsJSON), &t.ReferencedDocs); err != nil {
			return nil, fmt.Errorf("unmarshalling referenced docs: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// DeleteSession removes every turn of a session.
func (s *conversationStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM conversation_turns WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
