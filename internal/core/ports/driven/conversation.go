package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ConversationStore persists conversation turns.
// This is an optional port - when nil, pipeline runs are not recorded.
type ConversationStore interface {
	// AppendTurns stores turns atomically where the backend supports it.
	AppendTurns(ctx context.Context, turns ...domain.ConversationTurn) error

	// ListTurns returns the most recent turns of a session in creation
	// order. A limit of zero or less returns every turn.
	ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error)

	// DeleteSession removes every turn of a session.
	DeleteSession(ctx context.Context, sessionID string) error
}
