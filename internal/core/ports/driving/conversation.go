package driving

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// ConversationService reads and clears conversation history.
type ConversationService interface {
	// History returns up to limit of the latest turns in creation order.
	History(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error)

	// Clear deletes a session's history.
	Clear(ctx context.Context, sessionID string) error

	// BuildContext renders the last maxTurns turns as "role: content" lines
	// for use as QueryInput.ConversationContext.
	BuildContext(ctx context.Context, sessionID string, maxTurns int) (string, error)
}
