package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore keeps turns per session in insertion order.
type ConversationStore struct {
	mu       sync.RWMutex
	sessions map[string][]domain.ConversationTurn
}

// NewConversationStore creates an empty conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{sessions: make(map[string][]domain.ConversationTurn)}
}

// AppendTurns stores turns. Either all turns are stored or none are.
func (s *ConversationStore) AppendTurns(ctx context.Context, turns ...domain.ConversationTurn) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, t := range turns {
		if t.SessionID == "" || !t.Role.IsValid() {
			return domain.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range turns {
		t.ReferencedDocs = append([]string(nil), t.ReferencedDocs...)
		s.sessions[t.SessionID] = append(s.sessions[t.SessionID], t)
	}
	return nil
}

// ListTurns returns the latest limit turns of a session, oldest first.
func (s *ConversationStore) ListTurns(_ context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns := s.sessions[sessionID]
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]domain.ConversationTurn, len(turns))
	copy(out, turns)
	return out, nil
}

// DeleteSession removes every turn of a session.
func (s *ConversationStore) DeleteSession(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}
