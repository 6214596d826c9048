package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

// Ensure ConversationService implements the interface.
var _ driving.ConversationService = (*ConversationService)(nil)

// ConversationService reads and clears stored conversation turns.
type ConversationService struct {
	store driven.ConversationStore
}

// NewConversationService creates a conversation service.
func NewConversationService(store driven.ConversationStore) *ConversationService {
	return &ConversationService{store: store}
}

// History returns up to limit of the latest turns of a session.
func (s *ConversationService) History(ctx context.Context, sessionID string, limit int) ([]domain.ConversationTurn, error) {
	if err := s.check(sessionID); err != nil {
		return nil, err
	}
	turns, err := s.store.ListTurns(ctx, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	return turns, nil
}

// Clear deletes every turn of a session.
func (s *ConversationService) Clear(ctx context.Context, sessionID string) error {
	if err := s.check(sessionID); err != nil {
		return err
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// BuildContext renders the last maxTurns turns as "role: content" lines.
// A session without history yields "".
func (s *ConversationService) BuildContext(ctx context.Context, sessionID string, maxTurns int) (string, error) {
	if maxTurns <= 0 {
		return "", nil
	}
	turns, err := s.History(ctx, sessionID, maxTurns)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, turn := range turns {
		content := strings.TrimSpace(turn.Content)
		if content == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(turn.Role))
		b.WriteString(": ")
		b.WriteString(content)
	}
	return b.String(), nil
}

func (s *ConversationService) check(sessionID string) error {
	if s.store == nil {
		return fmt.Errorf("%w: no conversation store configured", domain.ErrPersistence)
	}
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("%w: session id is required", domain.ErrInvalidInput)
	}
	return nil
}
