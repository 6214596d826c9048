package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func seededConversations() *mockConversationStore {
	return &mockConversationStore{turns: []domain.ConversationTurn{
		{ID: "1", SessionID: "s1", Role: domain.RoleUser, Content: "What is the invoice total?"},
		{ID: "2", SessionID: "s1", Role: domain.RoleAssistant, Content: "15,750,000 rupiah."},
		{ID: "3", SessionID: "s2", Role: domain.RoleUser, Content: "Other session"},
		{ID: "4", SessionID: "s1", Role: domain.RoleUser, Content: "  And the due date?  "},
	}}
}

func TestConversationService_History(t *testing.T) {
	svc := NewConversationService(seededConversations())

	turns, err := svc.History(context.Background(), "s1", 0)
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "1", turns[0].ID)

	turns, err = svc.History(context.Background(), "s1", 2)
	require.NoError(t, err)
	assert.Equal(t, "2", turns[0].ID)
	assert.Equal(t, "4", turns[1].ID)
}

func TestConversationService_BuildContext(t *testing.T) {
	svc := NewConversationService(seededConversations())

	got, err := svc.BuildContext(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, "user: What is the invoice total?\nassistant: 15,750,000 rupiah.\nuser: And the due date?", got)

	got, err = svc.BuildContext(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = svc.BuildContext(context.Background(), "unknown", 5)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestConversationService_Clear(t *testing.T) {
	store := seededConversations()
	svc := NewConversationService(store)

	require.NoError(t, svc.Clear(context.Background(), "s1"))
	turns, err := svc.History(context.Background(), "s1", 0)
	require.NoError(t, err)
	assert.Empty(t, turns)

	turns, err = svc.History(context.Background(), "s2", 0)
	require.NoError(t, err)
	assert.Len(t, turns, 1)
}

func TestConversationService_Errors(t *testing.T) {
	_, err := NewConversationService(nil).History(context.Background(), "s1", 0)
	assert.ErrorIs(t, err, domain.ErrPersistence)

	svc := NewConversationService(seededConversations())
	_, err = svc.History(context.Background(), " ", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.ErrorIs(t, svc.Clear(context.Background(), ""), domain.ErrInvalidInput)

	boom := errors.New("database is locked")
	failing := NewConversationService(&mockConversationStore{err: boom})
	_, err = failing.BuildContext(context.Background(), "s1", 3)
	assert.ErrorIs(t, err, boom)
}
