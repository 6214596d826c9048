package cli

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func sampleTurns() []domain.ConversationTurn {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	return []domain.ConversationTurn{
		{ID: "1", SessionID: "s-1", Role: domain.RoleUser, Content: "total of invoice 7?", CreatedAt: at},
		{ID: "2", SessionID: "s-1", Role: domain.RoleAssistant, Content: "120 EUR", ReferencedDocs: []string{"invoice-7"}, CreatedAt: at.Add(time.Second)},
	}
}

func TestHistory_Prints(t *testing.T) {
	conversation := &mockConversationService{turns: sampleTurns()}

	out, _, err := execute(t, &Services{Conversation: conversation}, "", "history", "s-1")
	require.NoError(t, err)
	assert.Contains(t, out, "total of invoice 7?")
	assert.Contains(t, out, "120 EUR")
	assert.Contains(t, out, "sources: [invoice-7]")
}

func TestHistory_Limit(t *testing.T) {
	conversation := &mockConversationService{turns: sampleTurns()}

	out, _, err := execute(t, &Services{Conversation: conversation}, "", "history", "-n", "1", "s-1")
	require.NoError(t, err)
	assert.NotContains(t, out, "total of invoice 7?")
	assert.Contains(t, out, "120 EUR")
}

func TestHistory_JSON(t *testing.T) {
	t.Run("turns", func(t *testing.T) {
		conversation := &mockConversationService{turns: sampleTurns()}

		out, _, err := execute(t, &Services{Conversation: conversation}, "", "history", "--json", "s-1")
		require.NoError(t, err)

		var turns []domain.ConversationTurn
		require.NoError(t, json.Unmarshal([]byte(out), &turns))
		assert.Len(t, turns, 2)
	})

	t.Run("empty session is an empty array", func(t *testing.T) {
		out, _, err := execute(t, &Services{Conversation: &mockConversationService{}}, "", "history", "--json", "none")
		require.NoError(t, err)
		assert.JSONEq(t, "[]", out)
	})
}

func TestHistory_Empty(t *testing.T) {
	out, _, err := execute(t, &Services{Conversation: &mockConversationService{}}, "", "history", "none")
	require.NoError(t, err)
	assert.Contains(t, out, "No turns recorded.")
}

func TestHistory_Clear(t *testing.T) {
	conversation := &mockConversationService{turns: sampleTurns()}

	out, _, err := execute(t, &Services{Conversation: conversation}, "", "history", "--clear", "s-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"s-1"}, conversation.cleared)
	assert.Contains(t, out, "Cleared session s-1")
}

func TestHistory_Errors(t *testing.T) {
	t.Run("store failure", func(t *testing.T) {
		conversation := &mockConversationService{err: domain.ErrPersistence}

		_, _, err := execute(t, &Services{Conversation: conversation}, "", "history", "s-1")
		assert.ErrorIs(t, err, domain.ErrPersistence)
	})

	t.Run("no service", func(t *testing.T) {
		_, _, err := execute(t, &Services{}, "", "history", "s-1")
		assert.EqualError(t, err, "conversation service not configured")
	})
}
