package cli

import (
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/adapters/driving/tui/messages"
)

func TestChatCmd_Metadata(t *testing.T) {
	assert.Equal(t, "chat", chatCmd.Use)
	assert.Contains(t, chatCmd.Aliases, "tui")
	assert.Contains(t, chatCmd.Long, "Controls:")

	for _, name := range []string{"owner", "session", "save-to"} {
		assert.NotNil(t, chatCmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "s", chatCmd.Flags().Lookup("session").Shorthand)
}

func chatTestCommand() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	return cmd
}

func TestNewChatApp(t *testing.T) {
	t.Run("new session by default", func(t *testing.T) {
		SetServices(&Services{RAG: &mockRAGService{}, Conversation: &mockConversationService{}, HistoryTurns: 6})
		defer SetServices(nil)

		app, err := newChatApp(chatTestCommand())
		require.NoError(t, err)

		assert.NotEmpty(t, app.Chat().Session())
		assert.Equal(t, messages.ViewChat, app.CurrentView())
	})

	t.Run("continues given session", func(t *testing.T) {
		SetServices(&Services{RAG: &mockRAGService{}})
		defer SetServices(nil)
		orig := chatSession
		chatSession = "s-42"
		defer func() { chatSession = orig }()

		app, err := newChatApp(chatTestCommand())
		require.NoError(t, err)
		assert.Equal(t, "s-42", app.Chat().Session())
	})

	t.Run("distinct sessions", func(t *testing.T) {
		SetServices(&Services{RAG: &mockRAGService{}})
		defer SetServices(nil)

		a, err := newChatApp(chatTestCommand())
		require.NoError(t, err)
		b, err := newChatApp(chatTestCommand())
		require.NoError(t, err)
		assert.NotEqual(t, a.Chat().Session(), b.Chat().Session())
	})

	t.Run("no rag service", func(t *testing.T) {
		SetServices(&Services{})
		defer SetServices(nil)

		_, err := newChatApp(chatTestCommand())
		assert.EqualError(t, err, "rag service not configured")
	})
}
