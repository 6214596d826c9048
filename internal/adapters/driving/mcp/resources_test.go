package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestExtractSessionID(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		expected string
	}{
		{name: "valid session URI", uri: "docrag://sessions/s-123", expected: "s-123"},
		{name: "invalid prefix", uri: "file://sessions/s-123", expected: ""},
		{name: "nested path", uri: "docrag://sessions/s-123/turns", expected: ""},
		{name: "missing id", uri: "docrag://sessions/", expected: ""},
		{name: "empty URI", uri: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractSessionID(tt.uri))
		})
	}
}

func readRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}}
}

func TestServer_handleSessionResource(t *testing.T) {
	ctx := context.Background()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	t.Run("returns turns as JSON", func(t *testing.T) {
		conv := &mockConversationService{turns: []domain.ConversationTurn{
			{ID: "t1", SessionID: "s1", Role: domain.RoleUser, Content: "What is the total?", CreatedAt: created},
			{ID: "t2", SessionID: "s1", Role: domain.RoleAssistant, Content: "15,750,000",
				ReferencedDocs: []string{"inv"}, CreatedAt: created},
		}}
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Conversation: conv})

		result, err := server.handleSessionResource(ctx, readRequest("docrag://sessions/s1"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)

		var decoded []map[string]any
		require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &decoded))
		require.Len(t, decoded, 2)
		assert.Equal(t, "assistant", decoded[1]["role"])
		assert.Equal(t, "s1", decoded[1]["sessionId"])
		assert.Equal(t, []any{"inv"}, decoded[1]["referencedDocs"])
	})

	t.Run("empty session is an empty array", func(t *testing.T) {
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Conversation: &mockConversationService{}})

		result, err := server.handleSessionResource(ctx, readRequest("docrag://sessions/none"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("bad uri is not found", func(t *testing.T) {
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Conversation: &mockConversationService{}})

		_, err := server.handleSessionResource(ctx, readRequest("docrag://other/s1"))
		assert.Error(t, err)
	})

	t.Run("store errors are wrapped", func(t *testing.T) {
		conv := &mockConversationService{err: errors.New("db down")}
		server := newTestServer(t, &Ports{RAG: &mockRAGService{}, Conversation: conv})

		_, err := server.handleSessionResource(ctx, readRequest("docrag://sessions/s1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing turns")
	})
}
