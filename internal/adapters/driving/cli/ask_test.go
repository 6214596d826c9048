package cli

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestAsk_BuildsQueryInput(t *testing.T) {
	rag := &mockRAGService{}

	_, _, err := execute(t, &Services{RAG: rag}, "",
		"ask", "--owner", "acme", "-d", "invoice-7", "-d", "invoice-8",
		"-k", "3", "--threshold", "0.25", "--require-semantic",
		"Compare", "the", "invoices")
	require.NoError(t, err)

	require.Len(t, rag.inputs, 1)
	in := rag.inputs[0]
	assert.Equal(t, "Compare the invoices", in.Query)
	assert.Equal(t, "acme", in.OwnerID)
	assert.Equal(t, []string{"invoice-7", "invoice-8"}, in.DocumentIDs)
	assert.Equal(t, 3, in.TopK)
	require.NotNil(t, in.Threshold)
	assert.InDelta(t, 0.25, *in.Threshold, 1e-9)
	assert.True(t, in.UseSemanticSearch)
	assert.True(t, in.RequireSemantic)
	assert.Empty(t, in.ConversationContext)
}

func TestAsk_Defaults(t *testing.T) {
	rag := &mockRAGService{}

	_, _, err := execute(t, &Services{RAG: rag}, "", "ask", "--no-semantic", "hi")
	require.NoError(t, err)

	in := rag.inputs[0]
	assert.Equal(t, defaultOwner, in.OwnerID)
	assert.False(t, in.UseSemanticSearch)
	assert.Zero(t, in.TopK)
	assert.Nil(t, in.Threshold)
	assert.Nil(t, in.DocumentIDs)
}

func TestAsk_ZeroThresholdIsAnOverride(t *testing.T) {
	rag := &mockRAGService{}

	_, _, err := execute(t, &Services{RAG: rag}, "", "ask", "--threshold", "0", "q")
	require.NoError(t, err)
	require.NotNil(t, rag.inputs[0].Threshold)
	assert.Zero(t, *rag.inputs[0].Threshold)
}

func TestAsk_SessionContext(t *testing.T) {
	t.Run("feeds history back", func(t *testing.T) {
		rag := &mockRAGService{}
		conversation := &mockConversationService{context: "user: total?\nassistant: 120 EUR"}

		_, _, err := execute(t, &Services{RAG: rag, Conversation: conversation, HistoryTurns: 4}, "",
			"ask", "-s", "s-1", "and the tax?")
		require.NoError(t, err)

		assert.Equal(t, []string{"s-1"}, conversation.contexts)
		assert.Equal(t, "s-1", rag.inputs[0].SessionID)
		assert.Equal(t, "user: total?\nassistant: 120 EUR", rag.inputs[0].ConversationContext)
	})

	t.Run("history disabled", func(t *testing.T) {
		rag := &mockRAGService{}
		conversation := &mockConversationService{context: "ignored"}

		_, _, err := execute(t, &Services{RAG: rag, Conversation: conversation}, "", "ask", "-s", "s-1", "q")
		require.NoError(t, err)
		assert.Empty(t, conversation.contexts)
		assert.Empty(t, rag.inputs[0].ConversationContext)
	})

	t.Run("history error is ignored", func(t *testing.T) {
		rag := &mockRAGService{}
		conversation := &mockConversationService{err: domain.ErrPersistence}

		_, _, err := execute(t, &Services{RAG: rag, Conversation: conversation, HistoryTurns: 4}, "", "ask", "-s", "s-1", "q")
		require.NoError(t, err)
		assert.Empty(t, rag.inputs[0].ConversationContext)
	})
}

func TestAsk_PrintsResult(t *testing.T) {
	rag := &mockRAGService{result: &domain.QueryResult{
		Response:            "The total is 120 EUR.",
		ReferencedDocuments: []string{"invoice-7"},
	}}

	out, _, err := execute(t, &Services{RAG: rag}, "", "ask", "total?")
	require.NoError(t, err)
	assert.Contains(t, out, "The total is 120 EUR.")
	assert.Contains(t, out, "[1] invoice-7")
}

func TestAsk_JSON(t *testing.T) {
	rag := &mockRAGService{result: &domain.QueryResult{Response: "ok", ReferencedDocuments: []string{"a"}}}

	out, _, err := execute(t, &Services{RAG: rag}, "", "ask", "--json", "q")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "ok", decoded["response"])
}

func TestAsk_YAML(t *testing.T) {
	rag := &mockRAGService{result: &domain.QueryResult{Response: "ok"}}

	out, _, err := execute(t, &Services{RAG: rag}, "", "ask", "--yaml", "q")
	require.NoError(t, err)
	assert.Contains(t, out, "response: ok")
}

func TestAsk_SavesGeneratedFile(t *testing.T) {
	content := []byte("%PDF-1.4 report")
	rag := &mockRAGService{result: &domain.QueryResult{
		Response: "Report ready.",
		DocumentFile: &domain.GeneratedDocument{
			Name:     "../report.pdf",
			MIMEType: "application/pdf",
			Size:     len(content),
			URL:      "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(content),
		},
	}}
	dir := filepath.Join(t.TempDir(), "out")

	out, _, err := execute(t, &Services{RAG: rag}, "", "ask", "--save-to", dir, "Create a report")
	require.NoError(t, err)

	saved, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, content, saved)
	assert.Contains(t, out, "Generated:")
	assert.Contains(t, out, "Saved "+filepath.Join(dir, "report.pdf"))
}

func TestAsk_Errors(t *testing.T) {
	t.Run("generation failure shows retry message", func(t *testing.T) {
		rag := &mockRAGService{err: errors.Join(domain.ErrGenerationFailed, errors.New("502 from provider"))}

		_, _, err := execute(t, &Services{RAG: rag}, "", "ask", "q")
		require.Error(t, err)
		assert.Equal(t, domain.UserMessage(domain.ErrGenerationFailed), err.Error())
	})

	t.Run("other errors are wrapped", func(t *testing.T) {
		rag := &mockRAGService{err: domain.ErrEmptyInput}

		_, _, err := execute(t, &Services{RAG: rag}, "", "ask", " ")
		assert.ErrorIs(t, err, domain.ErrEmptyInput)
	})

	t.Run("no service", func(t *testing.T) {
		_, _, err := execute(t, &Services{}, "", "ask", "q")
		assert.EqualError(t, err, "rag service not configured")
	})

	t.Run("json and yaml are exclusive", func(t *testing.T) {
		_, _, err := execute(t, &Services{RAG: &mockRAGService{}}, "", "ask", "--json", "--yaml", "q")
		assert.Error(t, err)
	})
}
