package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/logger"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query       string   `json:"query" jsonschema:"the question to answer from the owner's documents"`
	OwnerID     string   `json:"owner_id" jsonschema:"the owner whose documents are searched"`
	SessionID   string   `json:"session_id,omitempty" jsonschema:"conversation id; turns are saved under it"`
	DocumentIDs []string `json:"document_ids,omitempty" jsonschema:"restrict retrieval to these documents"`
	Semantic    *bool    `json:"semantic,omitempty" jsonschema:"use semantic retrieval (default true)"`
	TopK        int      `json:"top_k,omitempty" jsonschema:"maximum number of context chunks"`
	Threshold   *float64 `json:"threshold,omitempty" jsonschema:"minimum similarity of a context chunk (default from settings)"`
	Context     string   `json:"conversation_context,omitempty" jsonschema:"prior conversation text, appended after the session's saved turns"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Response            string              `json:"response"`
	ReferencedDocuments []string            `json:"referenced_documents"`
	DocumentFile        *DocumentFileOutput `json:"document_file,omitempty"`
}

// DocumentFileOutput describes a generated attachment.
type DocumentFileOutput struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Size int    `json:"size"`
	URL  string `json:"url"`
}

// IngestInput is the input schema for the ingest_document tool.
type IngestInput struct {
	DocumentID string `json:"document_id" jsonschema:"caller supplied document id; re-ingesting replaces it"`
	OwnerID    string `json:"owner_id" jsonschema:"the owner of the document"`
	Text       string `json:"text" jsonschema:"the document text"`
	ChunkSize  int    `json:"chunk_size,omitempty" jsonschema:"maximum chunk length in characters (default 1000)"`
	Overlap    *int   `json:"overlap,omitempty" jsonschema:"words carried into the next chunk (default 200, 0 disables)"`
}

// IngestOutput is the output schema for the ingest_document tool.
type IngestOutput struct {
	DocumentID  string `json:"document_id"`
	ChunksCount int    `json:"chunks_count"`
}

// DeleteInput is the input schema for the delete_document tool.
type DeleteInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to remove"`
	OwnerID    string `json:"owner_id" jsonschema:"the owner of the document"`
}

// DeleteOutput is the output schema for the delete_document tool.
type DeleteOutput struct {
	Deleted bool `json:"deleted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from an owner's documents, optionally generating a PDF, DOCX or XLSX file",
	}, s.handleAsk)

	if s.ports.Ingestion == nil {
		return
	}
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Chunk, embed and store a text document",
	}, s.handleIngest)
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "delete_document",
		Description: "Remove every chunk of a document",
	}, s.handleDelete)
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	semantic := true
	if input.Semantic != nil {
		semantic = *input.Semantic
	}

	query := domain.QueryInput{
		Query:             input.Query,
		OwnerID:           input.OwnerID,
		SessionID:         input.SessionID,
		UseSemanticSearch: semantic,
		DocumentIDs:       input.DocumentIDs,
		TopK:              input.TopK,
		Threshold:         input.Threshold,
	}
	var history string
	if input.SessionID != "" && s.ports.Conversation != nil && s.ports.HistoryTurns > 0 {
		var err error
		history, err = s.ports.Conversation.BuildContext(ctx, input.SessionID, s.ports.HistoryTurns)
		if err != nil {
			logger.Warn("Loading history for session %s: %v", input.SessionID, err)
		}
	}
	query.ConversationContext = domain.JoinConversationContext(history, input.Context)

	result, err := s.ports.RAG.RunQuery(ctx, query)
	if err != nil {
		if errors.Is(err, domain.ErrGenerationFailed) {
			return nil, AskOutput{}, errors.New(domain.UserMessage(err))
		}
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Response:            result.Response,
		ReferencedDocuments: result.ReferencedDocuments,
	}
	if output.ReferencedDocuments == nil {
		output.ReferencedDocuments = []string{}
	}
	if f := result.DocumentFile; f != nil {
		output.DocumentFile = &DocumentFileOutput{
			Name: f.Name,
			Type: f.MIMEType,
			Size: f.Size,
			URL:  f.URL,
		}
	}
	return nil, output, nil
}

// handleIngest handles the ingest_document tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	result, err := s.ports.Ingestion.IngestDocument(ctx, domain.IngestRequest{
		DocumentID: input.DocumentID,
		OwnerID:    input.OwnerID,
		Text:       input.Text,
		ChunkSize:  input.ChunkSize,
		Overlap:    input.Overlap,
	})
	if err != nil {
		return nil, IngestOutput{}, err
	}
	return nil, IngestOutput{DocumentID: result.DocumentID, ChunksCount: result.ChunksCount}, nil
}

// handleDelete handles the delete_document tool invocation.
func (s *Server) handleDelete(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	if err := s.ports.Ingestion.DeleteDocument(ctx, input.DocumentID, input.OwnerID); err != nil {
		return nil, DeleteOutput{}, err
	}
	return nil, DeleteOutput{Deleted: true}, nil
}
