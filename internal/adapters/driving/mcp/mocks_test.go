package mcp

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	result *domain.QueryResult
	err    error
	inputs []domain.QueryInput
}

func (m *mockRAGService) RunQuery(_ context.Context, input domain.QueryInput) (*domain.QueryResult, error) {
	m.inputs = append(m.inputs, input)
	return m.result, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	requests []domain.IngestRequest
	deleted  []string
	err      error
}

func (m *mockIngestionService) IngestDocument(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: req.DocumentID, ChunksCount: 3}, nil
}

func (m *mockIngestionService) IngestFile(_ context.Context, req domain.FileIngestRequest) (*domain.IngestResult, error) {
	return &domain.IngestResult{DocumentID: req.DocumentID, ChunksCount: 1}, m.err
}

func (m *mockIngestionService) DeleteDocument(_ context.Context, documentID, ownerID string) error {
	m.deleted = append(m.deleted, ownerID+"/"+documentID)
	return m.err
}

// mockConversationService is a mock implementation of driving.ConversationService.
type mockConversationService struct {
	turns   []domain.ConversationTurn
	context string
	err     error
}

func (m *mockConversationService) History(_ context.Context, _ string, _ int) ([]domain.ConversationTurn, error) {
	return m.turns, m.err
}

func (m *mockConversationService) Clear(_ context.Context, _ string) error {
	return m.err
}

func (m *mockConversationService) BuildContext(_ context.Context, _ string, _ int) (string, error) {
	return m.context, m.err
}
