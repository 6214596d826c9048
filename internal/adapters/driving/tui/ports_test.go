package tui

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driving"
)

type mockRAGService struct {
	result *domain.QueryResult
	err    error
	calls  int
}

func (m *mockRAGService) RunQuery(_ context.Context, _ domain.QueryInput) (*domain.QueryResult, error) {
	m.calls++
	return m.result, m.err
}

type mockConversationService struct {
	turns []domain.ConversationTurn
}

func (m *mockConversationService) History(_ context.Context, _ string, _ int) ([]domain.ConversationTurn, error) {
	return m.turns, nil
}

func (m *mockConversationService) Clear(_ context.Context, _ string) error {
	return nil
}

func (m *mockConversationService) BuildContext(_ context.Context, _ string, _ int) (string, error) {
	return "", nil
}

var (
	_ driving.RAGService          = (*mockRAGService)(nil)
	_ driving.ConversationService = (*mockConversationService)(nil)
)

func TestPorts_Validate(t *testing.T) {
	tests := []struct {
		name  string
		ports *Ports
		want  error
	}{
		{name: "nil ports", ports: nil, want: ErrInvalidPorts},
		{name: "missing rag", ports: &Ports{Conversation: &mockConversationService{}}, want: ErrMissingRAGService},
		{name: "rag only", ports: &Ports{RAG: &mockRAGService{}}},
		{name: "all ports", ports: &Ports{RAG: &mockRAGService{}, Conversation: &mockConversationService{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ports.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
