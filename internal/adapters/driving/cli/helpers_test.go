package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

type mockRAGService struct {
	result *domain.QueryResult
	err    error
	inputs []domain.QueryInput
}

func (m *mockRAGService) RunQuery(_ context.Context, input domain.QueryInput) (*domain.QueryResult, error) {
	m.inputs = append(m.inputs, input)
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.QueryResult{Response: "answer"}, nil
}

type mockIngestionService struct {
	err       error
	documents []domain.IngestRequest
	files     []domain.FileIngestRequest
	deleted   []string
}

func (m *mockIngestionService) IngestDocument(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	m.documents = append(m.documents, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: req.DocumentID, ChunksCount: 1}, nil
}

func (m *mockIngestionService) IngestFile(_ context.Context, req domain.FileIngestRequest) (*domain.IngestResult, error) {
	m.files = append(m.files, req)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.IngestResult{DocumentID: req.DocumentID, ChunksCount: 2}, nil
}

func (m *mockIngestionService) DeleteDocument(_ context.Context, documentID, ownerID string) error {
	m.deleted = append(m.deleted, ownerID+"/"+documentID)
	return m.err
}

type mockConversationService struct {
	turns    []domain.ConversationTurn
	context  string
	err      error
	cleared  []string
	contexts []string
}

func (m *mockConversationService) History(_ context.Context, _ string, limit int) ([]domain.ConversationTurn, error) {
	if m.err != nil {
		return nil, m.err
	}
	if limit > 0 && limit < len(m.turns) {
		return m.turns[len(m.turns)-limit:], nil
	}
	return m.turns, nil
}

func (m *mockConversationService) Clear(_ context.Context, sessionID string) error {
	m.cleared = append(m.cleared, sessionID)
	return m.err
}

func (m *mockConversationService) BuildContext(_ context.Context, sessionID string, _ int) (string, error) {
	m.contexts = append(m.contexts, sessionID)
	if m.err != nil {
		return "", m.err
	}
	return m.context, nil
}

type mockSettingsService struct {
	settings    domain.AppSettings
	err         error
	validateErr error
	values      map[string]string
	embedding   []string
	llm         []string
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{settings: domain.DefaultAppSettings(), values: map[string]string{}}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return m.err
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.embedding = []string{string(provider), model, apiKey}
	return m.err
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.llm = []string{string(provider), model, apiKey}
	return m.err
}

func (m *mockSettingsService) SetValue(key, value string) error {
	if m.err != nil {
		return m.err
	}
	m.values[key] = value
	return nil
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error { return m.validateErr }

func (m *mockSettingsService) ValidateLLMConfig() error { return m.validateErr }

// execute runs the root command against s and returns stdout and stderr.
// Flags are reset afterwards so tests do not leak state.
func execute(t *testing.T, s *Services, stdin string, args ...string) (string, string, error) {
	t.Helper()

	SetServices(s)
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		SetServices(nil)
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
