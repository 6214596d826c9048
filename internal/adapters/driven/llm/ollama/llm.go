// Package ollama answers chat requests with a model served by a local
// Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

var _ driven.LLMService = (*LLMService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultLLMModel   = "llama3.2"
	DefaultLLMTimeout = 120 * time.Second
)

// LLMConfig configures LLMService. Zero fields take the defaults above.
type LLMConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration

	// KeepAlive is how long Ollama keeps the model loaded between
	// questions. Zero leaves the server default.
	KeepAlive time.Duration
}

// LLMService calls /api/chat without streaming.
type LLMService struct {
	client    *api.Client
	model     string
	keepAlive *api.Duration
}

func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama: invalid base URL %q: %w", cfg.BaseURL, domain.ErrInvalidInput)
	}

	s := &LLMService{
		client: api.NewClient(base, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
	}
	if cfg.KeepAlive > 0 {
		s.keepAlive = &api.Duration{Duration: cfg.KeepAlive}
	}
	return s, nil
}

// Chat returns the assistant reply. MaxTokens maps to num_predict; a reply
// cut short by it is returned with a warning.
func (s *LLMService) Chat(ctx context.Context, messages []driven.ChatMessage, opts driven.ChatOptions) (string, error) {
	req := &api.ChatRequest{
		Model:     s.model,
		Messages:  make([]api.Message, len(messages)),
		Stream:    new(bool),
		KeepAlive: s.keepAlive,
		Options:   map[string]any{"temperature": opts.Temperature},
	}
	for i, m := range messages {
		req.Messages[i] = api.Message{Role: m.Role, Content: m.Content}
	}
	if opts.MaxTokens > 0 {
		req.Options["num_predict"] = opts.MaxTokens
	}

	var reply strings.Builder
	err := s.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		reply.WriteString(resp.Message.Content)
		if resp.Done && resp.DoneReason == "length" {
			logger.Warn("ollama: reply from %s stopped at %d tokens", s.model, opts.MaxTokens)
		}
		return nil
	})
	if err != nil {
		var status api.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("ollama chat: model %q not found, run `ollama pull %s`: %w", s.model, s.model, err)
		}
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	if strings.TrimSpace(reply.String()) == "" {
		return "", fmt.Errorf("ollama chat: %s returned an empty reply", s.model)
	}
	return reply.String(), nil
}

func (s *LLMService) ModelName() string { return s.model }

// Ping checks that the server answers.
func (s *LLMService) Ping(ctx context.Context) error {
	if err := s.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: server not reachable: %w", err)
	}
	return nil
}

func (s *LLMService) Close() error { return nil }
