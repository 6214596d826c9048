// Package ollama embeds text with a model served by a local Ollama server.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.EmbeddingService = (*EmbeddingService)(nil)

const (
	DefaultBaseURL    = "http://localhost:11434"
	DefaultModel      = "nomic-embed-text"
	DefaultTimeout    = 30 * time.Second
	DefaultDimensions = 768

	// DefaultMaxBatch bounds the inputs of one /api/embed call. Large
	// batches make Ollama hold every input in memory at once.
	DefaultMaxBatch = 64
)

// Config configures EmbeddingService. Zero fields take the defaults above;
// a zero Dimensions is looked up from the model name first.
type Config struct {
	BaseURL    string
	Model      string
	Timeout    time.Duration
	Dimensions int
	MaxBatch   int

	// KeepAlive is how long Ollama keeps the model loaded after a call.
	// Zero leaves the server default.
	KeepAlive time.Duration
}

// EmbeddingService calls the Ollama /api/embed endpoint. Inputs longer than
// the model context are truncated by the server rather than rejected.
type EmbeddingService struct {
	client     *api.Client
	model      string
	dimensions int
	maxBatch   int
	keepAlive  *api.Duration
}

// NewEmbeddingService validates cfg and returns a service. No request is
// made until the first Embed or Ping.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = domain.EmbeddingDimensions()[cfg.Model]
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}
	if cfg.MaxBatch <= 0 {
		cfg.MaxBatch = DefaultMaxBatch
	}

	client, err := newClient(cfg.BaseURL, cfg.Timeout)
	if err != nil {
		return nil, err
	}

	s := &EmbeddingService{
		client:     client,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		maxBatch:   cfg.MaxBatch,
	}
	if cfg.KeepAlive > 0 {
		s.keepAlive = &api.Duration{Duration: cfg.KeepAlive}
	}
	return s, nil
}

func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch returns one vector per text, in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	truncate := true
	for start := 0; start < len(texts); start += s.maxBatch {
		batch := texts[start:min(start+s.maxBatch, len(texts))]

		resp, err := s.client.Embed(ctx, &api.EmbedRequest{
			Model:     s.model,
			Input:     batch,
			Truncate:  &truncate,
			KeepAlive: s.keepAlive,
		})
		if err != nil {
			return nil, wrapError("embed", s.model, err)
		}
		if len(resp.Embeddings) != len(batch) {
			return nil, fmt.Errorf("ollama embed: got %d embeddings for %d inputs", len(resp.Embeddings), len(batch))
		}
		out = append(out, resp.Embeddings...)
	}
	return out, nil
}

func (s *EmbeddingService) Dimensions() int { return s.dimensions }

func (s *EmbeddingService) ModelName() string { return s.model }

// Ping checks that the server answers. It does not check that the model
// has been pulled.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if err := s.client.Heartbeat(ctx); err != nil {
		return fmt.Errorf("ollama: server not reachable: %w", err)
	}
	return nil
}

func (s *EmbeddingService) Close() error { return nil }

func newClient(baseURL string, timeout time.Duration) (*api.Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("ollama: invalid base URL %q: %w", baseURL, domain.ErrInvalidInput)
	}
	return api.NewClient(base, &http.Client{Timeout: timeout}), nil
}

// wrapError adds a pull hint when the server does not know the model.
func wrapError(op, model string, err error) error {
	var status api.StatusError
	if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
		return fmt.Errorf("ollama %s: model %q not found, run `ollama pull %s`: %w", op, model, model, err)
	}
	return fmt.Errorf("ollama %s: %w", op, err)
}
