// Package hashing provides a built-in embedding service that needs no model
// or network. Texts are tokenised into lower-cased words, and words and
// adjacent word pairs are feature-hashed into a fixed number of signed
// buckets. The result is L2-normalised, so cosine similarity reduces to a
// dot product and texts sharing vocabulary score higher.
package hashing

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "feature-hash-384"
	DefaultDimensions = domain.HashingDimensions

	bigramWeight = 0.5
)

// EmbeddingService is a deterministic feature-hashing embedder.
type EmbeddingService struct {
	dimensions int
	model      string
}

// Option configures the hashing embedder.
type Option func(*EmbeddingService)

// WithDimensions overrides the vector size.
func WithDimensions(n int) Option {
	return func(s *EmbeddingService) {
		if n > 0 {
			s.dimensions = n
			s.model = fmt.Sprintf("feature-hash-%d", n)
		}
	}
}

// NewEmbeddingService creates a hashing embedder with 384 dimensions unless
// overridden.
func NewEmbeddingService(opts ...Option) *EmbeddingService {
	s := &EmbeddingService{
		dimensions: DefaultDimensions,
		model:      DefaultModel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed returns the normalised hashed feature vector of text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if domain.IsBlank(text) {
		return nil, domain.ErrEmptyInput
	}

	vec := make([]float64, s.dimensions)
	tokens := tokenise(text)
	for i, tok := range tokens {
		s.add(vec, tok, 1)
		if i > 0 {
			s.add(vec, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	return normalise(vec), nil
}

// EmbedBatch embeds each text in order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

// add hashes feature into a bucket. The top hash bit picks the sign so
// collisions tend to cancel rather than accumulate.
func (s *EmbeddingService) add(vec []float64, feature string, weight float64) {
	h := fnv.New32a()
	_, _ = h.Write([]byte(feature))
	sum := h.Sum32()

	idx := int(sum % uint32(s.dimensions))
	if sum&(1<<31) != 0 {
		weight = -weight
	}
	vec[idx] += weight
}

// tokenise lower-cases text and splits it on anything that is not a letter
// or digit.
func tokenise(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// normalise scales vec to unit length. A zero vector stays zero.
func normalise(vec []float64) []float32 {
	var sum float64
	for _, v := range vec {
		sum += v * v
	}
	out := make([]float32, len(vec))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, v := range vec {
		out[i] = float32(v / norm)
	}
	return out
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the model identifier.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping always succeeds; the embedder is in-process.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
