package postprocessors

import (
	"fmt"
	"math"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/postprocessors/chunker"
)

// RegisterDefaults adds the built-in processors to r.
func RegisterDefaults(r *Registry) {
	r.Register("chunker", buildChunker)
}

// buildChunker reads chunk_size (characters, must be positive) and overlap
// (words, must not be negative). Missing keys keep the chunker defaults.
func buildChunker(opts map[string]any) (driven.PostProcessor, error) {
	var chunkerOpts []chunker.Option

	size, ok, err := intOption(opts, "chunk_size")
	switch {
	case err != nil:
		return nil, err
	case ok && size <= 0:
		return nil, fmt.Errorf("chunker: chunk_size must be positive, got %d: %w", size, domain.ErrInvalidInput)
	case ok:
		chunkerOpts = append(chunkerOpts, chunker.WithChunkSize(size))
	}

	overlap, ok, err := intOption(opts, "overlap")
	switch {
	case err != nil:
		return nil, err
	case ok && overlap < 0:
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d: %w", overlap, domain.ErrInvalidInput)
	case ok:
		chunkerOpts = append(chunkerOpts, chunker.WithOverlap(overlap))
	}

	return chunker.New(chunkerOpts...), nil
}

// intOption reads key from opts. Decoded TOML and JSON hand back int64 and
// float64, so both are accepted as long as the value is whole.
func intOption(opts map[string]any, key string) (int, bool, error) {
	raw, ok := opts[key]
	if !ok {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		if v != math.Trunc(v) {
			return 0, false, fmt.Errorf("%s: %v is not a whole number: %w", key, v, domain.ErrInvalidInput)
		}
		return int(v), true, nil
	default:
		return 0, false, fmt.Errorf("%s: unexpected type %T: %w", key, raw, domain.ErrInvalidInput)
	}
}
