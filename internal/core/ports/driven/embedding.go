package driven

import "context"

// EmbeddingService maps text to fixed-width vectors. Vectors from different
// models are not comparable, so stores keep the width next to each vector.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns vectors in the order of texts. Implementations may
	// split the call into several requests.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the width of every vector the model returns.
	Dimensions() int

	ModelName() string

	// Ping reports whether the backend answers. It may succeed while the
	// model itself is missing; ai.ConfigValidator embeds a probe for that.
	Ping(ctx context.Context) error

	Close() error
}
