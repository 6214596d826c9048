package postprocessors

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// BuilderFunc creates a processor from its [processors.<name>] options.
type BuilderFunc func(opts map[string]any) (driven.PostProcessor, error)

// Registry builds processors by name.
type Registry struct {
	builders map[string]BuilderFunc
}

// NewRegistry returns an empty registry. See RegisterDefaults.
func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]BuilderFunc)}
}

// Register binds name to build. A later call for the same name replaces
// the earlier builder.
func (r *Registry) Register(name string, build BuilderFunc) {
	r.builders[name] = build
}

// Build creates the processor registered under name.
func (r *Registry) Build(name string, opts map[string]any) (driven.PostProcessor, error) {
	build, ok := r.builders[name]
	if !ok {
		known := slices.Sorted(maps.Keys(r.builders))
		return nil, fmt.Errorf("unknown processor %q (registered: %s): %w",
			name, strings.Join(known, ", "), domain.ErrInvalidInput)
	}
	return build(opts)
}

// BuildPipeline builds the processors listed in cfg, in order.
func (r *Registry) BuildPipeline(cfg domain.PipelineConfig) (*Pipeline, error) {
	stages := make([]driven.PostProcessor, 0, len(cfg.Processors))
	for _, name := range cfg.Processors {
		stage, err := r.Build(name, cfg.GetProcessorConfig(name))
		if err != nil {
			return nil, err
		}
		stages = append(stages, stage)
	}
	return NewPipeline(stages...), nil
}

// ChunkPipeline builds the default pipeline with the chunker set to the
// sizes of one ingestion request. It has the shape of
// services.ChunkPipelineBuilder.
func (r *Registry) ChunkPipeline(chunkSize, overlap int) (driven.PostProcessorPipeline, error) {
	cfg := domain.DefaultPipelineConfig()
	cfg.ProcessorConfigs["chunker"] = map[string]any{
		"chunk_size": chunkSize,
		"overlap":    overlap,
	}
	return r.BuildPipeline(cfg)
}
