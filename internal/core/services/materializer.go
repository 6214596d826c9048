package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/logger"
)

// Materializer renders document-like responses into downloadable files.
// Output is returned as a data URI; nothing is written to disk.
type Materializer struct {
	detector  driven.IntentDetector
	renderers map[domain.DocumentFormat]driven.DocumentRenderer
	now       func() time.Time
}

// MaterializerOption configures a Materializer.
type MaterializerOption func(*Materializer)

// WithIntentDetector replaces the keyword intent detector.
func WithIntentDetector(d driven.IntentDetector) MaterializerOption {
	return func(m *Materializer) {
		m.detector = d
	}
}

// WithClock sets the time source used for file names.
func WithClock(now func() time.Time) MaterializerOption {
	return func(m *Materializer) {
		m.now = now
	}
}

// NewMaterializer creates a materializer for the given renderers.
func NewMaterializer(renderers []driven.DocumentRenderer, opts ...MaterializerOption) *Materializer {
	m := &Materializer{
		detector:  NewKeywordIntentDetector(),
		renderers: make(map[domain.DocumentFormat]driven.DocumentRenderer, len(renderers)),
		now:       time.Now,
	}
	for _, r := range renderers {
		m.renderers[r.Format()] = r
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// MaybeGenerate renders responseText when it reads as a document.
// It returns nil, nil when no document intent is detected.
func (m *Materializer) MaybeGenerate(ctx context.Context, responseText string) (*domain.GeneratedDocument, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, ok := m.detector.Detect(responseText)
	if !ok {
		return nil, nil
	}

	renderer, ok := m.renderers[format]
	if !ok {
		return nil, fmt.Errorf("%w: no renderer for %s", domain.ErrDocumentRender, format)
	}

	data, err := renderer.Render(responseText)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDocumentRender, format, err)
	}

	generatedAt := m.now()
	mimeType := format.MIMEType()
	logger.Debug("Materialised %s (%d bytes)", format, len(data))

	return &domain.GeneratedDocument{
		Name:        fmt.Sprintf("%s-%s.%s", format.Kind(), generatedAt.Format("20060102-150405"), format.Extension()),
		MIMEType:    mimeType,
		Size:        len(data),
		URL:         "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		Content:     responseText,
		GeneratedAt: generatedAt,
		Format:      format,
	}, nil
}
