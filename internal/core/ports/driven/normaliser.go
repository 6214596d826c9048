package driven

import (
	"context"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

// Normaliser extracts plain text from one family of file formats.
type Normaliser interface {
	// SupportedMIMETypes and SupportedExtensions (".md", ".docx") decide
	// which uploads reach Normalise. Extensions are consulted when no
	// normaliser claims the MIME type of the upload.
	SupportedMIMETypes() []string
	SupportedExtensions() []string

	// Priority breaks ties between normalisers claiming the same type.
	// Fallbacks such as plaintext stay below 10.
	Priority() int

	Normalise(ctx context.Context, raw *domain.RawDocument) (*NormaliseResult, error)
}

// NormaliseResult holds the extracted document. Chunking happens later in
// the PostProcessorPipeline.
type NormaliseResult struct {
	Document domain.Document
}
