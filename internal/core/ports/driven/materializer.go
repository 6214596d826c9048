package driven

import "github.com/custodia-labs/docrag/internal/core/domain"

// IntentDetector decides whether a response should be rendered as a file
// and in which format.
type IntentDetector interface {
	// Detect returns the target format and true when the text should be
	// materialised, or false when it should stay plain text.
	Detect(text string) (domain.DocumentFormat, bool)
}

// DocumentRenderer renders text into a file format.
type DocumentRenderer interface {
	// Format returns the format this renderer produces.
	Format() domain.DocumentFormat

	// Render returns the encoded file bytes.
	Render(content string) ([]byte, error)
}
