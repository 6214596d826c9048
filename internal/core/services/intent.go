package services

import (
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Ensure KeywordIntentDetector implements the interface.
var _ driven.IntentDetector = (*KeywordIntentDetector)(nil)

// Phrases that mark a response as a document to hand back as a file.
// Kept short on purpose: a missed file is cheaper than an unwanted one.
var documentTriggers = []string{
	"here is the document",
	"here's the document",
	"report:",
	"invoice:",
	"spreadsheet",
	"contract:",
	"proposal:",
	"letter:",
	"agreement:",
	"memo:",
	"here is your",
	"i've created",
	"i have created",
	"generated document",
}

// Format terms, checked tabular first.
var (
	tabularTerms  = []string{"spreadsheet", "table", "data analysis", "financial report", "excel", "csv"}
	richTextTerms = []string{"document", "letter", "contract", "agreement", "proposal", "memo"}
)

// KeywordIntentDetector detects document intent by case-insensitive phrase
// matching.
type KeywordIntentDetector struct{}

// NewKeywordIntentDetector creates the default intent detector.
func NewKeywordIntentDetector() *KeywordIntentDetector {
	return &KeywordIntentDetector{}
}

// Detect returns the format to render text in, or false when no trigger
// phrase is present.
func (d *KeywordIntentDetector) Detect(text string) (domain.DocumentFormat, bool) {
	lower := strings.ToLower(text)
	if !containsAny(lower, documentTriggers) {
		return "", false
	}

	switch {
	case containsAny(lower, tabularTerms):
		return domain.FormatXLSX, true
	case containsAny(lower, richTextTerms):
		return domain.FormatDOCX, true
	default:
		return domain.FormatPDF, true
	}
}

func containsAny(s string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(s, term) {
			return true
		}
	}
	return false
}
