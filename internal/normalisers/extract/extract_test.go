package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestTitleFromURI(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"/docs/q3_sales-report.md", "q3 sales report"},
		{"invoice.pdf", "invoice"},
		{"README", "README"},
		{"/a/b/archive.tar.gz", "archive.tar"},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitleFromURI(tt.uri))
		})
	}
}

func TestTitle_PrefersMetadata(t *testing.T) {
	raw := &domain.RawDocument{URI: "/tmp/upload-1.txt", Metadata: map[string]any{"title": "Board Minutes"}}
	assert.Equal(t, "Board Minutes", Title(raw))

	raw.Metadata["title"] = ""
	assert.Equal(t, "upload 1", Title(raw))
}

func TestResult(t *testing.T) {
	raw := &domain.RawDocument{
		DocumentID: "doc-1",
		OwnerID:    "owner-1",
		URI:        "/tmp/notes.txt",
		MIMEType:   "text/plain",
		Metadata:   map[string]any{"size": 10},
	}

	res := Result(raw, "notes", "body", "plaintext")

	doc := res.Document
	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "owner-1", doc.OwnerID)
	assert.Equal(t, "notes", doc.Title)
	assert.Equal(t, "body", doc.Content)
	assert.Equal(t, "text/plain", doc.Metadata["mime_type"])
	assert.Equal(t, "plaintext", doc.Metadata["format"])
	assert.Equal(t, 10, doc.Metadata["size"])
	assert.False(t, doc.CreatedAt.IsZero())

	// Source metadata is not mutated.
	_, leaked := raw.Metadata["format"]
	assert.False(t, leaked)
}

func TestResult_GeneratesIDWhenMissing(t *testing.T) {
	res := Result(&domain.RawDocument{URI: "x.txt"}, "x", "", "plaintext")
	assert.Len(t, res.Document.ID, 36)
}
