// Package extract holds helpers shared by the format normalisers.
package extract

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

// Result builds the normalised document for raw with the extracted title
// and text. format is recorded in the metadata next to the MIME type.
func Result(raw *domain.RawDocument, title, content, format string) *driven.NormaliseResult {
	id := raw.DocumentID
	if id == "" {
		id = uuid.New().String()
	}

	metadata := make(map[string]any, len(raw.Metadata)+2)
	for k, v := range raw.Metadata {
		metadata[k] = v
	}
	metadata["mime_type"] = raw.MIMEType
	metadata["format"] = format

	return &driven.NormaliseResult{
		Document: domain.Document{
			ID:        id,
			OwnerID:   raw.OwnerID,
			URI:       raw.URI,
			Title:     title,
			Content:   content,
			Metadata:  metadata,
			CreatedAt: time.Now(),
		},
	}
}

// Title returns metadata["title"] when set, otherwise a title derived from
// the file name in uri.
func Title(raw *domain.RawDocument) string {
	if title, ok := raw.Metadata["title"].(string); ok && title != "" {
		return title
	}
	return TitleFromURI(raw.URI)
}

// TitleFromURI turns "/path/q3_sales-report.md" into "q3 sales report".
func TitleFromURI(uri string) string {
	name := filepath.Base(uri)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return strings.NewReplacer("_", " ", "-", " ").Replace(name)
}
