// Package plaintext is the fallback normaliser: any UTF-8 text file is
// indexed as it is, including CSV, JSON and YAML that no other normaliser
// claims.
package plaintext

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/normalisers/extract"
)

var _ driven.Normaliser = (*Normaliser)(nil)

var (
	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
	lineEndings   = strings.NewReplacer("\r\n", "\n", "\r", "\n")
)

type Normaliser struct{}

func New() *Normaliser { return &Normaliser{} }

func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
		"text/tab-separated-values",
		"text/yaml",
		"application/json",
		"application/xml",
		"text/xml",
	}
}

func (n *Normaliser) SupportedExtensions() []string {
	return []string{".txt", ".text", ".log", ".csv", ".tsv", ".json", ".yaml", ".yml", ".xml"}
}

// Priority is below every format-specific normaliser.
func (n *Normaliser) Priority() int { return 5 }

// Normalise drops a UTF-8 byte order mark and unifies line endings. Bytes
// that are not UTF-8, or that contain NUL, are treated as binary and
// rejected with domain.ErrUnsupportedType.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	body := bytes.TrimPrefix(raw.Content, byteOrderMark)
	if !utf8.Valid(body) || bytes.IndexByte(body, 0) >= 0 {
		return nil, fmt.Errorf("%s looks binary, not text: %w", raw.URI, domain.ErrUnsupportedType)
	}

	content := strings.TrimSpace(lineEndings.Replace(string(body)))
	return extract.Result(raw, extract.Title(raw), content, "plaintext"), nil
}
