package html

import (
	"context"
	"html"
	"regexp"
	"strings"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/normalisers/extract"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".html", ".htm", ".xhtml"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50
}

// Normalise converts an HTML document to plain text.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	page := string(raw.Content)

	title := pageTitle(page)
	if title == "" {
		title = extract.Title(raw)
	}

	result := extract.Result(raw, title, stripHTML(page), "html")
	if desc := metaDescription(page); desc != "" {
		result.Document.Metadata["description"] = desc
	}
	return result, nil
}

var (
	titleTag      = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescTag   = regexp.MustCompile(`(?is)<meta\s+[^>]*name=["']description["'][^>]*content=["']([^"']*)["']`)
	droppedBlocks = regexp.MustCompile(`(?is)<(script|style|noscript|head|svg|template)(\s[^>]*)?>.*?</(script|style|noscript|head|svg|template)>`)
	comments      = regexp.MustCompile(`(?s)<!--.*?-->`)
	cellEnd       = regexp.MustCompile(`(?i)</t[dh]>`)
	lineBreaks    = regexp.MustCompile(`(?i)<(br|hr)\s*/?>`)
	blockTags     = regexp.MustCompile(`(?i)</?(p|div|h[1-6]|li|ul|ol|tr|table|blockquote|pre|section|article|header|footer|main)[^>]*>`)
	anyTag        = regexp.MustCompile(`<[^>]+>`)
	spaceRuns     = regexp.MustCompile(`[ \f\v\r]+`)
	tabRuns       = regexp.MustCompile(` *\t[ \t]*`)
)

func pageTitle(page string) string {
	if m := titleTag.FindStringSubmatch(page); len(m) > 1 {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	return ""
}

func metaDescription(page string) string {
	if m := metaDescTag.FindStringSubmatch(page); len(m) > 1 {
		return strings.TrimSpace(html.UnescapeString(m[1]))
	}
	return ""
}

// stripHTML keeps one line per block element and separates table cells
// with tabs so rows survive as tabular text.
func stripHTML(page string) string {
	page = droppedBlocks.ReplaceAllString(page, "")
	page = comments.ReplaceAllString(page, "")
	page = strings.NewReplacer("\t", " ", "\n", " ").Replace(page)
	page = cellEnd.ReplaceAllString(page, "\t")
	page = lineBreaks.ReplaceAllString(page, "\n")
	page = blockTags.ReplaceAllString(page, "\n")
	page = anyTag.ReplaceAllString(page, "")
	page = html.UnescapeString(page)
	page = spaceRuns.ReplaceAllString(page, " ")
	page = tabRuns.ReplaceAllString(page, "\t")

	var lines []string
	for _, line := range strings.Split(page, "\n") {
		line = strings.Trim(line, " \t")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
