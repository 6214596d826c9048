// Package markdown provides a Normaliser for Markdown documents.
package markdown

import (
	"context"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
	"github.com/custodia-labs/docrag/internal/normalisers/extract"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct{}

// New creates a new Markdown normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// SupportedMIMETypes returns the MIME types this normaliser handles.
func (n *Normaliser) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

// SupportedExtensions returns the file extensions this normaliser handles.
func (n *Normaliser) SupportedExtensions() []string {
	return []string{".md", ".markdown", ".mdown"}
}

// Priority returns the selection priority.
func (n *Normaliser) Priority() int {
	return 50 // Generic MIME normaliser, higher than plaintext
}

// Normalise converts a markdown document to plain text.
// YAML front matter is parsed for a title and removed from the content.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawDocument) (*driven.NormaliseResult, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	body := strings.ReplaceAll(string(raw.Content), "\r\n", "\n")
	front, body := splitFrontMatter(body)

	title := front.Title
	if title == "" {
		title = firstHeading(body)
	}
	if title == "" {
		title = extract.Title(raw)
	}

	result := extract.Result(raw, title, stripMarkdown(body), "markdown")
	if len(front.Tags) > 0 {
		result.Document.Metadata["tags"] = front.Tags
	}
	return result, nil
}

type frontMatter struct {
	Title string   `yaml:"title"`
	Tags  []string `yaml:"tags"`
}

// splitFrontMatter separates a leading "---" delimited YAML block.
// Malformed front matter is left in the body.
func splitFrontMatter(body string) (frontMatter, string) {
	var fm frontMatter
	if !strings.HasPrefix(body, "---\n") {
		return fm, body
	}
	end := strings.Index(body[4:], "\n---")
	if end < 0 {
		return fm, body
	}
	block := body[4 : 4+end]
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return frontMatter{}, body
	}
	rest := body[4+end+4:]
	return fm, strings.TrimPrefix(rest, "\n")
}

var (
	h1Line        = regexp.MustCompile(`(?m)^#\s+(.+?)\s*#*\s*$`)
	fencedCode    = regexp.MustCompile("(?s)```[^\n]*\n(.*?)```")
	inlineCode    = regexp.MustCompile("`([^`]+)`")
	images        = regexp.MustCompile(`!\[([^\]]*)\]\([^)]+\)`)
	links         = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headings      = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	stars         = regexp.MustCompile(`(\*\*|\*)([^*\n]+)(\*\*|\*)`)
	underscores   = regexp.MustCompile(`(^|\W)(__|_)([^_\n]+)(__|_)(\W|$)`)
	blockquote    = regexp.MustCompile(`(?m)^>\s?`)
	rule          = regexp.MustCompile(`(?m)^\s*([-*_]\s*){3,}$`)
	bullets       = regexp.MustCompile(`(?m)^\s*[-*+]\s+(\[[ xX]\]\s+)?`)
	numbered      = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)
	tableDivider  = regexp.MustCompile(`(?m)^\s*\|?\s*:?-{3,}:?\s*(\|\s*:?-{3,}:?\s*)*\|?\s*$`)
	tablePipes    = regexp.MustCompile(`\s*\|\s*`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

func firstHeading(body string) string {
	if m := h1Line.FindStringSubmatch(body); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// stripMarkdown reduces markdown to readable text. Code block contents and
// table cells are kept since business documents often carry figures there.
func stripMarkdown(content string) string {
	content = fencedCode.ReplaceAllString(content, "$1")
	content = inlineCode.ReplaceAllString(content, "$1")
	content = images.ReplaceAllString(content, "$1")
	content = links.ReplaceAllString(content, "$1")
	content = headings.ReplaceAllString(content, "")
	content = rule.ReplaceAllString(content, "")
	content = bullets.ReplaceAllString(content, "")
	content = numbered.ReplaceAllString(content, "")
	content = stars.ReplaceAllString(content, "$2")
	content = underscores.ReplaceAllString(content, "$1$3$5")
	content = blockquote.ReplaceAllString(content, "")
	content = tableDivider.ReplaceAllString(content, "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "|") {
			cells := tablePipes.Split(strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "|")), -1)
			line = strings.Join(cells, "\t")
		}
		lines[i] = strings.TrimRight(line, " \t")
	}
	content = strings.Join(lines, "\n")

	content = multiNewlines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
