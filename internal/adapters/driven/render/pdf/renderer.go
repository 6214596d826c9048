// Package pdf renders plain text into an A4 PDF.
package pdf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.DocumentRenderer = (*Renderer)(nil)

// Layout in millimetres and points.
const (
	margin     = 20.0
	fontSize   = 11.0
	lineHeight = 6.0
)

// Renderer writes each line of text word-wrapped to the page width and
// starts a new page when the next line would overflow.
type Renderer struct {
	// Title is set in the document metadata when non-empty.
	Title string
}

// New creates a PDF renderer.
func New() *Renderer {
	return &Renderer{}
}

// Format returns domain.FormatPDF.
func (r *Renderer) Format() domain.DocumentFormat {
	return domain.FormatPDF
}

// Render lays out content and returns the PDF bytes.
func (r *Renderer) Render(content string) ([]byte, error) {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(false, margin)
	if r.Title != "" {
		doc.SetTitle(r.Title, true)
	}
	doc.SetFont("Helvetica", "", fontSize)
	doc.AddPage()

	// Core fonts are cp1252; translate so accented text survives.
	tr := doc.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := doc.GetPageSize()
	width := pageW - 2*margin
	bottom := pageH - margin

	for _, line := range strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n") {
		wrapped := []string{""}
		if strings.TrimSpace(line) != "" {
			wrapped = doc.SplitText(tr(line), width)
		}
		for _, w := range wrapped {
			if doc.GetY()+lineHeight > bottom {
				doc.AddPage()
			}
			doc.CellFormat(width, lineHeight, w, "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf output: %w", err)
	}
	return buf.Bytes(), nil
}
