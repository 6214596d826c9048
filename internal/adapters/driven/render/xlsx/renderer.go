// Package xlsx renders delimited text into a single-sheet workbook.
package xlsx

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/docrag/internal/core/domain"
	"github.com/custodia-labs/docrag/internal/core/ports/driven"
)

var _ driven.DocumentRenderer = (*Renderer)(nil)

// SheetName is the name of the only worksheet.
const SheetName = "Sheet1"

// Renderer writes one row per non-empty line. Markdown table rows are split
// on pipes, other lines on tabs, else commas, else kept as one cell.
// Numeric cells are stored as numbers.
type Renderer struct{}

// New creates an XLSX renderer.
func New() *Renderer {
	return &Renderer{}
}

// Format returns domain.FormatXLSX.
func (r *Renderer) Format() domain.DocumentFormat {
	return domain.FormatXLSX
}

// Render returns the workbook bytes.
func (r *Renderer) Render(content string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	row := 1
	for _, line := range strings.Split(content, "\n") {
		cells, ok := SplitRow(line)
		if !ok {
			continue
		}
		values := make([]any, len(cells))
		for i, c := range cells {
			values[i] = cellValue(c)
		}
		start, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return nil, fmt.Errorf("xlsx row %d: %w", row, err)
		}
		row++
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

// SplitRow splits a line into trimmed cells. It reports false for blank
// lines and markdown separator rows.
func SplitRow(line string) ([]string, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}

	var cells []string
	switch {
	case strings.HasPrefix(line, "|"):
		inner := strings.TrimSuffix(strings.TrimPrefix(line, "|"), "|")
		if strings.Trim(inner, "|-: ") == "" {
			return nil, false
		}
		cells = strings.Split(inner, "|")
	case strings.Contains(line, "\t"):
		cells = strings.Split(line, "\t")
	case strings.Contains(line, ","):
		cells = strings.Split(line, ",")
	default:
		cells = []string{line}
	}

	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells, true
}

// cellValue writes finite numbers as numeric cells. NaN and infinities stay
// text, as Excel has no representation for them.
func cellValue(s string) any {
	if n, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	return s
}
