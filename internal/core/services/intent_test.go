package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

func TestKeywordIntentDetector_Detect(t *testing.T) {
	d := NewKeywordIntentDetector()

	tests := []struct {
		name     string
		text     string
		format   domain.DocumentFormat
		detected bool
	}{
		{name: "no trigger", text: "The weather today is sunny.", detected: false},
		{name: "format word without trigger", text: "The table has four legs.", detected: false},
		{name: "document trigger", text: "Here is the document you requested: ...", format: domain.FormatDOCX, detected: true},
		{name: "case insensitive", text: "HERE'S THE DOCUMENT", format: domain.FormatDOCX, detected: true},
		{name: "spreadsheet", text: "I've put the numbers in a spreadsheet.", format: domain.FormatXLSX, detected: true},
		{name: "invoice with table", text: "Invoice:\nItem\tAmount\nLicence\t900\nSee the table above.", format: domain.FormatXLSX, detected: true},
		{name: "report defaults to pdf", text: "Report:\nQ3 revenue grew 12%.", format: domain.FormatPDF, detected: true},
		{name: "memo", text: "Memo: office closed Friday.", format: domain.FormatDOCX, detected: true},
		{name: "tabular wins over rich text", text: "Contract: pricing table follows.", format: domain.FormatXLSX, detected: true},
		{name: "csv", text: "I have created the export as CSV.", format: domain.FormatXLSX, detected: true},
		{name: "empty", text: "", detected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			format, ok := d.Detect(tt.text)
			assert.Equal(t, tt.detected, ok)
			assert.Equal(t, tt.format, format)
		})
	}
}
