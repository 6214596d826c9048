package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// DocumentFormat is the file format of a generated attachment.
type DocumentFormat string

// Supported attachment formats.
const (
	FormatPDF  DocumentFormat = "pdf"
	FormatDOCX DocumentFormat = "docx"
	FormatXLSX DocumentFormat = "xlsx"
)

// Extension returns the file extension without a leading dot.
func (f DocumentFormat) Extension() string {
	return string(f)
}

// MIMEType returns the content type of the format.
func (f DocumentFormat) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// Kind returns the name prefix used for files of this format.
func (f DocumentFormat) Kind() string {
	switch f {
	case FormatXLSX:
		return "spreadsheet"
	case FormatDOCX:
		return "document"
	case FormatPDF:
		return "report"
	default:
		return "file"
	}
}

// GeneratedDocument is a rendered attachment returned with a response.
// Nothing is written to the filesystem; URL carries the bytes.
type GeneratedDocument struct {
	// Name is "<kind>-<yyyyMMdd-HHmmss>.<ext>".
	Name string `json:"name" yaml:"name"`

	// MIMEType is the content type of the rendered bytes.
	MIMEType string `json:"type" yaml:"type"`

	// Size is the rendered byte count.
	Size int `json:"size" yaml:"size"`

	// URL is a base64 data URI of the rendered bytes.
	URL string `json:"url" yaml:"url"`

	// Content is the response text the file was rendered from.
	Content string `json:"content" yaml:"content"`

	// GeneratedAt is when the file was rendered.
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`

	// Format is the attachment format.
	Format DocumentFormat `json:"-" yaml:"-"`
}

// Decode returns the bytes carried by URL.
func (d *GeneratedDocument) Decode() ([]byte, error) {
	_, encoded, ok := strings.Cut(d.URL, ";base64,")
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a base64 data uri", ErrInvalidInput, d.Name)
	}
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", d.Name, err)
	}
	return data, nil
}
