package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docrag/internal/core/domain"
)

const wordNS = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`

// buildDOCX creates a minimal DOCX archive in memory.
func buildDOCX(t *testing.T, documentXML, coreXML string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	parts := map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
	}
	if documentXML != "" {
		parts["word/document.xml"] = documentXML
	}
	if coreXML != "" {
		parts["docProps/core.xml"] = coreXML
	}
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func normalise(t *testing.T, content []byte) (*domain.Document, error) {
	t.Helper()
	result, err := New().Normalise(context.Background(), &domain.RawDocument{
		DocumentID: "contract",
		OwnerID:    "owner-1",
		URI:        "/uploads/service_contract.docx",
		MIMEType:   MIMEType,
		Content:    content,
	})
	if err != nil {
		return nil, err
	}
	return &result.Document, nil
}

func TestSupportedTypes(t *testing.T) {
	n := New()
	assert.Equal(t, []string{MIMEType}, n.SupportedMIMETypes())
	assert.Equal(t, []string{".docx"}, n.SupportedExtensions())
	assert.Equal(t, 50, n.Priority())
}

func TestNormalise_ParagraphsAndTitle(t *testing.T) {
	body := `<w:document ` + wordNS + `><w:body>
<w:p><w:r><w:t>Service </w:t></w:r><w:r><w:t>Agreement</w:t></w:r></w:p>
<w:p><w:r><w:t>Term:</w:t><w:tab/><w:t>12 months</w:t></w:r></w:p>
</w:body></w:document>`
	core := `<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties" xmlns:dc="http://purl.org/dc/elements/1.1/"><dc:title>MSA 2024</dc:title></cp:coreProperties>`

	doc, err := normalise(t, buildDOCX(t, body, core))
	require.NoError(t, err)

	assert.Equal(t, "contract", doc.ID)
	assert.Equal(t, "owner-1", doc.OwnerID)
	assert.Equal(t, "MSA 2024", doc.Title)
	assert.Equal(t, "Service Agreement\nTerm:\t12 months", doc.Content)
	assert.Equal(t, "docx", doc.Metadata["format"])
}

func TestNormalise_Tables(t *testing.T) {
	body := `<w:document ` + wordNS + `><w:body>
<w:tbl>
<w:tr><w:tc><w:p><w:r><w:t>Item</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Amount</w:t></w:r></w:p></w:tc></w:tr>
<w:tr><w:tc><w:p><w:r><w:t>Licence</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>900</w:t></w:r></w:p></w:tc></w:tr>
</w:tbl>
<w:p><w:r><w:t>Total 900</w:t></w:r></w:p>
</w:body></w:document>`

	doc, err := normalise(t, buildDOCX(t, body, ""))
	require.NoError(t, err)

	assert.Equal(t, "Item\tAmount\nLicence\t900\nTotal 900", doc.Content)
	assert.Equal(t, "service contract", doc.Title)
}

func TestNormalise_InvalidZip(t *testing.T) {
	_, err := normalise(t, []byte("not a zip"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MissingDocumentPart(t *testing.T) {
	_, err := normalise(t, buildDOCX(t, "", ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_MalformedXML(t *testing.T) {
	_, err := normalise(t, buildDOCX(t, `<w:document `+wordNS+`><w:body><w:p>`, ""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNormalise_NilDocument(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
