package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"unicode/utf8"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

func buildDOCX(t *testing.T, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range map[string]string{
		"[Content_Types].xml": contentTypes,
		"word/document.xml":   body,
	} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Refund policy</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Refunds within </w:t></w:r><w:r><w:t>30 days.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Name</w:t><w:tab/><w:t>Value</w:t></w:r></w:p>
  </w:body>
</w:document>`

func TestExtract_PlainText(t *testing.T) {
	res, err := Extract(context.Background(), "notes.txt", "text/plain; charset=utf-8", []byte("hello world"))

	require.NoError(t, err)
	assert.Equal(t, &Result{Name: "notes.txt", Type: TypeText, Content: "hello world", Size: 11}, res)
}

func TestExtract_MarkdownByExtension(t *testing.T) {
	res, err := Extract(context.Background(), "README.md", "application/octet-stream", []byte("# Title\n\nbody"))

	require.NoError(t, err)
	assert.Equal(t, TypeMarkdown, res.Type)
	assert.Equal(t, "# Title\n\nbody", res.Content)
}

func TestExtract_DOCX(t *testing.T) {
	data := buildDOCX(t, docxBody)

	res, err := Extract(context.Background(), "policy.docx", TypeDOCX, data)

	require.NoError(t, err)
	assert.Contains(t, res.Content, "Refund policy")
	assert.Contains(t, res.Content, "Refunds within")
	assert.Contains(t, res.Content, "30 days.")
	assert.NotContains(t, res.Content, "\n\n")
	assert.Equal(t, int64(len(data)), res.Size)
}

func TestExtract_DOCXNotAZip(t *testing.T) {
	_, err := Extract(context.Background(), "broken.docx", TypeDOCX, []byte("not a docx"))

	assert.ErrorIs(t, err, domain.ErrUnreadableFile)
}

func TestExtract_TextIsMadeStorable(t *testing.T) {
	res, err := Extract(context.Background(), "menu.txt", TypeText, []byte("caf\xe9 menu\x00 item"))

	require.NoError(t, err)
	assert.True(t, utf8.ValidString(res.Content))
	assert.NotContains(t, res.Content, "\x00")
	assert.Equal(t, "caf\uFFFD menu item", res.Content)
	assert.Equal(t, int64(15), res.Size)
}

func TestExtract_HTML(t *testing.T) {
	html := `<html><head><title>T</title></head><body><h1>Hello</h1>
	<p>first   paragraph</p>
	<p>second</p></body></html>`

	res, err := Extract(context.Background(), "page.html", TypeHTML, []byte(html))

	require.NoError(t, err)
	assert.Equal(t, "Hello first paragraph second", res.Content)
}

func TestExtract_InvalidPDF(t *testing.T) {
	_, err := Extract(context.Background(), "doc.pdf", TypePDF, []byte("not a pdf"))

	assert.ErrorIs(t, err, domain.ErrUnreadableFile)
}

func TestExtract_UnsupportedType(t *testing.T) {
	_, err := Extract(context.Background(), "image.png", "image/png", []byte{0x89, 0x50})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedFileType)
	assert.Contains(t, err.Error(), "Unsupported file type")
}

func TestExtract_EmptyUpload(t *testing.T) {
	_, err := Extract(context.Background(), "empty.txt", TypeText, nil)

	assert.ErrorIs(t, err, domain.ErrEmptyUpload)
}

func TestExtract_DefaultName(t *testing.T) {
	res, err := Extract(context.Background(), "", TypeText, []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, "uploaded", res.Name)
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		want        string
	}{
		{"declared type wins", "a.txt", "application/pdf", TypePDF},
		{"params stripped", "a", "text/html; charset=utf-8", TypeHTML},
		{"octet stream falls back", "a.DOCX", "application/octet-stream", TypeDOCX},
		{"empty falls back", "a.htm", "", TypeHTML},
		{"unknown", "a.bin", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectType(tt.file, tt.contentType))
		})
	}
}
