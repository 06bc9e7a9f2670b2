package extract

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/tmc/langchaingo/documentloaders"
	"github.com/tmc/langchaingo/schema"
)

// Supported upload types.
const (
	TypePDF      = "application/pdf"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeMSWord   = "application/msword"
	TypeText     = "text/plain"
	TypeMarkdown = "text/markdown"
	TypeHTML     = "text/html"
)

var extensionTypes = map[string]string{
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
	".doc":      TypeMSWord,
	".txt":      TypeText,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".html":     TypeHTML,
	".htm":      TypeHTML,
}

// Result is the text pulled out of one upload.
type Result struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// Extract converts an uploaded file into plain text. The declared content type
// wins; the file extension is only consulted when the type is missing or generic.
func Extract(ctx context.Context, name, contentType string, data []byte) (*Result, error) {
	if len(data) == 0 {
		return nil, domain.ErrEmptyUpload
	}
	if name == "" {
		name = "uploaded"
	}

	fileType := DetectType(name, contentType)
	var (
		text string
		err  error
	)
	switch fileType {
	case TypePDF:
		text, err = extractPDF(ctx, data)
	case TypeDOCX, TypeMSWord:
		text, err = extractDOCX(data)
	case TypeText, TypeMarkdown:
		text = string(data)
	case TypeHTML:
		text, err = extractHTML(ctx, data)
	default:
		return nil, domain.ErrUnsupportedFileType
	}
	if err != nil {
		return nil, domain.NewDomainErrorWithCause(domain.ErrUnreadableFile.Code, domain.ErrUnreadableFile.Message, err)
	}

	return &Result{
		Name:    name,
		Type:    fileType,
		Content: domain.SanitizeText(text),
		Size:    int64(len(data)),
	}, nil
}

// DetectType normalizes a content type, falling back to the file extension.
func DetectType(name, contentType string) string {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			contentType = mediaType
		}
	}
	if contentType != "" && contentType != "application/octet-stream" {
		return strings.ToLower(contentType)
	}
	return extensionTypes[strings.ToLower(filepath.Ext(name))]
}

func extractPDF(ctx context.Context, data []byte) (string, error) {
	docs, err := documentloaders.NewPDF(bytes.NewReader(data), int64(len(data))).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}
	return joinPages(docs, "\n"), nil
}

func extractHTML(ctx context.Context, data []byte) (string, error) {
	docs, err := documentloaders.NewHTML(bytes.NewReader(data)).Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read html: %w", err)
	}
	return strings.Join(strings.Fields(joinPages(docs, " ")), " "), nil
}

func joinPages(docs []schema.Document, sep string) string {
	pages := make([]string, 0, len(docs))
	for _, d := range docs {
		if page := strings.TrimSpace(d.PageContent); page != "" {
			pages = append(pages, page)
		}
	}
	return strings.Join(pages, sep)
}

// extractDOCX emits one line per non-blank paragraph.
func extractDOCX(data []byte) (string, error) {
	text, _, err := docconv.ConvertDocx(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to read docx: %w", err)
	}

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}
