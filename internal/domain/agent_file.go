package domain

import (
	"fmt"
	"strings"
	"time"
)

// File types assigned by the built-in producers. Extracted uploads keep their MIME type.
const (
	FileTypeText    = "Text"
	FileTypeQA      = "Q&A"
	FileTypeWebsite = "website"
)

// AgentFile is a piece of ingestible content owned by an agent.
type AgentFile struct {
	ID         string
	AgentID    string
	Owner      string
	FileName   string
	FileType   string
	Content    string
	Size       int64
	Trained    bool // at least one chunk was embedded in the last run
	Indexed    bool // the run that embedded it also completed its upsert
	UploadedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SanitizeText makes text storable in a Postgres TEXT column: NUL bytes are
// dropped and invalid UTF-8 sequences become U+FFFD.
func SanitizeText(s string) string {
	return strings.ToValidUTF8(strings.ReplaceAll(s, "\x00", ""), "\uFFFD")
}

// HasContent reports whether the file carries any non-blank text.
func (f *AgentFile) HasContent() bool {
	return strings.TrimSpace(f.Content) != ""
}

// MarkTrained flags the file as embedded and bumps UpdatedAt.
func (f *AgentFile) MarkTrained(now time.Time) {
	f.Trained = true
	f.UpdatedAt = now
}

// NewQAContent renders a question/answer pair into the stored content format.
func NewQAContent(question, answer string) string {
	return fmt.Sprintf("Question: %s\nAnswer: %s", strings.TrimSpace(question), strings.TrimSpace(answer))
}

// ValidateAgentFile validates an AgentFile instance
func ValidateAgentFile(f *AgentFile) error {
	if f == nil {
		return fmt.Errorf("agent file cannot be nil")
	}

	if f.ID == "" {
		return fmt.Errorf("agent file ID is required")
	}

	if f.AgentID == "" {
		return fmt.Errorf("agent file AgentID is required")
	}

	if f.Owner == "" {
		return fmt.Errorf("agent file Owner is required")
	}

	if f.FileName == "" {
		return fmt.Errorf("agent file FileName is required")
	}

	if f.FileType == "" {
		return fmt.Errorf("agent file FileType is required")
	}

	if f.Size < 0 {
		return fmt.Errorf("agent file Size cannot be negative")
	}

	return nil
}
