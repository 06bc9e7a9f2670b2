package domain

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validAgentFile() *AgentFile {
	now := time.Now().UTC()
	return &AgentFile{
		ID:         "file-1",
		AgentID:    "agent-1",
		Owner:      "owner-1",
		FileName:   "handbook.pdf",
		FileType:   "application/pdf",
		Content:    "some text",
		Size:       9,
		UploadedAt: now,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func TestValidateAgentFile(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *AgentFile)
		errMsg string
	}{
		{name: "valid", mutate: func(f *AgentFile) {}},
		{name: "empty content is allowed", mutate: func(f *AgentFile) { f.Content = "" }},
		{name: "missing ID", mutate: func(f *AgentFile) { f.ID = "" }, errMsg: "agent file ID is required"},
		{name: "missing agent", mutate: func(f *AgentFile) { f.AgentID = "" }, errMsg: "agent file AgentID is required"},
		{name: "missing owner", mutate: func(f *AgentFile) { f.Owner = "" }, errMsg: "agent file Owner is required"},
		{name: "missing name", mutate: func(f *AgentFile) { f.FileName = "" }, errMsg: "agent file FileName is required"},
		{name: "missing type", mutate: func(f *AgentFile) { f.FileType = "" }, errMsg: "agent file FileType is required"},
		{name: "negative size", mutate: func(f *AgentFile) { f.Size = -1 }, errMsg: "agent file Size cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validAgentFile()
			tt.mutate(f)
			err := ValidateAgentFile(f)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Equal(t, tt.errMsg, err.Error())
				return
			}
			assert.NoError(t, err)
		})
	}

	assert.EqualError(t, ValidateAgentFile(nil), "agent file cannot be nil")
}

func TestAgentFile_HasContent(t *testing.T) {
	f := validAgentFile()
	assert.True(t, f.HasContent())

	f.Content = " \n\t "
	assert.False(t, f.HasContent())
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "plain", SanitizeText("plain"))
	assert.Equal(t, "ab", SanitizeText("a\x00b"))
	assert.Equal(t, "caf\uFFFD", SanitizeText("caf\xe9"))
	assert.Equal(t, "héllo", SanitizeText("héllo"))
}

func TestAgentFile_MarkTrained(t *testing.T) {
	f := validAgentFile()
	later := f.UpdatedAt.Add(time.Minute)

	f.MarkTrained(later)

	assert.True(t, f.Trained)
	assert.False(t, f.Indexed)
	assert.Equal(t, later, f.UpdatedAt)
}

func TestNewQAContent(t *testing.T) {
	got := NewQAContent("  What are your hours? ", "9 to 5\n")
	assert.Equal(t, "Question: What are your hours?\nAnswer: 9 to 5", got)
}

func TestTrainingJobStatus(t *testing.T) {
	assert.True(t, TrainingJobStatusPending.IsActive())
	assert.True(t, TrainingJobStatusProcessing.IsActive())
	assert.False(t, TrainingJobStatusCompleted.IsActive())
	assert.False(t, TrainingJobStatus("queued").IsValid())

	job := &TrainingJob{ID: "j1", AgentID: "a1", Status: "queued"}
	assert.Equal(t, ErrInvalidTrainingJobState, ValidateTrainingJob(job))

	job.Status = TrainingJobStatusPending
	assert.NoError(t, ValidateTrainingJob(job))
}

func TestProviderError(t *testing.T) {
	cause := errors.New("invalid api token")
	err := fmt.Errorf("embed batch: %w", &ProviderError{Provider: "cohere", StatusCode: http.StatusUnauthorized, Err: cause})

	pe, ok := AsProviderError(err)
	require.True(t, ok)
	assert.True(t, pe.IsAuth())
	assert.False(t, pe.IsRateLimited())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "cohere: status 401: invalid api token", pe.Error())

	_, ok = AsProviderError(errors.New("plain"))
	assert.False(t, ok)
}

func TestDomainError_Is(t *testing.T) {
	wrapped := NewDomainErrorWithCause(ErrCodeNotFound, "agent not found", errors.New("no rows"))

	assert.ErrorIs(t, wrapped, ErrAgentNotFound)
	assert.NotErrorIs(t, wrapped, ErrAgentFileNotFound)
	assert.Equal(t, "[NOT_FOUND] agent not found: no rows", wrapped.Error())
}
