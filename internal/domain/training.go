package domain

import (
	"fmt"
	"time"
)

// TrainResult is the outcome of one training run.
type TrainResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	ChunksTrained int    `json:"chunksTrained"`
}

// TrainingJobStatus represents the status of a queued training run
type TrainingJobStatus string

const (
	TrainingJobStatusPending    TrainingJobStatus = "pending"
	TrainingJobStatusProcessing TrainingJobStatus = "processing"
	TrainingJobStatusCompleted  TrainingJobStatus = "completed"
	TrainingJobStatusFailed     TrainingJobStatus = "failed"
)

// IsValid checks if the TrainingJobStatus is valid
func (s TrainingJobStatus) IsValid() bool {
	switch s {
	case TrainingJobStatusPending, TrainingJobStatusProcessing, TrainingJobStatusCompleted, TrainingJobStatusFailed:
		return true
	}
	return false
}

// IsActive reports whether the job still occupies the agent's training slot.
func (s TrainingJobStatus) IsActive() bool {
	return s == TrainingJobStatusPending || s == TrainingJobStatusProcessing
}

// TrainingJob is an asynchronous training run for one agent
type TrainingJob struct {
	ID            string
	AgentID       string
	Owner         string
	Status        TrainingJobStatus
	Retries       int32
	ChunksTrained int
	Message       string
	Error         string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// ValidateTrainingJob validates a TrainingJob instance
func ValidateTrainingJob(j *TrainingJob) error {
	if j == nil {
		return fmt.Errorf("training job cannot be nil")
	}

	if j.ID == "" {
		return fmt.Errorf("training job ID is required")
	}

	if j.AgentID == "" {
		return fmt.Errorf("training job AgentID is required")
	}

	if !j.Status.IsValid() {
		return ErrInvalidTrainingJobState
	}

	return nil
}
