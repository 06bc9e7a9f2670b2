package jobs

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/telemetry"
	"github.com/panjf2000/ants/v2"
)

const (
	// MaxRetries is the maximum number of attempts for a training job
	MaxRetries = 3
)

// TrainingJobRepository defines the persistence the worker needs
type TrainingJobRepository interface {
	// ClaimPending moves up to limit pending jobs to processing and returns them
	ClaimPending(ctx context.Context, limit int) ([]*domain.TrainingJob, error)
	Complete(ctx context.Context, id string, result *domain.TrainResult) error
	Retry(ctx context.Context, id, errMsg string) error
	// Requeue returns a claimed job to pending without counting an attempt
	Requeue(ctx context.Context, id string) error
	Fail(ctx context.Context, id, errMsg string) error
}

// Trainer runs one training pass for an agent
type Trainer interface {
	TrainAgent(ctx context.Context, agentID string) *domain.TrainResult
}

// TrainingWorker drains queued training jobs with a bounded goroutine pool
type TrainingWorker struct {
	repo    TrainingJobRepository
	trainer Trainer
	pool    *ants.Pool
	batch   int
}

// NewTrainingWorker creates a TrainingWorker running at most workers jobs at once
func NewTrainingWorker(repo TrainingJobRepository, trainer Trainer, workers int) (*TrainingWorker, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create training pool: %w", err)
	}
	return &TrainingWorker{
		repo:    repo,
		trainer: trainer,
		pool:    pool,
		batch:   workers,
	}, nil
}

// Release frees the pool. The worker must not be used afterwards.
func (w *TrainingWorker) Release() {
	w.pool.Release()
}

// ProcessJobs implements the JobProcessor interface
func (w *TrainingWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, w.batch)
	if err != nil {
		return fmt.Errorf("failed to claim training jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d training jobs", len(jobs))

	var wg sync.WaitGroup
	for _, job := range jobs {
		wg.Add(1)
		if err := w.pool.Submit(func() {
			defer wg.Done()
			if err := w.processJob(ctx, job); err != nil {
				log.Printf("Error processing training job %s: %v", job.ID, err)
			}
		}); err != nil {
			wg.Done()
			// claimed but never started; hand it back
			if rerr := w.repo.Requeue(context.WithoutCancel(ctx), job.ID); rerr != nil {
				log.Printf("Error releasing training job %s: %v", job.ID, rerr)
			}
		}
	}
	wg.Wait()

	return nil
}

func (w *TrainingWorker) processJob(ctx context.Context, job *domain.TrainingJob) error {
	ctx, span := telemetry.StartSpan(ctx, "training.job", telemetry.SpanAttributes{
		OwnerID:   job.Owner,
		AgentID:   job.AgentID,
		JobID:     job.ID,
		Operation: "train_job",
	})
	defer span.End()

	log.Printf("Training agent %s (job %s)", job.AgentID, job.ID)

	result := w.trainer.TrainAgent(ctx, job.AgentID)
	span.SetData("retries", job.Retries)

	// status writes must land even when the run was cut short by shutdown
	statusCtx := context.WithoutCancel(ctx)

	if result == nil {
		result = &domain.TrainResult{Message: "trainer returned no result"}
	}
	if !result.Success && ctx.Err() != nil {
		log.Printf("Training job %s interrupted, returning it to the queue", job.ID)
		if err := w.repo.Requeue(statusCtx, job.ID); err != nil {
			return fmt.Errorf("failed to requeue interrupted job: %w", err)
		}
		return nil
	}
	if !result.Success {
		return w.handleJobFailure(statusCtx, job, result.Message)
	}

	if err := w.repo.Complete(statusCtx, job.ID, result); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}

	log.Printf("Training job %s completed: %d chunks", job.ID, result.ChunksTrained)
	return nil
}

func (w *TrainingWorker) handleJobFailure(ctx context.Context, job *domain.TrainingJob, message string) error {
	log.Printf("Training job %s failed: %s", job.ID, message)

	if job.Retries+1 >= MaxRetries {
		log.Printf("Training job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		telemetry.CaptureError(ctx, fmt.Errorf("training job %s for agent %s failed: %s", job.ID, job.AgentID, message))
		if err := w.repo.Fail(ctx, job.ID, fmt.Sprintf("max retries exceeded: %s", message)); err != nil {
			return fmt.Errorf("failed to mark job failed: %w", err)
		}
		return nil
	}

	log.Printf("Training job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	if err := w.repo.Retry(ctx, job.ID, fmt.Sprintf("retry %d: %s", job.Retries+1, message)); err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}
	return nil
}
