package service

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
)

type TrainingJobRepositoryInterface interface {
	Enqueue(ctx context.Context, job *domain.TrainingJob) (*domain.TrainingJob, bool, error)
	GetByID(ctx context.Context, id string) (*domain.TrainingJob, error)
}

// AgentTrainer runs one training pass for an agent.
type AgentTrainer interface {
	TrainAgent(ctx context.Context, agentID string) *domain.TrainResult
}

// TrainingJobService is the caller-facing entry to training, either inline or queued.
type TrainingJobService struct {
	jobs    TrainingJobRepositoryInterface
	agents  AgentAuthorizer
	trainer AgentTrainer
	uuidGen UUIDGenerator
	now     func() time.Time
}

func NewTrainingJobService(jobs TrainingJobRepositoryInterface, agents AgentAuthorizer, trainer AgentTrainer) *TrainingJobService {
	return &TrainingJobService{
		jobs:    jobs,
		agents:  agents,
		trainer: trainer,
		uuidGen: &DefaultUUIDGenerator{},
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *TrainingJobService) WithUUIDGenerator(gen UUIDGenerator) *TrainingJobService {
	s.uuidGen = gen
	return s
}

// Train runs a training pass synchronously after checking ownership.
func (s *TrainingJobService) Train(ctx context.Context, owner, agentID string) (*domain.TrainResult, error) {
	if agentID == "" {
		return s.trainer.TrainAgent(ctx, agentID), nil
	}
	if _, err := s.agents.Authorize(ctx, owner, agentID); err != nil {
		return nil, err
	}
	return s.trainer.TrainAgent(ctx, agentID), nil
}

// Enqueue queues a training job. When the agent already has an active job
// that job is returned and created is false.
func (s *TrainingJobService) Enqueue(ctx context.Context, owner, agentID string) (*domain.TrainingJob, bool, error) {
	if _, err := s.agents.Authorize(ctx, owner, agentID); err != nil {
		return nil, false, err
	}
	job := newPendingJob(s.uuidGen.NewString(), agentID, owner, s.now())
	if err := domain.ValidateTrainingJob(job); err != nil {
		return nil, false, domain.NewDomainErrorWithCause(domain.ErrCodeValidation, "invalid training job", err)
	}
	return s.jobs.Enqueue(ctx, job)
}

// Get returns a job of the given agent. Jobs belonging to anyone else are not found.
func (s *TrainingJobService) Get(ctx context.Context, owner, agentID, jobID string) (*domain.TrainingJob, error) {
	if !isUUID(jobID) {
		return nil, domain.ErrTrainingJobNotFound
	}
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrTrainingJobNotFound) {
			return nil, domain.ErrTrainingJobNotFound
		}
		return nil, err
	}
	if job.AgentID != agentID || job.Owner != owner {
		return nil, domain.ErrTrainingJobNotFound
	}
	return job, nil
}

func newPendingJob(id, agentID, owner string, now time.Time) *domain.TrainingJob {
	return &domain.TrainingJob{
		ID:        id,
		AgentID:   agentID,
		Owner:     owner,
		Status:    domain.TrainingJobStatusPending,
		CreatedAt: now,
	}
}
