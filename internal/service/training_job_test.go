package service

import (
	"context"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newJobFixture() (*TrainingJobService, *MockTrainingJobRepository, *MockAgentAuthorizer, *MockAgentTrainer) {
	jobs := new(MockTrainingJobRepository)
	agents := new(MockAgentAuthorizer)
	trainer := new(MockAgentTrainer)
	svc := NewTrainingJobService(jobs, agents, trainer).WithUUIDGenerator(NewMockUUIDGenerator("job-1"))
	return svc, jobs, agents, trainer
}

func TestTrainingJobService_Train(t *testing.T) {
	ctx := context.Background()
	svc, _, agents, trainer := newJobFixture()
	agents.On("Authorize", ctx, "owner-1", testAgentID).Return(&domain.Agent{ID: testAgentID}, nil)
	trainer.On("TrainAgent", ctx, testAgentID).Return(&domain.TrainResult{Success: true, Message: "Agent training completed!", ChunksTrained: 2})

	result, err := svc.Train(ctx, "owner-1", testAgentID)

	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunksTrained)
}

func TestTrainingJobService_Train_MissingAgentID(t *testing.T) {
	ctx := context.Background()
	svc, _, agents, trainer := newJobFixture()
	trainer.On("TrainAgent", ctx, "").Return(&domain.TrainResult{Success: false, Message: "Missing agentId."})

	result, err := svc.Train(ctx, "owner-1", "")

	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Missing agentId.", result.Message)
	agents.AssertNotCalled(t, "Authorize")
}

func TestTrainingJobService_Train_NotOwned(t *testing.T) {
	ctx := context.Background()
	svc, _, agents, trainer := newJobFixture()
	agents.On("Authorize", ctx, "intruder", testAgentID).Return(nil, domain.ErrAgentNotOwned)

	_, err := svc.Train(ctx, "intruder", testAgentID)

	assert.ErrorIs(t, err, domain.ErrAgentNotOwned)
	trainer.AssertNotCalled(t, "TrainAgent")
}

func TestTrainingJobService_Enqueue(t *testing.T) {
	ctx := context.Background()
	svc, jobs, agents, _ := newJobFixture()
	agents.On("Authorize", ctx, "owner-1", testAgentID).Return(&domain.Agent{ID: testAgentID}, nil)
	jobs.On("Enqueue", ctx, mock.MatchedBy(func(j *domain.TrainingJob) bool {
		return j.ID == "job-1" && j.Owner == "owner-1" && j.Status == domain.TrainingJobStatusPending
	})).Return(&domain.TrainingJob{ID: "job-1", Status: domain.TrainingJobStatusPending}, true, nil)

	job, created, err := svc.Enqueue(ctx, "owner-1", testAgentID)

	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "job-1", job.ID)
}

func TestTrainingJobService_Enqueue_ReturnsActiveJob(t *testing.T) {
	ctx := context.Background()
	svc, jobs, agents, _ := newJobFixture()
	agents.On("Authorize", ctx, "owner-1", testAgentID).Return(&domain.Agent{ID: testAgentID}, nil)
	jobs.On("Enqueue", ctx, mock.Anything).
		Return(&domain.TrainingJob{ID: "job-0", Status: domain.TrainingJobStatusProcessing}, false, nil)

	job, created, err := svc.Enqueue(ctx, "owner-1", testAgentID)

	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "job-0", job.ID)
}

func TestTrainingJobService_Get(t *testing.T) {
	ctx := context.Background()
	stored := &domain.TrainingJob{ID: testJobID, AgentID: testAgentID, Owner: "owner-1", Status: domain.TrainingJobStatusCompleted}

	t.Run("found", func(t *testing.T) {
		svc, jobs, _, _ := newJobFixture()
		jobs.On("GetByID", ctx, testJobID).Return(stored, nil)

		job, err := svc.Get(ctx, "owner-1", testAgentID, testJobID)

		require.NoError(t, err)
		assert.Equal(t, domain.TrainingJobStatusCompleted, job.Status)
	})

	t.Run("other owner", func(t *testing.T) {
		svc, jobs, _, _ := newJobFixture()
		jobs.On("GetByID", ctx, testJobID).Return(stored, nil)

		_, err := svc.Get(ctx, "owner-2", testAgentID, testJobID)

		assert.ErrorIs(t, err, domain.ErrTrainingJobNotFound)
	})

	t.Run("other agent", func(t *testing.T) {
		svc, jobs, _, _ := newJobFixture()
		jobs.On("GetByID", ctx, testJobID).Return(stored, nil)

		_, err := svc.Get(ctx, "owner-1", "another-agent", testJobID)

		assert.ErrorIs(t, err, domain.ErrTrainingJobNotFound)
	})

	t.Run("malformed id", func(t *testing.T) {
		svc, jobs, _, _ := newJobFixture()

		_, err := svc.Get(ctx, "owner-1", testAgentID, "42")

		assert.ErrorIs(t, err, domain.ErrTrainingJobNotFound)
		jobs.AssertNotCalled(t, "GetByID")
	})
}
