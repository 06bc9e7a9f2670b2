//go:build integration

package service_test

import (
	"context"
	"strings"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/repository"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/cloo-solutions/agentrag/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const integrationDim = 8

// constantEmbedder returns the same unit vector for every chunk.
type constantEmbedder struct{}

func (constantEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		v := make([]float32, integrationDim)
		v[i%integrationDim] = 1
		out[i] = v
	}
	return out, nil
}

func TestAuthService_Integration(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerRepo := repository.NewOwnerRepository(pool)
	keyRepo := repository.NewAPIKeyRepository(pool)
	auth := service.NewAuthService(ownerRepo, keyRepo, &service.DefaultUUIDGenerator{})

	owner, err := auth.EnsureOwner(ctx, "acme")
	require.NoError(t, err)
	again, err := auth.EnsureOwner(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, again.ID)

	token, err := auth.CreateAPIKey(ctx, owner.ID, "ci")
	require.NoError(t, err)

	ownerID, err := auth.ValidateAPIKey(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, owner.ID, ownerID)

	page, err := auth.ListAPIKeys(ctx, owner.ID, "", 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.NotEqual(t, token, page.Items[0].KeyHash)

	require.NoError(t, auth.RevokeAPIKey(ctx, page.Items[0].ID))
	_, err = auth.ValidateAPIKey(ctx, token)
	assert.ErrorIs(t, err, domain.ErrAPIKeyRevoked)
}

func TestTrainingPipeline_Integration_PGVector(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	ownerID, agentID := testutil.SeedAgent(ctx, t, pool)

	agents := service.NewAgentService(repository.NewAgentRepository(pool))
	fileRepo := repository.NewAgentFileRepository(pool)
	files := service.NewAgentFileService(fileRepo, agents, repository.NewTxRunner(pool))

	words := strings.TrimSpace(strings.Repeat("word ", 600))
	stored, err := files.StoreFiles(ctx, ownerID, agentID, []service.FileInput{
		{FileName: "a.txt", FileType: "text/plain", Content: words, Size: int64(len(words))},
	}, true)
	require.NoError(t, err)
	require.NotNil(t, stored.Job)
	_, err = files.AddQA(ctx, ownerID, agentID, "Refunds?", "Within 30 days.")
	require.NoError(t, err)

	vectors := repository.NewVectorIndexRepository(pool)
	index := service.NewIndexManager(vectors, service.IndexManagerConfig{
		Collection:    "it_chunks",
		VectorSize:    integrationDim,
		AllowRecreate: true,
	}, repository.NewAdvisoryLocker(pool))
	trainer := service.NewTrainingService(fileRepo, constantEmbedder{}, index)

	result := trainer.TrainAgent(ctx, agentID)

	require.True(t, result.Success, result.Message)
	assert.Equal(t, "Agent training completed!", result.Message)
	assert.Equal(t, 3, result.ChunksTrained)

	count, err := vectors.CountByAgent(ctx, "it_chunks", agentID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	all, err := fileRepo.ListByAgent(ctx, agentID)
	require.NoError(t, err)
	for _, f := range all {
		assert.True(t, f.Trained, f.FileName)
		assert.True(t, f.Indexed, f.FileName)
	}

	// re-training appends fresh points
	again := trainer.TrainAgent(ctx, agentID)
	require.True(t, again.Success)
	count, err = vectors.CountByAgent(ctx, "it_chunks", agentID)
	require.NoError(t, err)
	assert.Equal(t, 6, count)
}
