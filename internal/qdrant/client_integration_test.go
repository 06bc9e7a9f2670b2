//go:build integration

package qdrant

import (
	"context"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_CollectionLifecycle(t *testing.T) {
	ctx := context.Background()
	qc := testutil.NewQdrantContainer(ctx, t)
	t.Cleanup(func() { _ = qc.Terminate(ctx) })

	client := NewClient(Config{URL: qc.URL()})
	const name = "it_chunks"

	_, exists, err := client.CollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, client.CreateCollection(ctx, name, 4))
	assert.ErrorIs(t, client.CreateCollection(ctx, name, 4), domain.ErrCollectionExists)

	size, exists, err := client.CollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 4, size)

	if err := client.CreatePayloadIndex(ctx, name, domain.PayloadAgentID); err != nil {
		assert.ErrorIs(t, err, domain.ErrPayloadIndexExists)
	}

	points := []domain.Point{
		{
			ID:     uuid.NewString(),
			Vector: []float32{0.1, 0.2, 0.3, 0.4},
			Payload: domain.PointPayload{
				AgentID:    "agent-1",
				DocumentID: "doc-1",
				Chunk:      "first chunk",
			},
		},
		{
			ID:     uuid.NewString(),
			Vector: []float32{0.4, 0.3, 0.2, 0.1},
			Payload: domain.PointPayload{
				AgentID:    "agent-1",
				DocumentID: "doc-1",
				Chunk:      "second chunk",
			},
		},
	}
	require.NoError(t, client.Upsert(ctx, name, points, true))

	var bad *APIError
	err = client.Upsert(ctx, name, []domain.Point{{ID: uuid.NewString(), Vector: []float32{1, 2}}}, true)
	require.ErrorAs(t, err, &bad)

	require.NoError(t, client.DeleteCollection(ctx, name))
	_, exists, err = client.CollectionInfo(ctx, name)
	require.NoError(t, err)
	assert.False(t, exists)
}
