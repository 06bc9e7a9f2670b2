package service

import (
	"context"
	"errors"
	"testing"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// memoryBackend is an in-memory VectorBackend that records every call.
type memoryBackend struct {
	collections map[string]int
	indexes     map[string]bool
	points      map[string]domain.Point
	infoErr     error
	indexErr    error
	calls       []string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		collections: make(map[string]int),
		indexes:     make(map[string]bool),
		points:      make(map[string]domain.Point),
	}
}

func (b *memoryBackend) CollectionInfo(_ context.Context, name string) (int, bool, error) {
	b.calls = append(b.calls, "info")
	if b.infoErr != nil {
		return 0, false, b.infoErr
	}
	size, ok := b.collections[name]
	return size, ok, nil
}

func (b *memoryBackend) CreateCollection(_ context.Context, name string, size int) error {
	b.calls = append(b.calls, "create")
	if _, ok := b.collections[name]; ok {
		return domain.ErrCollectionExists
	}
	b.collections[name] = size
	return nil
}

func (b *memoryBackend) DeleteCollection(_ context.Context, name string) error {
	b.calls = append(b.calls, "delete")
	delete(b.collections, name)
	b.points = make(map[string]domain.Point)
	return nil
}

func (b *memoryBackend) CreatePayloadIndex(_ context.Context, name, field string) error {
	b.calls = append(b.calls, "index")
	if b.indexErr != nil {
		return b.indexErr
	}
	key := name + "/" + field
	if b.indexes[key] {
		return domain.ErrPayloadIndexExists
	}
	b.indexes[key] = true
	return nil
}

func (b *memoryBackend) Upsert(_ context.Context, _ string, points []domain.Point, wait bool) error {
	if !wait {
		return errors.New("upsert must wait")
	}
	b.calls = append(b.calls, "upsert")
	for _, p := range points {
		b.points[p.ID] = p
	}
	return nil
}

type MockCollectionLocker struct {
	mock.Mock
}

func (m *MockCollectionLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, key)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

func testIndexConfig() IndexManagerConfig {
	return IndexManagerConfig{Collection: "agent_chunks", VectorSize: 1536, AllowRecreate: true}
}

func TestEnsureCollection_CreatesWhenMissing(t *testing.T) {
	backend := newMemoryBackend()
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	require.NoError(t, mgr.EnsureCollection(context.Background()))
	assert.Equal(t, 1536, backend.collections["agent_chunks"])
}

func TestEnsureCollection_Idempotent(t *testing.T) {
	backend := newMemoryBackend()
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	require.NoError(t, mgr.EnsureCollection(context.Background()))
	require.NoError(t, mgr.EnsureCollection(context.Background()))

	assert.Len(t, backend.collections, 1)
	assert.Equal(t, []string{"info", "create", "info"}, backend.calls)
}

func TestEnsureCollection_ConcurrentCreateIsHarmless(t *testing.T) {
	backend := newMemoryBackend()
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	// another trainer creates the collection between our read and our create
	mgr.backend = &racingBackend{memoryBackend: backend}

	require.NoError(t, mgr.EnsureCollection(context.Background()))
	assert.Equal(t, 1536, backend.collections["agent_chunks"])
}

type racingBackend struct {
	*memoryBackend
}

func (r *racingBackend) CreateCollection(ctx context.Context, name string, size int) error {
	r.collections[name] = size
	return domain.ErrCollectionExists
}

func TestEnsureCollection_RecreatesOnMismatch(t *testing.T) {
	backend := newMemoryBackend()
	backend.collections["agent_chunks"] = 768
	backend.points["old"] = domain.Point{ID: "old"}

	locker := new(MockCollectionLocker)
	locker.On("WithLock", mock.Anything, "agentrag:collection:agent_chunks").Return(nil)
	mgr := NewIndexManager(backend, testIndexConfig(), locker)

	require.NoError(t, mgr.EnsureCollection(context.Background()))

	assert.Equal(t, 1536, backend.collections["agent_chunks"])
	assert.Empty(t, backend.points)
	assert.Equal(t, []string{"info", "info", "delete", "create"}, backend.calls)
	locker.AssertExpectations(t)
}

func TestEnsureCollection_MismatchWithRecreateDisabled(t *testing.T) {
	backend := newMemoryBackend()
	backend.collections["agent_chunks"] = 768
	cfg := testIndexConfig()
	cfg.AllowRecreate = false
	mgr := NewIndexManager(backend, cfg, nil)

	err := mgr.EnsureCollection(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRecreateDisabled)
	assert.Equal(t, 768, backend.collections["agent_chunks"])
	assert.NotContains(t, backend.calls, "delete")
}

func TestEnsureCollection_LockFailure(t *testing.T) {
	backend := newMemoryBackend()
	backend.collections["agent_chunks"] = 768
	locker := new(MockCollectionLocker)
	locker.On("WithLock", mock.Anything, mock.Anything).Return(errors.New("lock timeout"))
	mgr := NewIndexManager(backend, testIndexConfig(), locker)

	err := mgr.EnsureCollection(context.Background())

	assert.EqualError(t, err, "lock timeout")
	assert.Equal(t, 768, backend.collections["agent_chunks"])
}

func TestEnsureCollection_ReadFailureIsFatal(t *testing.T) {
	backend := newMemoryBackend()
	backend.infoErr = errors.New("permission denied")
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	err := mgr.EnsureCollection(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCollectionUnavailable)
	assert.Contains(t, err.Error(), "permission denied")
	assert.NotContains(t, backend.calls, "create")
}

func TestRecreate(t *testing.T) {
	backend := newMemoryBackend()
	backend.collections["agent_chunks"] = 1536
	backend.points["p1"] = domain.Point{ID: "p1"}
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	require.NoError(t, mgr.Recreate(context.Background()))
	assert.Equal(t, 1536, backend.collections["agent_chunks"])
	assert.Empty(t, backend.points)
}

func TestEnsurePayloadIndex(t *testing.T) {
	backend := newMemoryBackend()
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	require.NoError(t, mgr.EnsurePayloadIndex(context.Background(), domain.PayloadAgentID))
	require.NoError(t, mgr.EnsurePayloadIndex(context.Background(), domain.PayloadAgentID))
	assert.True(t, backend.indexes["agent_chunks/agentId"])
}

func TestEnsurePayloadIndex_Failure(t *testing.T) {
	backend := newMemoryBackend()
	backend.indexErr = errors.New("bad schema")
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	err := mgr.EnsurePayloadIndex(context.Background(), domain.PayloadAgentID)

	assert.ErrorIs(t, err, domain.ErrPayloadIndexFailed)
}

func TestUpsert(t *testing.T) {
	backend := newMemoryBackend()
	mgr := NewIndexManager(backend, testIndexConfig(), nil)

	require.NoError(t, mgr.Upsert(context.Background(), nil))
	assert.Empty(t, backend.calls)

	points := []domain.Point{{ID: "a"}, {ID: "b"}}
	require.NoError(t, mgr.Upsert(context.Background(), points))
	require.NoError(t, mgr.Upsert(context.Background(), []domain.Point{{ID: "a", Payload: domain.PointPayload{Chunk: "new"}}}))

	assert.Len(t, backend.points, 2)
	assert.Equal(t, "new", backend.points["a"].Payload.Chunk)
}
