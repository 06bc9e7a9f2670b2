package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cloo-solutions/agentrag/internal/domain"
)

// VectorBackend is the minimal surface every vector store adapter exposes.
// CreateCollection and CreatePayloadIndex return domain.ErrCollectionExists and
// domain.ErrPayloadIndexExists when the object is already there.
type VectorBackend interface {
	CollectionInfo(ctx context.Context, name string) (size int, exists bool, err error)
	CreateCollection(ctx context.Context, name string, size int) error
	DeleteCollection(ctx context.Context, name string) error
	CreatePayloadIndex(ctx context.Context, name, field string) error
	Upsert(ctx context.Context, name string, points []domain.Point, wait bool) error
}

// CollectionLocker serializes destructive collection changes across processes.
type CollectionLocker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// IndexManagerConfig fixes the collection every agent shares.
type IndexManagerConfig struct {
	Collection    string
	VectorSize    int
	AllowRecreate bool
}

// IndexManager keeps the shared collection in the expected shape.
type IndexManager struct {
	backend VectorBackend
	locker  CollectionLocker
	cfg     IndexManagerConfig
	logger  *slog.Logger
}

// NewIndexManager creates an IndexManager. A nil locker runs recreates unguarded.
func NewIndexManager(backend VectorBackend, cfg IndexManagerConfig, locker CollectionLocker) *IndexManager {
	return &IndexManager{
		backend: backend,
		locker:  locker,
		cfg:     cfg,
		logger:  slog.Default().With("component", "index_manager", "collection", cfg.Collection),
	}
}

func (m *IndexManager) VectorSize() int {
	return m.cfg.VectorSize
}

func (m *IndexManager) Collection() string {
	return m.cfg.Collection
}

// EnsureCollection creates the collection when missing and rebuilds it when its
// vector size differs from the configured one.
func (m *IndexManager) EnsureCollection(ctx context.Context) error {
	size, exists, err := m.backend.CollectionInfo(ctx, m.cfg.Collection)
	if err != nil {
		return collectionError(err)
	}

	if !exists {
		m.logger.Info("creating collection", "vector_size", m.cfg.VectorSize)
		if err := m.backend.CreateCollection(ctx, m.cfg.Collection, m.cfg.VectorSize); err != nil && !errors.Is(err, domain.ErrCollectionExists) {
			return collectionError(err)
		}
		return nil
	}

	if size == m.cfg.VectorSize {
		return nil
	}

	m.logger.Warn("collection vector size mismatch", "have", size, "want", m.cfg.VectorSize)
	if !m.cfg.AllowRecreate {
		return domain.NewDomainErrorWithCause(domain.ErrRecreateDisabled.Code, domain.ErrRecreateDisabled.Message,
			fmt.Errorf("collection %q has vector size %d, expected %d", m.cfg.Collection, size, m.cfg.VectorSize))
	}

	return m.withLock(ctx, func(ctx context.Context) error {
		// another process may have finished the rebuild while we waited
		size, exists, err := m.backend.CollectionInfo(ctx, m.cfg.Collection)
		if err != nil {
			return collectionError(err)
		}
		if exists && size == m.cfg.VectorSize {
			return nil
		}
		return m.rebuild(ctx, exists)
	})
}

// Recreate drops and recreates the collection unconditionally. All points are lost.
func (m *IndexManager) Recreate(ctx context.Context) error {
	return m.withLock(ctx, func(ctx context.Context) error {
		_, exists, err := m.backend.CollectionInfo(ctx, m.cfg.Collection)
		if err != nil {
			return collectionError(err)
		}
		return m.rebuild(ctx, exists)
	})
}

func (m *IndexManager) rebuild(ctx context.Context, exists bool) error {
	if exists {
		m.logger.Warn("deleting collection")
		if err := m.backend.DeleteCollection(ctx, m.cfg.Collection); err != nil {
			return collectionError(err)
		}
	}
	m.logger.Info("creating collection", "vector_size", m.cfg.VectorSize)
	if err := m.backend.CreateCollection(ctx, m.cfg.Collection, m.cfg.VectorSize); err != nil && !errors.Is(err, domain.ErrCollectionExists) {
		return collectionError(err)
	}
	return nil
}

func (m *IndexManager) withLock(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.locker == nil {
		return fn(ctx)
	}
	return m.locker.WithLock(ctx, "agentrag:collection:"+m.cfg.Collection, fn)
}

// EnsurePayloadIndex creates a keyword index on a payload field. An existing
// index counts as success.
func (m *IndexManager) EnsurePayloadIndex(ctx context.Context, field string) error {
	err := m.backend.CreatePayloadIndex(ctx, m.cfg.Collection, field)
	if err == nil || errors.Is(err, domain.ErrPayloadIndexExists) {
		return nil
	}
	return domain.NewDomainErrorWithCause(domain.ErrPayloadIndexFailed.Code, domain.ErrPayloadIndexFailed.Message, err)
}

// Upsert writes points and waits for the backend to acknowledge them.
func (m *IndexManager) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	return m.backend.Upsert(ctx, m.cfg.Collection, points, true)
}

func collectionError(err error) error {
	return domain.NewDomainErrorWithCause(domain.ErrCollectionUnavailable.Code, domain.ErrCollectionUnavailable.Message, err)
}
