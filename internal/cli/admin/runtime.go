package admin

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cloo-solutions/agentrag/internal/cohere"
	"github.com/cloo-solutions/agentrag/internal/config"
	"github.com/cloo-solutions/agentrag/internal/database"
	"github.com/cloo-solutions/agentrag/internal/milvus"
	"github.com/cloo-solutions/agentrag/internal/openai"
	"github.com/cloo-solutions/agentrag/internal/qdrant"
	"github.com/cloo-solutions/agentrag/internal/repository"
	"github.com/cloo-solutions/agentrag/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pipeline is everything a training run needs, built from config.
type pipeline struct {
	index    *service.IndexManager
	training *service.TrainingService
	close    func()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{
		URL:               cfg.DatabaseURL,
		HealthCheckPeriod: time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openPool(ctx, cfg)
}

func newEmbedder(cfg *config.Config) (service.DocumentEmbedder, error) {
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		return openai.NewClientWithConfig(openai.Config{
			APIKey:            cfg.OpenAIAPIKey,
			EmbeddingModel:    cfg.OpenAIModel,
			RequestsPerSecond: cfg.EmbedRate,
		})
	case config.ProviderCohere:
		return cohere.NewClient(cohere.Config{
			APIKey:            cfg.CohereAPIKey,
			Model:             cfg.CohereModel,
			RequestsPerSecond: cfg.EmbedRate,
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}
}

// newVectorBackend returns the configured backend and a function releasing it.
func newVectorBackend(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (service.VectorBackend, func(), error) {
	switch cfg.VectorBackend {
	case config.BackendQdrant:
		return qdrant.NewClient(qdrant.Config{
			URL:     cfg.QdrantURL,
			APIKey:  cfg.QdrantAPIKey,
			Timeout: 30 * time.Second,
		}), func() {}, nil
	case config.BackendPgvector:
		return repository.NewVectorIndexRepository(pool), func() {}, nil
	case config.BackendMilvus:
		backend, err := milvus.NewBackend(ctx, milvus.Config{
			Address: cfg.MilvusAddress,
			Token:   cfg.MilvusToken,
		})
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {
			if err := backend.Close(context.Background()); err != nil {
				log.Printf("failed to close milvus client: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend %q", cfg.VectorBackend)
	}
}

func newIndexManager(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*service.IndexManager, func(), error) {
	backend, closeBackend, err := newVectorBackend(ctx, cfg, pool)
	if err != nil {
		return nil, nil, err
	}
	index := service.NewIndexManager(backend, service.IndexManagerConfig{
		Collection:    cfg.CollectionName,
		VectorSize:    cfg.VectorSize,
		AllowRecreate: cfg.AllowRecreate,
	}, repository.NewAdvisoryLocker(pool))
	return index, closeBackend, nil
}

// newPipeline validates the pipeline settings before any network I/O and
// wires the embedder, backend and document store together.
func newPipeline(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (*pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, err
	}

	index, closeBackend, err := newIndexManager(ctx, cfg, pool)
	if err != nil {
		return nil, err
	}

	training := service.NewTrainingService(repository.NewAgentFileRepository(pool), embedder, index).
		WithChunkConfig(service.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap})

	log.Printf("training pipeline: provider=%s backend=%s collection=%s size=%d",
		cfg.EmbeddingProvider, cfg.VectorBackend, cfg.CollectionName, cfg.VectorSize)

	return &pipeline{index: index, training: training, close: closeBackend}, nil
}
