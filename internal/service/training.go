package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/telemetry"
)

const (
	msgMissingAgentID     = "Missing agentId."
	msgNoFiles            = "No files found for this agent. Training skipped."
	msgTrainingCompleted  = "Agent training completed!"
	msgPayloadIndexFailed = "Failed to create index for filtering on 'agentId'."
)

// DocumentEmbedder turns a batch of chunks into vectors, one per chunk in order.
type DocumentEmbedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// TrainingFileRepository is the document store the training run reads and updates.
type TrainingFileRepository interface {
	ListByAgent(ctx context.Context, agentID string) ([]*domain.AgentFile, error)
	Save(ctx context.Context, file *domain.AgentFile) error
	MarkIndexed(ctx context.Context, ids []string) error
}

// VectorIndex is the collection lifecycle the training run depends on.
type VectorIndex interface {
	EnsureCollection(ctx context.Context) error
	EnsurePayloadIndex(ctx context.Context, field string) error
	Upsert(ctx context.Context, points []domain.Point) error
	VectorSize() int
}

// TrainingService embeds an agent's files and writes them to the vector index.
type TrainingService struct {
	files    TrainingFileRepository
	embedder DocumentEmbedder
	index    VectorIndex
	uuidGen  UUIDGenerator
	chunkCfg ChunkConfig
	now      func() time.Time
	logger   *slog.Logger
}

// NewTrainingService creates a TrainingService with the default chunk windows.
func NewTrainingService(files TrainingFileRepository, embedder DocumentEmbedder, index VectorIndex) *TrainingService {
	return &TrainingService{
		files:    files,
		embedder: embedder,
		index:    index,
		uuidGen:  &DefaultUUIDGenerator{},
		chunkCfg: DefaultChunkConfig(),
		now:      time.Now,
		logger:   slog.Default().With("component", "training"),
	}
}

// WithChunkConfig overrides the chunk windows.
func (s *TrainingService) WithChunkConfig(cfg ChunkConfig) *TrainingService {
	s.chunkCfg = cfg
	return s
}

func (s *TrainingService) WithUUIDGenerator(gen UUIDGenerator) *TrainingService {
	s.uuidGen = gen
	return s
}

func (s *TrainingService) WithLogger(logger *slog.Logger) *TrainingService {
	s.logger = logger
	return s
}

// TrainAgent runs one training pass over every file of the agent. It never
// returns nil; failures are reported through the result.
func (s *TrainingService) TrainAgent(ctx context.Context, agentID string) *domain.TrainResult {
	if agentID == "" {
		return &domain.TrainResult{Success: false, Message: msgMissingAgentID}
	}

	ctx, span := telemetry.StartSpan(ctx, "training.run", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "train",
	})
	defer span.End()

	logger := s.logger.With("agent_id", agentID)
	started := s.now()

	result, err := s.run(ctx, agentID, logger)
	if err != nil {
		span.SetError(err)
		logger.Error("training aborted", "error", err)
		return &domain.TrainResult{Success: false, Message: failureMessage(err)}
	}

	span.SetData("chunks_trained", result.ChunksTrained)
	logger.Info("training finished", "chunks", result.ChunksTrained, "duration", s.now().Sub(started))
	return result
}

func (s *TrainingService) run(ctx context.Context, agentID string, logger *slog.Logger) (*domain.TrainResult, error) {
	if err := s.index.EnsureCollection(ctx); err != nil {
		return nil, err
	}
	if err := s.index.EnsurePayloadIndex(ctx, domain.PayloadAgentID); err != nil {
		return nil, err
	}

	files, err := s.files.ListByAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load agent files: %w", err)
	}
	if len(files) == 0 {
		return &domain.TrainResult{Success: true, Message: msgNoFiles, ChunksTrained: 0}, nil
	}

	want := s.index.VectorSize()
	var points []domain.Point
	var embedded []string

	for _, f := range files {
		if f.Content == "" {
			continue
		}
		docPoints, err := s.embedDocument(ctx, agentID, f, want, logger.With("document_id", f.ID))
		if err != nil {
			return nil, err
		}
		if len(docPoints) == 0 {
			continue
		}

		f.MarkTrained(s.now())
		if err := s.files.Save(ctx, f); err != nil {
			return nil, fmt.Errorf("failed to mark file %s trained: %w", f.ID, err)
		}
		points = append(points, docPoints...)
		embedded = append(embedded, f.ID)
	}

	if len(points) > 0 {
		if err := s.index.Upsert(ctx, points); err != nil {
			return nil, fmt.Errorf("failed to upsert points: %w", err)
		}
		if err := s.files.MarkIndexed(ctx, embedded); err != nil {
			logger.Warn("failed to mark files indexed", "error", err)
		}
	}

	return &domain.TrainResult{Success: true, Message: msgTrainingCompleted, ChunksTrained: len(points)}, nil
}

// embedDocument chunks and embeds one file. A nil slice with a nil error means
// the document was skipped; an error aborts the whole run.
func (s *TrainingService) embedDocument(ctx context.Context, agentID string, f *domain.AgentFile, want int, logger *slog.Logger) ([]domain.Point, error) {
	ctx, span := telemetry.StartSpan(ctx, "training.document", telemetry.SpanAttributes{
		AgentID:    agentID,
		DocumentID: f.ID,
		Operation:  "embed",
	})
	defer span.End()

	chunks := nonBlank(chunkWords(f.Content, s.chunkCfg))
	span.SetData("chunks", len(chunks))
	if len(chunks) == 0 {
		logger.Warn("no valid chunks, skipping document")
		return nil, nil
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		span.SetError(err)
		logEmbedFailure(logger, err)
		return nil, nil
	}
	if len(vectors) == 0 {
		logger.Warn("provider returned no embeddings, skipping document")
		return nil, nil
	}
	if len(vectors[0]) != want {
		return nil, &domain.DimensionMismatchError{Got: len(vectors[0]), Want: want}
	}

	points := s.buildPoints(agentID, f.ID, chunks, vectors, want, logger)
	span.SetData("points", len(points))
	return points, nil
}

// buildPoints pairs chunk i with vector i and drops pairs whose vector is
// missing or has the wrong length.
func (s *TrainingService) buildPoints(agentID, docID string, chunks []string, vectors [][]float32, want int, logger *slog.Logger) []domain.Point {
	points := make([]domain.Point, 0, len(chunks))
	for i, chunk := range chunks {
		if i >= len(vectors) {
			logger.Warn("missing embedding for chunk, dropping", "chunk_index", i)
			continue
		}
		if len(vectors[i]) != want {
			logger.Warn("malformed embedding, dropping chunk", "chunk_index", i, "length", len(vectors[i]))
			continue
		}
		points = append(points, domain.Point{
			ID:     s.uuidGen.NewString(),
			Vector: vectors[i],
			Payload: domain.PointPayload{
				AgentID:    agentID,
				DocumentID: docID,
				Chunk:      chunk,
			},
		})
	}
	return points
}

func logEmbedFailure(logger *slog.Logger, err error) {
	if pe, ok := domain.AsProviderError(err); ok && pe.IsAuth() {
		logger.Warn("embedding failed, API key might be invalid", "status", pe.StatusCode, "error", err)
		return
	}
	logger.Warn("embedding failed, skipping document", "error", err)
}

func failureMessage(err error) string {
	var dim *domain.DimensionMismatchError
	if errors.As(err, &dim) {
		return dim.Error()
	}
	if errors.Is(err, domain.ErrPayloadIndexFailed) {
		return msgPayloadIndexFailed
	}
	if errors.Is(err, domain.ErrCollectionUnavailable) || errors.Is(err, domain.ErrRecreateDisabled) {
		return "Failed to check/create collection: " + rootMessage(err)
	}
	return err.Error()
}

// rootMessage strips the domain error wrapper so backend messages reach the caller verbatim.
func rootMessage(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Err != nil {
		return de.Err.Error()
	}
	return err.Error()
}
