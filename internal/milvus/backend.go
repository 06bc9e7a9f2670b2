package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/milvus-io/milvus/client/v2/entity"
	"github.com/milvus-io/milvus/client/v2/index"
	"github.com/milvus-io/milvus/client/v2/milvusclient"
)

const (
	fieldID     = "id"
	fieldVector = "vector"

	idMaxLength = "64"

	// maxChunkBytes is the largest VARCHAR Milvus accepts.
	maxChunkBytes = 65535
)

type Config struct {
	Address string
	Token   string
}

// Backend stores points in a Milvus collection with one scalar field per payload key.
type Backend struct {
	client *milvusclient.Client
}

func NewBackend(ctx context.Context, cfg Config) (*Backend, error) {
	c, err := milvusclient.New(ctx, &milvusclient.ClientConfig{
		Address: cfg.Address,
		APIKey:  cfg.Token,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}
	return &Backend{client: c}, nil
}

func (b *Backend) Close(ctx context.Context) error {
	return b.client.Close(ctx)
}

func (b *Backend) CollectionInfo(ctx context.Context, name string) (int, bool, error) {
	exists, err := b.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return 0, false, fmt.Errorf("failed to check collection: %w", err)
	}
	if !exists {
		return 0, false, nil
	}

	coll, err := b.client.DescribeCollection(ctx, milvusclient.NewDescribeCollectionOption(name))
	if err != nil {
		return 0, true, fmt.Errorf("failed to describe collection: %w", err)
	}
	return vectorDim(coll.Schema), true, nil
}

// CreateCollection creates the schema, a cosine HNSW index and loads the collection.
func (b *Backend) CreateCollection(ctx context.Context, name string, size int) error {
	exists, err := b.client.HasCollection(ctx, milvusclient.NewHasCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to check collection: %w", err)
	}
	if exists {
		return domain.ErrCollectionExists
	}

	if err := b.client.CreateCollection(ctx, milvusclient.NewCreateCollectionOption(name, collectionSchema(name, size))); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	task, err := b.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, fieldVector, index.NewHNSWIndex(entity.COSINE, 16, 200)))
	if err != nil {
		return fmt.Errorf("failed to create vector index: %w", err)
	}
	if err := task.Await(ctx); err != nil {
		return fmt.Errorf("failed waiting for vector index: %w", err)
	}

	load, err := b.client.LoadCollection(ctx, milvusclient.NewLoadCollectionOption(name))
	if err != nil {
		return fmt.Errorf("failed to load collection: %w", err)
	}
	return load.Await(ctx)
}

func (b *Backend) DeleteCollection(ctx context.Context, name string) error {
	return b.client.DropCollection(ctx, milvusclient.NewDropCollectionOption(name))
}

// CreatePayloadIndex builds an inverted index on a payload field.
func (b *Backend) CreatePayloadIndex(ctx context.Context, name, field string) error {
	task, err := b.client.CreateIndex(ctx, milvusclient.NewCreateIndexOption(name, field, index.NewInvertedIndex()))
	if err != nil {
		if isIndexExists(err) {
			return domain.ErrPayloadIndexExists
		}
		return err
	}
	return task.Await(ctx)
}

// Upsert writes all points as one column-based batch.
func (b *Backend) Upsert(ctx context.Context, name string, points []domain.Point, _ bool) error {
	if len(points) == 0 {
		return nil
	}
	cols := toColumns(points)
	opt := milvusclient.NewColumnBasedInsertOption(name).
		WithVarcharColumn(fieldID, cols.ids).
		WithVarcharColumn(domain.PayloadAgentID, cols.agentIDs).
		WithVarcharColumn(domain.PayloadDocumentID, cols.documentIDs).
		WithVarcharColumn(domain.PayloadChunk, cols.chunks).
		WithFloatVectorColumn(fieldVector, cols.dim, cols.vectors)

	if _, err := b.client.Upsert(ctx, opt); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}
	return nil
}

func collectionSchema(name string, dim int) *entity.Schema {
	varchar := func(field, maxLen string) *entity.Field {
		return &entity.Field{
			Name:       field,
			DataType:   entity.FieldTypeVarChar,
			TypeParams: map[string]string{"max_length": maxLen},
		}
	}

	id := varchar(fieldID, idMaxLength)
	id.PrimaryKey = true

	return &entity.Schema{
		CollectionName: name,
		Description:    "agent training chunks",
		Fields: []*entity.Field{
			id,
			varchar(domain.PayloadAgentID, idMaxLength),
			varchar(domain.PayloadDocumentID, idMaxLength),
			varchar(domain.PayloadChunk, strconv.Itoa(maxChunkBytes)),
			{
				Name:       fieldVector,
				DataType:   entity.FieldTypeFloatVector,
				TypeParams: map[string]string{"dim": strconv.Itoa(dim)},
			},
		},
	}
}

// vectorDim returns 0 when the schema has no readable vector field.
func vectorDim(schema *entity.Schema) int {
	if schema == nil {
		return 0
	}
	for _, f := range schema.Fields {
		if f.DataType != entity.FieldTypeFloatVector {
			continue
		}
		dim, err := strconv.Atoi(f.TypeParams["dim"])
		if err != nil {
			return 0
		}
		return dim
	}
	return 0
}

type columns struct {
	ids, agentIDs, documentIDs, chunks []string
	vectors                            [][]float32
	dim                                int
}

func toColumns(points []domain.Point) columns {
	c := columns{
		ids:         make([]string, len(points)),
		agentIDs:    make([]string, len(points)),
		documentIDs: make([]string, len(points)),
		chunks:      make([]string, len(points)),
		vectors:     make([][]float32, len(points)),
		dim:         len(points[0].Vector),
	}
	for i, p := range points {
		c.ids[i] = p.ID
		c.agentIDs[i] = p.Payload.AgentID
		c.documentIDs[i] = p.Payload.DocumentID
		c.chunks[i] = truncateUTF8(p.Payload.Chunk, maxChunkBytes)
		c.vectors[i] = p.Vector
	}
	return c
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune. The full
// chunk text stays in the agent file; only the stored payload is shortened.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isIndexExists(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exist") || strings.Contains(msg, "at most one distinct index")
}
