package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

var payloadColumns = map[string]string{
	domain.PayloadAgentID:    "agent_id",
	domain.PayloadDocumentID: "document_id",
}

// VectorIndexRepository stores collections as pgvector tables named vec_<collection>.
type VectorIndexRepository struct {
	pool *pgxpool.Pool
}

func NewVectorIndexRepository(pool *pgxpool.Pool) *VectorIndexRepository {
	return &VectorIndexRepository{pool: pool}
}

func tableName(collection string) string {
	return pgx.Identifier{"vec_" + strings.ToLower(collection)}.Sanitize()
}

func (r *VectorIndexRepository) CollectionInfo(ctx context.Context, name string) (int, bool, error) {
	var size int
	err := r.pool.QueryRow(ctx,
		`SELECT vector_size FROM vector_collections WHERE name = $1`,
		name,
	).Scan(&size)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return size, true, nil
}

func (r *VectorIndexRepository) CreateCollection(ctx context.Context, name string, size int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`INSERT INTO vector_collections (name, vector_size) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, size,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCollectionExists
	}

	table := tableName(name)
	stmts := []string{
		fmt.Sprintf(`CREATE TABLE %s (
			id          UUID PRIMARY KEY,
			agent_id    TEXT NOT NULL,
			document_id TEXT NOT NULL,
			chunk       TEXT NOT NULL,
			embedding   vector(%d) NOT NULL
		)`, table, size),
		fmt.Sprintf(`CREATE INDEX ON %s USING hnsw (embedding vector_cosine_ops)`, table),
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create collection table: %w", err)
		}
	}

	return tx.Commit(ctx)
}

func (r *VectorIndexRepository) DeleteCollection(ctx context.Context, name string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DROP TABLE IF EXISTS `+tableName(name)); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM vector_collections WHERE name = $1`, name); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// CreatePayloadIndex adds a btree index on the column backing a payload field.
func (r *VectorIndexRepository) CreatePayloadIndex(ctx context.Context, name, field string) error {
	column, ok := payloadColumns[field]
	if !ok {
		return fmt.Errorf("payload field %q cannot be indexed", field)
	}
	index := pgx.Identifier{fmt.Sprintf("idx_vec_%s_%s", strings.ToLower(name), column)}.Sanitize()
	_, err := r.pool.Exec(ctx,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (%s)`, index, tableName(name), column),
	)
	return err
}

// Upsert writes all points in one transaction. Wait has no effect: a committed
// transaction is already visible to later reads.
func (r *VectorIndexRepository) Upsert(ctx context.Context, name string, points []domain.Point, _ bool) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := fmt.Sprintf(
		`INSERT INTO %s (id, agent_id, document_id, chunk, embedding)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO UPDATE
		 SET agent_id = EXCLUDED.agent_id,
		     document_id = EXCLUDED.document_id,
		     chunk = EXCLUDED.chunk,
		     embedding = EXCLUDED.embedding`,
		tableName(name),
	)

	batch := &pgx.Batch{}
	for _, p := range points {
		batch.Queue(query, p.ID, p.Payload.AgentID, p.Payload.DocumentID, p.Payload.Chunk, pgvector.NewVector(p.Vector))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert points: %w", err)
	}

	return tx.Commit(ctx)
}

// CountByAgent returns the number of points stored for an agent.
func (r *VectorIndexRepository) CountByAgent(ctx context.Context, name, agentID string) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT count(*) FROM %s WHERE agent_id = $1`, tableName(name)),
		agentID,
	).Scan(&n)
	return n, err
}
