package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/cloo-solutions/agentrag/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const agentFileColumns = `id, agent_id, owner_id, file_name, file_type, content, size, trained, indexed, uploaded_at, created_at, updated_at`

// AgentFileRepository is the document store the training pipeline reads from.
type AgentFileRepository struct {
	db dbtx
}

func NewAgentFileRepository(pool *pgxpool.Pool) *AgentFileRepository {
	return &AgentFileRepository{db: pool}
}

func NewAgentFileRepositoryWithTx(tx pgx.Tx) *AgentFileRepository {
	return &AgentFileRepository{db: tx}
}

func scanAgentFile(row pgx.Row) (*domain.AgentFile, error) {
	var f domain.AgentFile
	err := row.Scan(&f.ID, &f.AgentID, &f.Owner, &f.FileName, &f.FileType, &f.Content, &f.Size,
		&f.Trained, &f.Indexed, &f.UploadedAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func collectAgentFiles(rows pgx.Rows) ([]*domain.AgentFile, error) {
	defer rows.Close()
	var files []*domain.AgentFile
	for rows.Next() {
		f, err := scanAgentFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

func (r *AgentFileRepository) Create(ctx context.Context, f *domain.AgentFile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO agent_files (`+agentFileColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		f.ID, f.AgentID, f.Owner, f.FileName, f.FileType, f.Content, f.Size,
		f.Trained, f.Indexed, f.UploadedAt, f.CreatedAt, f.UpdatedAt,
	)
	return err
}

func (r *AgentFileRepository) GetByID(ctx context.Context, id string) (*domain.AgentFile, error) {
	f, err := scanAgentFile(r.db.QueryRow(ctx, `SELECT `+agentFileColumns+` FROM agent_files WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAgentFileNotFound
	}
	return f, err
}

// ListByAgent returns every file of an agent, oldest first.
func (r *AgentFileRepository) ListByAgent(ctx context.Context, agentID string) ([]*domain.AgentFile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+agentFileColumns+` FROM agent_files WHERE agent_id = $1 ORDER BY created_at ASC, id ASC`,
		agentID,
	)
	if err != nil {
		return nil, err
	}
	return collectAgentFiles(rows)
}

// ListByAgentAndOwner pages through an agent's files, newest first.
func (r *AgentFileRepository) ListByAgentAndOwner(ctx context.Context, agentID, owner string, cursor *pagination.Cursor, limit int) (pagination.PageResult[*domain.AgentFile], error) {
	limit = pagination.ClampLimit(limit)

	var rows pgx.Rows
	var err error
	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT `+agentFileColumns+`
			 FROM agent_files
			 WHERE agent_id = $1 AND owner_id = $2 AND (created_at, id) < ($3, $4)
			 ORDER BY created_at DESC, id DESC
			 LIMIT $5`,
			agentID, owner, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT `+agentFileColumns+`
			 FROM agent_files
			 WHERE agent_id = $1 AND owner_id = $2
			 ORDER BY created_at DESC, id DESC
			 LIMIT $3`,
			agentID, owner, limit+1,
		)
	}
	if err != nil {
		return pagination.PageResult[*domain.AgentFile]{}, err
	}

	files, err := collectAgentFiles(rows)
	if err != nil {
		return pagination.PageResult[*domain.AgentFile]{}, err
	}
	return pagination.Trim(files, limit, func(f *domain.AgentFile) (string, time.Time) {
		return f.ID, f.CreatedAt
	}), nil
}

// Save writes every mutable column of the file, including the trained flag.
func (r *AgentFileRepository) Save(ctx context.Context, f *domain.AgentFile) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE agent_files
		 SET file_name = $1, file_type = $2, content = $3, size = $4, trained = $5, indexed = $6, updated_at = $7
		 WHERE id = $8`,
		f.FileName, f.FileType, f.Content, f.Size, f.Trained, f.Indexed, f.UpdatedAt, f.ID,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAgentFileNotFound
	}
	return nil
}

// MarkIndexed flags files whose points were upserted.
func (r *AgentFileRepository) MarkIndexed(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx,
		`UPDATE agent_files SET indexed = true, updated_at = now() WHERE id = ANY($1::uuid[])`,
		ids,
	)
	return err
}

// Delete removes a file, scoped to its owner.
func (r *AgentFileRepository) Delete(ctx context.Context, id, owner string) error {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM agent_files WHERE id = $1 AND owner_id = $2`,
		id, owner,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrAgentFileNotFound
	}
	return nil
}
