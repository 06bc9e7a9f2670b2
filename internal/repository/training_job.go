package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cloo-solutions/agentrag/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	trainingJobColumns     = `id, agent_id, owner_id, status, retries, chunks_trained, message, error, created_at, processed_at`
	defaultClaimBatchLimit = 20

	// DefaultStaleClaimAfter is how long a job may sit in processing before
	// another worker may claim it again.
	DefaultStaleClaimAfter = 30 * time.Minute
)

type TrainingJobRepository struct {
	db         dbtx
	staleAfter time.Duration
}

func NewTrainingJobRepository(pool *pgxpool.Pool) *TrainingJobRepository {
	return &TrainingJobRepository{db: pool, staleAfter: DefaultStaleClaimAfter}
}

func NewTrainingJobRepositoryWithTx(tx pgx.Tx) *TrainingJobRepository {
	return &TrainingJobRepository{db: tx, staleAfter: DefaultStaleClaimAfter}
}

func scanTrainingJob(row pgx.Row) (*domain.TrainingJob, error) {
	var job domain.TrainingJob
	var errMsg pgtype.Text
	err := row.Scan(&job.ID, &job.AgentID, &job.Owner, &job.Status, &job.Retries, &job.ChunksTrained,
		&job.Message, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// Enqueue inserts a pending job unless the agent already has one pending or
// processing, in which case that job is returned and created is false. The
// conflict is resolved in SQL so the call is safe inside a transaction.
func (r *TrainingJobRepository) Enqueue(ctx context.Context, job *domain.TrainingJob) (*domain.TrainingJob, bool, error) {
	for {
		cmdTag, err := r.db.Exec(ctx,
			`INSERT INTO training_jobs (`+trainingJobColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			 ON CONFLICT (agent_id) WHERE status IN ('pending', 'processing') DO NOTHING`,
			job.ID, job.AgentID, job.Owner, job.Status, job.Retries, job.ChunksTrained,
			job.Message, nullableString(job.Error), job.CreatedAt, job.ProcessedAt,
		)
		if err != nil {
			return nil, false, err
		}
		if cmdTag.RowsAffected() == 1 {
			return job, true, nil
		}

		existing, err := scanTrainingJob(r.db.QueryRow(ctx,
			`SELECT `+trainingJobColumns+`
			 FROM training_jobs
			 WHERE agent_id = $1 AND status IN ($2, $3)`,
			job.AgentID, domain.TrainingJobStatusPending, domain.TrainingJobStatusProcessing,
		))
		if errors.Is(err, pgx.ErrNoRows) {
			// the active job finished between the insert and this read
			continue
		}
		if err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
}

func (r *TrainingJobRepository) GetByID(ctx context.Context, id string) (*domain.TrainingJob, error) {
	job, err := scanTrainingJob(r.db.QueryRow(ctx,
		`SELECT `+trainingJobColumns+` FROM training_jobs WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrTrainingJobNotFound
	}
	return job, err
}

// ClaimPending moves up to limit pending jobs to processing and returns them.
// Jobs left in processing for longer than the stale window, by a worker that
// died mid-run, are claimed again. Concurrent workers never claim the same job.
func (r *TrainingJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.TrainingJob, error) {
	if limit <= 0 {
		limit = defaultClaimBatchLimit
	}

	rows, err := r.db.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM training_jobs
			 WHERE status = $1
			    OR (status = $3 AND claimed_at < $4)
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE training_jobs
		 SET status = $3, claimed_at = $5
		 FROM cte
		 WHERE training_jobs.id = cte.id
		 RETURNING training_jobs.id, training_jobs.agent_id, training_jobs.owner_id, training_jobs.status,
		           training_jobs.retries, training_jobs.chunks_trained, training_jobs.message, training_jobs.error,
		           training_jobs.created_at, training_jobs.processed_at`,
		domain.TrainingJobStatusPending, limit, domain.TrainingJobStatusProcessing,
		time.Now().UTC().Add(-r.staleAfter), time.Now().UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.TrainingJob
	for rows.Next() {
		job, err := scanTrainingJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Complete records a finished run.
func (r *TrainingJobRepository) Complete(ctx context.Context, id string, result *domain.TrainResult) error {
	return r.finish(ctx, id, domain.TrainingJobStatusCompleted, result.ChunksTrained, result.Message, "")
}

// Fail marks the job failed for good.
func (r *TrainingJobRepository) Fail(ctx context.Context, id, errMsg string) error {
	return r.finish(ctx, id, domain.TrainingJobStatusFailed, 0, "", errMsg)
}

func (r *TrainingJobRepository) finish(ctx context.Context, id string, status domain.TrainingJobStatus, chunks int, message, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE training_jobs
		 SET status = $1, chunks_trained = $2, message = $3, error = $4, processed_at = $5
		 WHERE id = $6`,
		status, chunks, message, nullableString(errMsg), time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTrainingJobNotFound
	}
	return nil
}

// Requeue puts a claimed job back to pending without touching its retry count.
func (r *TrainingJobRepository) Requeue(ctx context.Context, id string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE training_jobs SET status = $1, claimed_at = NULL WHERE id = $2 AND status = $3`,
		domain.TrainingJobStatusPending, id, domain.TrainingJobStatusProcessing,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTrainingJobNotFound
	}
	return nil
}

// Retry puts the job back to pending with one more retry recorded.
func (r *TrainingJobRepository) Retry(ctx context.Context, id, errMsg string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE training_jobs SET status = $1, retries = retries + 1, error = $2, claimed_at = NULL WHERE id = $3`,
		domain.TrainingJobStatusPending, nullableString(errMsg), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrTrainingJobNotFound
	}
	return nil
}
