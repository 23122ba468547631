package repo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storybook/internal/domain"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new job repository backed by PostgreSQL.
func NewJobRepository(pool *pgxpool.Pool) *JobRepositoryPG {
	return &JobRepositoryPG{pool: pool}
}

// Create inserts a new job record.
func (r *JobRepositoryPG) Create(ctx context.Context, job *domain.Job) error {
	query := `
INSERT INTO jobs (id, target_id, status, progress, current_step, error_message, attempts, max_attempts, result_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
`
	_, err := r.pool.Exec(ctx, query,
		job.ID,
		job.TargetID,
		job.Status,
		job.Progress,
		job.CurrentStep,
		job.ErrorMessage,
		job.Attempts,
		job.MaxAttempts,
		nullableBytes(job.ResultJSON),
	)
	return err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `
SELECT id, target_id, status, progress, current_step, error_message, attempts, max_attempts,
       result_json, created_at, started_at, completed_at
FROM jobs
WHERE id = $1;
`
	row := r.pool.QueryRow(ctx, query, id)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.TargetID,
		&job.Status,
		&job.Progress,
		&job.CurrentStep,
		&job.ErrorMessage,
		&job.Attempts,
		&job.MaxAttempts,
		&job.ResultJSON,
		&job.CreatedAt,
		&job.StartedAt,
		&job.CompletedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Update applies a partial-field merge and maintains the started_at /
// completed_at timestamps from the status transition.
func (r *JobRepositoryPG) Update(ctx context.Context, id string, upd domain.JobUpdate) error {
	query := `
UPDATE jobs
SET status        = COALESCE($2, status),
    progress      = COALESCE($3, progress),
    current_step  = COALESCE($4, current_step),
    error_message = COALESCE($5, error_message),
    result_json   = COALESCE($6, result_json),
    attempts      = COALESCE($7, attempts),
    started_at    = CASE WHEN $2 = 'processing' AND started_at IS NULL THEN NOW() ELSE started_at END,
    completed_at  = CASE WHEN $2 IN ('completed', 'failed') THEN NOW() ELSE completed_at END,
    updated_at    = NOW()
WHERE id = $1;
`
	_, err := r.pool.Exec(ctx, query,
		id,
		upd.Status,
		upd.Progress,
		upd.CurrentStep,
		upd.ErrorMessage,
		nullableBytes(upd.ResultJSON),
		upd.Attempts,
	)
	return err
}

func nullableBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	return b
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
