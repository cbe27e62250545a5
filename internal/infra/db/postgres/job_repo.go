package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *jobRepo {
	return &jobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, owner_id, interviewer_id, audio_key, status, error_detail, analysis_id, created_at, updated_at`

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j             model.Job
		statusStr     string
		interviewerID *string
		errorDetail   *string
		analysisID    *string
	)
	err := row.Scan(&j.ID, &j.OwnerID, &interviewerID, &j.AudioKey, &statusStr, &errorDetail, &analysisID, &j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		// Keep the cause in the chain: connection-class failures must
		// stay recognizable to the transient-error policy.
		return nil, fmt.Errorf("%w: %w", domain.ErrReadDatabaseRow, err)
	}
	j.Status = model.JobStatus(statusStr)
	if interviewerID != nil {
		j.InterviewerID = *interviewerID
	}
	if errorDetail != nil {
		j.ErrorDetail = *errorDetail
	}
	if analysisID != nil {
		j.AnalysisID = *analysisID
	}
	return &j, nil
}

func (r *jobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = model.JobStatusPending
	}
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	const q = `
INSERT INTO processing_jobs (id, owner_id, interviewer_id, audio_key, status, created_at, updated_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7);`

	_, err := execSQL(ctx, r.pool, tx, q,
		job.ID, job.OwnerID, job.InterviewerID, job.AudioKey, job.Status, job.CreatedAt, job.UpdatedAt)
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) FindByIDForOwner(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+jobColumns+` FROM processing_jobs WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// MarkQueued performs the pending -> queued transition under a row lock so
// a double confirm cannot slip through between read and update.
func (r *jobRepo) MarkQueued(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	var job *model.Job

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		row, err := pickRow(ctx, r.pool, tx,
			`SELECT `+jobColumns+` FROM processing_jobs WHERE id = $1 FOR UPDATE`, id)
		if err != nil {
			return err
		}
		j, err := scanJob(row)
		if err != nil {
			return err
		}
		if j.Status != model.JobStatusPending {
			return domain.ErrStateConflict
		}

		j.Status = model.JobStatusQueued
		j.UpdatedAt = time.Now()
		if _, err := execSQL(ctx, r.pool, tx,
			`UPDATE processing_jobs SET status = $2, updated_at = $3 WHERE id = $1`,
			j.ID, j.Status, j.UpdatedAt); err != nil {
			return err
		}
		job = j
		return nil
	})
	return job, err
}

// UpdateStatus is a single atomic statement: a concurrent reader never
// observes a half-updated row. Optional fields left nil keep their value.
func (r *jobRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.JobStatus, errorDetail *string, analysisID *string) error {
	if errorDetail != nil {
		truncated := model.TruncateErrorDetail(*errorDetail)
		errorDetail = &truncated
	}

	// error_detail only ever belongs to a failed job: any other target
	// status clears it, so a redelivered duplicate completing after an
	// earlier failure does not keep the stale diagnostic.
	const q = `
UPDATE processing_jobs
SET status = $2,
    error_detail = CASE WHEN $2 = 'failed' THEN COALESCE($3, error_detail) ELSE NULL END,
    analysis_id = COALESCE($4, analysis_id),
    updated_at = $5
WHERE id = $1;`

	tag, err := execSQL(ctx, r.pool, tx, q, id, status, errorDetail, analysisID, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *jobRepo) ListForOwner(ctx context.Context, tx repository.Tx, ownerID string, filter repository.JobFilter) ([]*model.Job, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	where := `WHERE owner_id = $1`
	args := []interface{}{ownerID}
	if filter.Status != nil {
		where += ` AND status = $2`
		args = append(args, *filter.Status)
	}

	var total int
	row, err := pickRow(ctx, r.pool, tx, `SELECT COUNT(*) FROM processing_jobs `+where, args...)
	if err != nil {
		return nil, 0, err
	}
	if err := row.Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", domain.ErrReadDatabaseRow, err)
	}

	q := fmt.Sprintf(`SELECT %s FROM processing_jobs %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		jobColumns, where, filter.Limit, filter.Offset)
	rows, err := pickRows(ctx, r.pool, tx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, j)
	}
	return jobs, total, rows.Err()
}
