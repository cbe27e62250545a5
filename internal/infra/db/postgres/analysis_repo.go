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

var _ repository.AnalysisRepository = (*analysisRepo)(nil)

type analysisRepo struct {
	pool *pgxpool.Pool
}

func NewAnalysisRepo(pool *pgxpool.Pool) *analysisRepo {
	return &analysisRepo{pool: pool}
}

const analysisColumns = `id, job_id, owner_id, interviewer_id, sentiment_score, summary, metrics, transcript, created_at, updated_at`

func scanAnalysis(row pgx.Row) (*model.Analysis, error) {
	var (
		a          model.Analysis
		summary    *string
		transcript *string
	)
	err := row.Scan(&a.ID, &a.JobID, &a.OwnerID, &a.InterviewerID, &a.SentimentScore,
		&summary, &a.Metrics, &transcript, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrReadDatabaseRow, err)
	}
	if summary != nil {
		a.Summary = *summary
	}
	if transcript != nil {
		a.Transcript = *transcript
	}
	return &a, nil
}

// Upsert is the idempotency mechanism for at-least-once redelivery: the
// unique constraint on job_id plus ON CONFLICT DO UPDATE makes two racing
// invocations converge on one row. RETURNING id yields the canonical row
// id whichever invocation won the insert.
func (r *analysisRepo) Upsert(ctx context.Context, tx repository.Tx, analysis *model.Analysis) (string, error) {
	if analysis.ID == "" {
		analysis.ID = uuid.NewString()
	}
	now := time.Now()
	if analysis.CreatedAt.IsZero() {
		analysis.CreatedAt = now
	}
	analysis.UpdatedAt = now

	const q = `
INSERT INTO interview_analyses (id, job_id, owner_id, interviewer_id, sentiment_score, summary, metrics, transcript, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (job_id) DO UPDATE SET
  sentiment_score = EXCLUDED.sentiment_score,
  summary = EXCLUDED.summary,
  metrics = EXCLUDED.metrics,
  transcript = EXCLUDED.transcript,
  updated_at = EXCLUDED.updated_at
RETURNING id;`

	row, err := pickRow(ctx, r.pool, tx, q,
		analysis.ID, analysis.JobID, analysis.OwnerID, analysis.InterviewerID,
		analysis.SentimentScore, analysis.Summary, analysis.Metrics, analysis.Transcript,
		analysis.CreatedAt, analysis.UpdatedAt)
	if err != nil {
		return "", err
	}
	var canonicalID string
	if err := row.Scan(&canonicalID); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrReadDatabaseRow, err)
	}
	return canonicalID, nil
}

func (r *analysisRepo) FindByJobID(ctx context.Context, tx repository.Tx, jobID string) (*model.Analysis, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+analysisColumns+` FROM interview_analyses WHERE job_id = $1`, jobID)
	if err != nil {
		return nil, err
	}
	return scanAnalysis(row)
}

func (r *analysisRepo) FindByJobIDForOwner(ctx context.Context, tx repository.Tx, jobID, ownerID string) (*model.Analysis, error) {
	row, err := pickRow(ctx, r.pool, tx,
		`SELECT `+analysisColumns+` FROM interview_analyses WHERE job_id = $1 AND owner_id = $2`, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	return scanAnalysis(row)
}
