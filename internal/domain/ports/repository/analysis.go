package repository

import (
	"context"

	"vibecheck/internal/domain/model"
)

type AnalysisRepository interface {
	// Upsert inserts the analysis keyed by job id, overwriting content
	// fields when a prior attempt already inserted a row for the same
	// job. It returns the canonical row id, which may differ from
	// analysis.ID when an earlier invocation won the insert race.
	Upsert(ctx context.Context, tx Tx, analysis *model.Analysis) (string, error)

	// FindByJobID loads the analysis for a job, unscoped.
	FindByJobID(ctx context.Context, tx Tx, jobID string) (*model.Analysis, error)

	// FindByJobIDForOwner is the ownership-scoped read used by the API.
	FindByJobIDForOwner(ctx context.Context, tx Tx, jobID, ownerID string) (*model.Analysis, error)
}
