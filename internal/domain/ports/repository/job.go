package repository

import (
	"context"

	"vibecheck/internal/domain/model"
)

// JobFilter narrows List results. A nil Status matches every state.
type JobFilter struct {
	Status *model.JobStatus
	Limit  int
	Offset int
}

type JobRepository interface {
	// Create persists a new job in status pending.
	Create(ctx context.Context, tx Tx, job *model.Job) error

	// FindByID loads a job regardless of owner. Worker-side use only.
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)

	// FindByIDForOwner loads a job scoped to its owner. A job owned by
	// another principal is indistinguishable from a missing one: both
	// return domain.ErrNotFound.
	FindByIDForOwner(ctx context.Context, tx Tx, id, ownerID string) (*model.Job, error)

	// MarkQueued transitions pending -> queued. Returns
	// domain.ErrStateConflict when the job is not currently pending.
	MarkQueued(ctx context.Context, tx Tx, id string) (*model.Job, error)

	// UpdateStatus applies a status transition as a single atomic
	// statement. errorDetail and analysisID are optional; errorDetail is
	// truncated to model.MaxErrorDetailLen before persistence.
	UpdateStatus(ctx context.Context, tx Tx, id string, status model.JobStatus, errorDetail *string, analysisID *string) error

	// ListForOwner returns jobs ordered by creation time descending plus
	// the total count independent of the page window.
	ListForOwner(ctx context.Context, tx Tx, ownerID string, filter JobFilter) ([]*model.Job, int, error)
}
