package usecase

import (
	"context"

	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
)

// JobUseCase provides owner-scoped read access to processing jobs.
type JobUseCase interface {
	Get(ctx context.Context, jobID, ownerID string) (*model.Job, error)
	List(ctx context.Context, ownerID string, filter repository.JobFilter) ([]*model.Job, int, error)
}

type jobUseCase struct {
	jobs repository.JobRepository
}

func NewJobUseCase(jobs repository.JobRepository) JobUseCase {
	return &jobUseCase{jobs: jobs}
}

func (uc *jobUseCase) Get(ctx context.Context, jobID, ownerID string) (*model.Job, error) {
	return uc.jobs.FindByIDForOwner(ctx, nil, jobID, ownerID)
}

func (uc *jobUseCase) List(ctx context.Context, ownerID string, filter repository.JobFilter) ([]*model.Job, int, error) {
	return uc.jobs.ListForOwner(ctx, nil, ownerID, filter)
}
