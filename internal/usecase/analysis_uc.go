package usecase

import (
	"context"
	"errors"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
)

// AnalysisUseCase exposes completed analysis results, owner-scoped.
type AnalysisUseCase interface {
	// GetForJob returns the analysis for a completed job. A job that
	// exists but has not finished yields domain.ErrAnalysisNotReady; a
	// missing or foreign job yields domain.ErrNotFound. The transcript
	// field is cleared unless includeTranscript is set.
	GetForJob(ctx context.Context, jobID, ownerID string, includeTranscript bool) (*model.Analysis, error)
}

type analysisUseCase struct {
	jobs     repository.JobRepository
	analyses repository.AnalysisRepository
}

func NewAnalysisUseCase(jobs repository.JobRepository, analyses repository.AnalysisRepository) AnalysisUseCase {
	return &analysisUseCase{jobs: jobs, analyses: analyses}
}

func (uc *analysisUseCase) GetForJob(ctx context.Context, jobID, ownerID string, includeTranscript bool) (*model.Analysis, error) {
	job, err := uc.jobs.FindByIDForOwner(ctx, nil, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.JobStatusCompleted || job.AnalysisID == "" {
		return nil, domain.ErrAnalysisNotReady
	}

	analysis, err := uc.analyses.FindByJobIDForOwner(ctx, nil, jobID, ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Status says completed but the row is gone; surface it as
			// not-ready rather than pretending the job is unknown.
			return nil, domain.ErrAnalysisNotReady
		}
		return nil, err
	}
	if !includeTranscript {
		analysis.Transcript = ""
	}
	return analysis, nil
}
