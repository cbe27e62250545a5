//go:build !integration

package web

import (
	"context"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
	"vibecheck/internal/usecase"
)

// --- Mock Use Cases ---

type mockUploadUC struct {
	CreateResult *usecase.PresignedUpload
	CreateError  error
	ConfirmJob   *model.Job
	ConfirmError error
	confirmedIDs []string
}

var _ usecase.UploadUseCase = (*mockUploadUC)(nil)

func (m *mockUploadUC) CreatePresigned(ctx context.Context, ownerID, interviewerID, filename string) (*usecase.PresignedUpload, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	return m.CreateResult, nil
}

func (m *mockUploadUC) Confirm(ctx context.Context, jobID, ownerID string) (*model.Job, error) {
	if m.ConfirmError != nil {
		return nil, m.ConfirmError
	}
	m.confirmedIDs = append(m.confirmedIDs, jobID)
	return m.ConfirmJob, nil
}

type mockJobUC struct {
	jobs map[string]*model.Job // keyed by jobID, owner checked against OwnerID
}

var _ usecase.JobUseCase = (*mockJobUC)(nil)

func (m *mockJobUC) Get(ctx context.Context, jobID, ownerID string) (*model.Job, error) {
	job, ok := m.jobs[jobID]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (m *mockJobUC) List(ctx context.Context, ownerID string, filter repository.JobFilter) ([]*model.Job, int, error) {
	var out []*model.Job
	for _, j := range m.jobs {
		if j.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		out = append(out, j)
	}
	return out, len(out), nil
}

type mockAnalysisUC struct {
	Analysis *model.Analysis
	Error    error
}

var _ usecase.AnalysisUseCase = (*mockAnalysisUC)(nil)

func (m *mockAnalysisUC) GetForJob(ctx context.Context, jobID, ownerID string, includeTranscript bool) (*model.Analysis, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	cp := *m.Analysis
	if !includeTranscript {
		cp.Transcript = ""
	}
	return &cp, nil
}
