//go:build !integration

package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
)

// --- Mock Repositories (Ports) ---

type mockJobRepo struct {
	repository.JobRepository // Embed interface for forward compatibility
	mu                       sync.Mutex
	jobs                     map[string]*model.Job
	CreateError              error // To simulate errors
	MarkQueuedError          error
}

func newMockJobRepo(jobs ...*model.Job) *mockJobRepo {
	m := &mockJobRepo{jobs: make(map[string]*model.Job)}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *mockJobRepo) Create(ctx context.Context, tx repository.Tx, job *model.Job) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.Status = model.JobStatusPending
	job.CreatedAt = time.Now()
	job.UpdatedAt = job.CreatedAt
	cp := *job
	m.jobs[job.ID] = &cp
	return nil
}

func (m *mockJobRepo) FindByIDForOwner(ctx context.Context, tx repository.Tx, id, ownerID string) (*model.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok || job.OwnerID != ownerID {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *mockJobRepo) MarkQueued(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	if m.MarkQueuedError != nil {
		return nil, m.MarkQueuedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if job.Status != model.JobStatusPending {
		return nil, domain.ErrStateConflict
	}
	job.Status = model.JobStatusQueued
	cp := *job
	return &cp, nil
}

func (m *mockJobRepo) ListForOwner(ctx context.Context, tx repository.Tx, ownerID string, filter repository.JobFilter) ([]*model.Job, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var owned []*model.Job
	for _, j := range m.jobs {
		if j.OwnerID != ownerID {
			continue
		}
		if filter.Status != nil && j.Status != *filter.Status {
			continue
		}
		cp := *j
		owned = append(owned, &cp)
	}
	total := len(owned)
	if filter.Offset >= total {
		return []*model.Job{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if filter.Limit <= 0 || end > total {
		end = total
	}
	return owned[filter.Offset:end], total, nil
}

type mockAnalysisRepo struct {
	repository.AnalysisRepository
	mu       sync.Mutex
	analyses []*model.Analysis
}

func (m *mockAnalysisRepo) add(a *model.Analysis) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.analyses = append(m.analyses, a)
}

func (m *mockAnalysisRepo) FindByJobIDForOwner(ctx context.Context, tx repository.Tx, jobID, ownerID string) (*model.Analysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.analyses {
		if a.JobID == jobID && a.OwnerID == ownerID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- Mock Adapters (Ports) ---

type mockSigner struct {
	PresignError error
	ExistsError  error
	Missing      bool // simulate a confirm before the client uploaded
	signedKeys   []string
}

func (m *mockSigner) PresignUpload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.PresignError != nil {
		return "", m.PresignError
	}
	m.signedKeys = append(m.signedKeys, key)
	return "https://storage.example.com/" + key + "?signed=1", nil
}

func (m *mockSigner) Exists(ctx context.Context, key string) (bool, error) {
	if m.ExistsError != nil {
		return false, m.ExistsError
	}
	return !m.Missing, nil
}

type mockQueue struct {
	mu           sync.Mutex
	enqueued     []*model.TaskMessage
	EnqueueError error
}

func (m *mockQueue) Enqueue(ctx context.Context, msg *model.TaskMessage) error {
	if m.EnqueueError != nil {
		return m.EnqueueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enqueued = append(m.enqueued, msg)
	return nil
}
