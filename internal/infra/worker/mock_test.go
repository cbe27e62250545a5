//go:build !integration

package worker

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/adapter"
	"vibecheck/internal/domain/ports/repository"
)

// --- Mock Repositories (Ports) ---

type mockJobRepo struct {
	repository.JobRepository // Embed interface for forward compatibility
	mu                       sync.Mutex
	jobs                     map[string]*model.Job
	FindByIDError            error // To simulate errors
	UpdateStatusError        error
	statusHistory            []model.JobStatus
}

func newMockJobRepo(jobs ...*model.Job) *mockJobRepo {
	m := &mockJobRepo{jobs: make(map[string]*model.Job)}
	for _, j := range jobs {
		m.jobs[j.ID] = j
	}
	return m
}

func (m *mockJobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	if m.FindByIDError != nil {
		return nil, m.FindByIDError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (m *mockJobRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, status model.JobStatus, errorDetail *string, analysisID *string) error {
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = status
	if errorDetail != nil {
		job.ErrorDetail = model.TruncateErrorDetail(*errorDetail)
	}
	if analysisID != nil {
		job.AnalysisID = *analysisID
	}
	m.statusHistory = append(m.statusHistory, status)
	return nil
}

func (m *mockJobRepo) get(id string) *model.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *m.jobs[id]
	return &cp
}

type mockAnalysisRepo struct {
	repository.AnalysisRepository
	mu          sync.Mutex
	byJobID     map[string]*model.Analysis
	UpsertError error
}

func newMockAnalysisRepo() *mockAnalysisRepo {
	return &mockAnalysisRepo{byJobID: make(map[string]*model.Analysis)}
}

func (m *mockAnalysisRepo) Upsert(ctx context.Context, tx repository.Tx, analysis *model.Analysis) (string, error) {
	if m.UpsertError != nil {
		return "", m.UpsertError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if prior, ok := m.byJobID[analysis.JobID]; ok {
		// Same row id regardless of which invocation wrote last.
		cp := *analysis
		cp.ID = prior.ID
		m.byJobID[analysis.JobID] = &cp
		return prior.ID, nil
	}
	cp := *analysis
	cp.ID = uuid.NewString()
	m.byJobID[analysis.JobID] = &cp
	return cp.ID, nil
}

func (m *mockAnalysisRepo) get(jobID string) *model.Analysis {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byJobID[jobID]
}

// --- Mock Adapters (Ports) ---

type mockStorage struct {
	FetchError error
	content    string
	fetched    []string
}

func (m *mockStorage) Fetch(ctx context.Context, key, dest string) error {
	if m.FetchError != nil {
		return m.FetchError
	}
	m.fetched = append(m.fetched, key)
	content := m.content
	if content == "" {
		content = "fake-audio-bytes"
	}
	return os.WriteFile(dest, []byte(content), 0o600)
}

func (m *mockStorage) Exists(ctx context.Context, key string) (bool, error) { return true, nil }

type mockTranscriber struct {
	Transcript      string
	TranscribeError error
	Delay           time.Duration
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.TranscribeError != nil {
		return "", m.TranscribeError
	}
	return m.Transcript, nil
}

func (m *mockTranscriber) TranscribeWithTimestamps(ctx context.Context, audioPath string) ([]adapter.TranscriptSegment, error) {
	text, err := m.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return []adapter.TranscriptSegment{{Start: 0, End: 1, Text: text}}, nil
}

type mockSummarizer struct {
	Summary        model.Summary
	SummarizeError error
}

func (m *mockSummarizer) Summarize(ctx context.Context, transcript string) (model.Summary, error) {
	if m.SummarizeError != nil {
		return model.Summary{}, m.SummarizeError
	}
	return m.Summary, nil
}

// --- Mock Broker ---

type mockBroker struct {
	mu        sync.Mutex
	pending   []*model.TaskMessage
	acked     []*model.TaskMessage
	retried   []*model.TaskMessage
	dead      []*model.TaskMessage
	recovered int
	maxTries  int
}

func (m *mockBroker) Enqueue(ctx context.Context, msg *model.TaskMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, msg)
	return nil
}

func (m *mockBroker) Dequeue(ctx context.Context) (*model.TaskMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.pending) == 0 {
		return nil, domain.ErrNotFound
	}
	msg := m.pending[0]
	m.pending = m.pending[1:]
	return msg, nil
}

func (m *mockBroker) Ack(ctx context.Context, msg *model.TaskMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg)
	return nil
}

func (m *mockBroker) Retry(ctx context.Context, msg *model.TaskMessage) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.Retries++
	if msg.Retries > m.maxTries {
		m.dead = append(m.dead, msg)
		return false, nil
	}
	m.retried = append(m.retried, msg)
	return true, nil
}

func (m *mockBroker) RecoverInFlight(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recovered, nil
}

func (m *mockBroker) counts() (acked, retried, dead int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.acked), len(m.retried), len(m.dead)
}
