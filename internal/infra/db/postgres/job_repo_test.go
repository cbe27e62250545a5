//go:build integration

package postgres

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
)

func newJob(owner string) *model.Job {
	return &model.Job{
		OwnerID:       owner,
		InterviewerID: "interviewer-1",
		AudioKey:      "uploads/" + owner + "/" + uuid.NewString() + "/a.mp3",
	}
}

func TestJobRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	tm := NewTxManager(testPool)
	repo := NewJobRepo(testPool, tm)

	t.Run("should create and read back a job", func(t *testing.T) {
		cleanup(t)

		job := newJob("owner-1")
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatalf("failed to create job: %v", err)
		}
		if job.ID == "" {
			t.Fatal("expected a generated id")
		}

		got, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatalf("failed to find job: %v", err)
		}
		if got.Status != model.JobStatusPending {
			t.Errorf("expected pending, got %s", got.Status)
		}
		if got.AudioKey != job.AudioKey || got.InterviewerID != "interviewer-1" {
			t.Errorf("row does not match: %+v", got)
		}
	})

	t.Run("owner scoping hides foreign jobs", func(t *testing.T) {
		cleanup(t)

		job := newJob("owner-1")
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}

		if _, err := repo.FindByIDForOwner(ctx, nil, job.ID, "owner-1"); err != nil {
			t.Errorf("owner read failed: %v", err)
		}
		if _, err := repo.FindByIDForOwner(ctx, nil, job.ID, "owner-2"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign owner, got %v", err)
		}
	})

	t.Run("mark queued transitions exactly once", func(t *testing.T) {
		cleanup(t)

		job := newJob("owner-1")
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}

		queued, err := repo.MarkQueued(ctx, nil, job.ID)
		if err != nil {
			t.Fatalf("first MarkQueued failed: %v", err)
		}
		if queued.Status != model.JobStatusQueued {
			t.Errorf("expected queued, got %s", queued.Status)
		}

		if _, err := repo.MarkQueued(ctx, nil, job.ID); !errors.Is(err, domain.ErrStateConflict) {
			t.Errorf("expected ErrStateConflict on second call, got %v", err)
		}
		if _, err := repo.MarkQueued(ctx, nil, uuid.NewString()); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown id, got %v", err)
		}
	})

	t.Run("update status stamps optional fields", func(t *testing.T) {
		cleanup(t)

		job := newJob("owner-1")
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}

		if err := repo.UpdateStatus(ctx, nil, job.ID, model.JobStatusProcessing, nil, nil); err != nil {
			t.Fatalf("mark processing failed: %v", err)
		}

		analysisID := uuid.NewString()
		if err := repo.UpdateStatus(ctx, nil, job.ID, model.JobStatusCompleted, nil, &analysisID); err != nil {
			t.Fatalf("mark completed failed: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != model.JobStatusCompleted || got.AnalysisID != analysisID {
			t.Errorf("unexpected row after completion: %+v", got)
		}

		if err := repo.UpdateStatus(ctx, nil, uuid.NewString(), model.JobStatusFailed, nil, nil); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for unknown id, got %v", err)
		}
	})

	t.Run("error detail is truncated in the database", func(t *testing.T) {
		cleanup(t)

		job := newJob("owner-1")
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}

		long := strings.Repeat("e", model.MaxErrorDetailLen+300)
		if err := repo.UpdateStatus(ctx, nil, job.ID, model.JobStatusFailed, &long, nil); err != nil {
			t.Fatalf("mark failed errored: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.ErrorDetail) != model.MaxErrorDetailLen {
			t.Errorf("expected %d chars of detail, got %d", model.MaxErrorDetailLen, len(got.ErrorDetail))
		}
	})

	t.Run("completing after a failure clears the stale detail", func(t *testing.T) {
		cleanup(t)

		job := newJob("owner-1")
		if err := repo.Create(ctx, nil, job); err != nil {
			t.Fatal(err)
		}

		detail := "transcription backend rejected the file"
		if err := repo.UpdateStatus(ctx, nil, job.ID, model.JobStatusFailed, &detail, nil); err != nil {
			t.Fatalf("mark failed errored: %v", err)
		}

		// A redelivered duplicate can still finish the job.
		analysisID := uuid.NewString()
		if err := repo.UpdateStatus(ctx, nil, job.ID, model.JobStatusCompleted, nil, &analysisID); err != nil {
			t.Fatalf("mark completed failed: %v", err)
		}

		got, err := repo.FindByID(ctx, nil, job.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.ErrorDetail != "" {
			t.Errorf("completed job kept stale error detail %q", got.ErrorDetail)
		}
		if got.AnalysisID != analysisID {
			t.Errorf("expected analysis id %s, got %s", analysisID, got.AnalysisID)
		}
	})

	t.Run("list is owner scoped with totals", func(t *testing.T) {
		cleanup(t)

		for i := 0; i < 3; i++ {
			if err := repo.Create(ctx, nil, newJob("owner-1")); err != nil {
				t.Fatal(err)
			}
		}
		if err := repo.Create(ctx, nil, newJob("owner-2")); err != nil {
			t.Fatal(err)
		}

		jobs, total, err := repo.ListForOwner(ctx, nil, "owner-1", repository.JobFilter{Limit: 2})
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if total != 3 {
			t.Errorf("expected total 3, got %d", total)
		}
		if len(jobs) != 2 {
			t.Errorf("expected page of 2, got %d", len(jobs))
		}

		failed := model.JobStatusFailed
		_, total, err = repo.ListForOwner(ctx, nil, "owner-1", repository.JobFilter{Status: &failed, Limit: 10})
		if err != nil {
			t.Fatal(err)
		}
		if total != 0 {
			t.Errorf("expected no failed jobs, got %d", total)
		}
	})
}
