package usecase

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/adapter"
	"vibecheck/internal/domain/ports/repository"
)

// PresignedUpload is handed to the client so it can PUT the audio file
// straight to object storage.
type PresignedUpload struct {
	JobID     string
	AudioKey  string
	UploadURL string
}

// UploadUseCase owns the two API-side job transitions: create (pending)
// and confirm (queued + enqueue).
type UploadUseCase interface {
	// CreatePresigned registers a pending job and issues an upload URL.
	CreatePresigned(ctx context.Context, ownerID, interviewerID, filename string) (*PresignedUpload, error)

	// Confirm transitions the job pending -> queued and enqueues the
	// processing task. Rejects foreign owners with domain.ErrNotFound
	// and repeat confirms with domain.ErrStateConflict.
	Confirm(ctx context.Context, jobID, ownerID string) (*model.Job, error)
}

type uploadUseCase struct {
	jobs       repository.JobRepository
	signer     adapter.UploadURLSigner
	queue      adapter.TaskQueue
	presignTTL time.Duration
	log        *zerolog.Logger
}

func NewUploadUseCase(jobs repository.JobRepository, signer adapter.UploadURLSigner, queue adapter.TaskQueue, presignTTL time.Duration, log *zerolog.Logger) UploadUseCase {
	return &uploadUseCase{jobs: jobs, signer: signer, queue: queue, presignTTL: presignTTL, log: log}
}

func (uc *uploadUseCase) CreatePresigned(ctx context.Context, ownerID, interviewerID, filename string) (*PresignedUpload, error) {
	if ownerID == "" || filename == "" {
		return nil, domain.ErrInvalidArgument
	}
	if interviewerID == "" {
		// The pipeline treats a missing interviewer as a permanent
		// failure; reject it up front instead of queueing a dead job.
		return nil, domain.ErrInvalidArgument
	}

	key := fmt.Sprintf("uploads/%s/%s/%s", ownerID, uuid.NewString(), path.Base(filename))
	job := &model.Job{
		OwnerID:       ownerID,
		InterviewerID: interviewerID,
		AudioKey:      key,
		Status:        model.JobStatusPending,
	}
	if err := uc.jobs.Create(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	url, err := uc.signer.PresignUpload(ctx, key, uc.presignTTL)
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	uc.log.Info().Str("job_id", job.ID).Str("audio_key", key).Msg("job created")
	return &PresignedUpload{JobID: job.ID, AudioKey: key, UploadURL: url}, nil
}

func (uc *uploadUseCase) Confirm(ctx context.Context, jobID, ownerID string) (*model.Job, error) {
	// Ownership check first: a foreign job must look exactly like a
	// missing one.
	existing, err := uc.jobs.FindByIDForOwner(ctx, nil, jobID, ownerID)
	if err != nil {
		return nil, err
	}

	uploaded, err := uc.signer.Exists(ctx, existing.AudioKey)
	if err != nil {
		return nil, fmt.Errorf("check upload: %w", err)
	}
	if !uploaded {
		return nil, fmt.Errorf("%w: audio object not uploaded", domain.ErrInvalidArgument)
	}

	job, err := uc.jobs.MarkQueued(ctx, nil, jobID)
	if err != nil {
		return nil, err
	}

	msg := model.NewTaskMessage(model.TaskProcessInterview, jobID)
	if err := uc.queue.Enqueue(ctx, msg); err != nil {
		// The job row is already queued; the broker being down is a
		// retryable infra condition for the caller.
		uc.log.Error().Err(err).Str("job_id", jobID).Msg("enqueue failed after confirm")
		return nil, err
	}

	uc.log.Info().Str("job_id", jobID).Str("task_id", msg.ID).Msg("job queued for processing")
	return job, nil
}
