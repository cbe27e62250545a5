package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/adapter"
	"vibecheck/internal/domain/ports/repository"
	"vibecheck/internal/infra/logging"
	"vibecheck/internal/infra/metrics"
)

// Processor is the pipeline orchestrator: it sequences
// download -> transcribe -> summarize -> persist for one job, applies
// the idempotent upsert, and classifies failures.
//
// Error contract with the runner: Process returns a non-nil error ONLY
// for transient infrastructure failures, which the runner answers with a
// queue retry while the job stays in processing. Every permanent outcome
// (success, timeout, bad input) is absorbed here — the job row carries
// the result and the message gets acked.
type Processor struct {
	jobs        repository.JobRepository
	analyses    repository.AnalysisRepository
	storage     adapter.StorageGateway
	transcriber adapter.Transcriber
	summarizer  adapter.Summarizer
	tmpDir      string
	log         *zerolog.Logger
}

func NewProcessor(
	jobs repository.JobRepository,
	analyses repository.AnalysisRepository,
	storage adapter.StorageGateway,
	transcriber adapter.Transcriber,
	summarizer adapter.Summarizer,
	tmpDir string,
	log *zerolog.Logger,
) *Processor {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &Processor{
		jobs:        jobs,
		analyses:    analyses,
		storage:     storage,
		transcriber: transcriber,
		summarizer:  summarizer,
		tmpDir:      tmpDir,
		log:         log,
	}
}

// Handle adapts Process to the runner's task signature.
func (p *Processor) Handle(ctx context.Context, args ...string) error {
	if len(args) != 1 {
		p.log.Error().Strs("args", args).Msg("process_interview expects exactly one argument")
		return nil // malformed message, nothing to retry against
	}
	return p.Process(ctx, args[0])
}

func (p *Processor) Process(ctx context.Context, jobID string) error {
	ctx = logging.WithJobID(ctx, jobID)
	log := *logging.With(ctx, p.log)
	defer logging.TraceDuration(&log, "Processor.Process")()
	log.Info().Msg("processing interview job")

	var localPath string
	// The downloaded audio copy is released on every exit path.
	defer func() {
		if localPath != "" {
			if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
				log.Warn().Err(err).Str("path", localPath).Msg("cleanup of audio copy failed")
			}
		}
	}()

	// 1. Load the work order.
	job, err := p.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Nothing to retry against and no row to mark failed.
			log.Error().Msg("job not found, dropping message")
			metrics.IncJobProcessed("failed")
			return nil
		}
		return p.fail(ctx, &log, jobID, fmt.Errorf("load job: %w", err))
	}
	if job.InterviewerID == "" {
		return p.fail(ctx, &log, jobID, fmt.Errorf("job %s missing interviewer reference", jobID))
	}

	// 2. Mark processing. Setting the same status twice is harmless.
	if err := p.jobs.UpdateStatus(ctx, nil, jobID, model.JobStatusProcessing, nil, nil); err != nil {
		return p.fail(ctx, &log, jobID, fmt.Errorf("mark processing: %w", err))
	}

	// 3. Fetch audio into the transient working area.
	localPath = filepath.Join(p.tmpDir, fmt.Sprintf("vibecheck_%s_%s.audio", jobID, uuid.NewString()[:8]))
	start := time.Now()
	if err := p.storage.Fetch(ctx, job.AudioKey, localPath); err != nil {
		return p.fail(ctx, &log, jobID, fmt.Errorf("download audio: %w", err))
	}
	metrics.ObserveStage("download", time.Since(start))

	// 4. Transcribe.
	start = time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, localPath)
	if err != nil {
		return p.fail(ctx, &log, jobID, fmt.Errorf("transcribe: %w", err))
	}
	metrics.ObserveStage("transcribe", time.Since(start))
	log.Info().Int("chars", len(transcript)).Msg("transcription complete")

	// 5. Summarize. Malformed model output never errors here — the
	// stage returns the fallback record instead.
	start = time.Now()
	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return p.fail(ctx, &log, jobID, fmt.Errorf("summarize: %w", err))
	}
	metrics.ObserveStage("summarize", time.Since(start))

	// 6. Clamp sentiment regardless of what the stage returned.
	summary.SentimentScore = model.ClampSentiment(summary.SentimentScore)

	// 7+8. Upsert the analysis keyed by job id and read back the
	// canonical row id; redelivered invocations converge on one row.
	start = time.Now()
	analysis := &model.Analysis{
		JobID:          jobID,
		OwnerID:        job.OwnerID,
		InterviewerID:  job.InterviewerID,
		SentimentScore: summary.SentimentScore,
		Summary:        summary.ExecutiveSummary,
		Metrics: map[string]any{
			"executive_summary":     summary.ExecutiveSummary,
			"key_topics":            summary.KeyTopics,
			"strengths":             summary.Strengths,
			"areas_for_improvement": summary.AreasForImprovement,
		},
		Transcript: transcript,
	}
	analysisID, err := p.analyses.Upsert(ctx, nil, analysis)
	if err != nil {
		return p.fail(ctx, &log, jobID, fmt.Errorf("persist analysis: %w", err))
	}

	// 9. Complete the job, stamping the analysis link.
	if err := p.jobs.UpdateStatus(ctx, nil, jobID, model.JobStatusCompleted, nil, &analysisID); err != nil {
		return p.fail(ctx, &log, jobID, fmt.Errorf("mark completed: %w", err))
	}
	metrics.ObserveStage("persist", time.Since(start))

	metrics.IncJobProcessed("completed")
	log.Info().Str("analysis_id", analysisID).Msg("interview job completed")
	return nil
}

// fail routes a pipeline error. Order matters: the task deadline is
// checked before the transient table, because a timed-out task must not
// be retried even when the underlying error looks like a network blip.
func (p *Processor) fail(ctx context.Context, log *zerolog.Logger, jobID string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		log.Error().Err(err).Msg("job timed out")
		p.markFailed(jobID, log, "processing timed out")
		metrics.IncJobProcessed("failed")
		return nil
	}
	if domain.IsTransient(err) {
		log.Warn().Err(err).Msg("transient failure, leaving job in processing for retry")
		metrics.IncJobProcessed("retried")
		return err
	}
	log.Error().Err(err).Msg("permanent failure")
	p.markFailed(jobID, log, err.Error())
	metrics.IncJobProcessed("failed")
	return nil
}

// markFailed is best-effort: the task context may already be dead, so a
// fresh bounded context is used. If even this write fails the task ends
// in an ambiguous state — logged, not silently swallowed.
func (p *Processor) markFailed(jobID string, log *zerolog.Logger, detail string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.jobs.UpdateStatus(ctx, nil, jobID, model.JobStatusFailed, &detail, nil); err != nil {
		log.Error().Err(err).Msg("could not persist failed status, job state is ambiguous")
	}
}
