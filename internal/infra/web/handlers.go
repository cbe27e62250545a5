package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"vibecheck/internal/domain"
	"vibecheck/internal/domain/model"
	"vibecheck/internal/domain/ports/repository"
	"vibecheck/internal/infra/logging"
	"vibecheck/internal/usecase"
)

type jobView struct {
	ID            string    `json:"id"`
	InterviewerID string    `json:"interviewer_id,omitempty"`
	AudioKey      string    `json:"audio_key"`
	Status        string    `json:"status"`
	ErrorDetail   string    `json:"error_detail,omitempty"`
	AnalysisID    string    `json:"analysis_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toJobView(j *model.Job) jobView {
	return jobView{
		ID:            j.ID,
		InterviewerID: j.InterviewerID,
		AudioKey:      j.AudioKey,
		Status:        string(j.Status),
		ErrorDetail:   j.ErrorDetail,
		AnalysisID:    j.AnalysisID,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

type analysisView struct {
	ID             string         `json:"id"`
	JobID          string         `json:"job_id"`
	InterviewerID  string         `json:"interviewer_id"`
	SentimentScore float64        `json:"sentiment_score"`
	Summary        string         `json:"summary"`
	Metrics        map[string]any `json:"metrics"`
	Transcript     string         `json:"transcript,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type presignRequest struct {
	Filename      string `json:"filename"`
	InterviewerID string `json:"interviewer_id"`
}

// Handler for registering an upload: creates the pending job and hands
// back a presigned PUT URL.
func presignHandler(uploadUC usecase.UploadUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req presignRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		up, err := uploadUC.CreatePresigned(ctx, OwnerID(ctx), req.InterviewerID, req.Filename)
		if err != nil {
			if errors.Is(err, domain.ErrInvalidArgument) {
				http.Error(w, "filename and interviewer_id are required", http.StatusBadRequest)
				return
			}
			logging.With(ctx, log).Error().Err(err).Msg("presign upload failed")
			http.Error(w, "Failed to create upload", http.StatusInternalServerError)
			return
		}

		response := struct {
			JobID     string `json:"job_id"`
			AudioKey  string `json:"audio_key"`
			UploadURL string `json:"upload_url"`
		}{
			JobID:     up.JobID,
			AudioKey:  up.AudioKey,
			UploadURL: up.UploadURL,
		}
		writeJSON(w, http.StatusCreated, response)
	}
}

// Handler for confirming a finished upload: queues the job for processing.
func confirmHandler(uploadUC usecase.UploadUseCase, log *zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		jobID := chi.URLParam(r, "jobID")

		job, err := uploadUC.Confirm(ctx, jobID, OwnerID(ctx))
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.NotFound(w, r)
			case errors.Is(err, domain.ErrStateConflict):
				http.Error(w, "Job is not awaiting confirmation", http.StatusConflict)
			case errors.Is(err, domain.ErrInvalidArgument):
				http.Error(w, "Audio file has not been uploaded", http.StatusBadRequest)
			default:
				logging.With(ctx, log).Error().Err(err).Str("job_id", jobID).Msg("confirm upload failed")
				http.Error(w, "Failed to queue job", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusAccepted, toJobView(job))
	}
}

// jobsListHandler returns the caller's jobs, newest first. It accepts
// 'status', 'offset' and 'limit' query parameters.
func jobsListHandler(jobUC usecase.JobUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 {
			limit = 50 // Default page size
		}
		if limit > 100 {
			limit = 100
		}
		if offset < 0 {
			offset = 0
		}

		filter := repository.JobFilter{Limit: limit, Offset: offset}
		if raw := r.URL.Query().Get("status"); raw != "" {
			status := model.JobStatus(raw)
			if !status.Valid() {
				http.Error(w, "Unknown status filter", http.StatusBadRequest)
				return
			}
			filter.Status = &status
		}

		jobs, total, err := jobUC.List(ctx, OwnerID(ctx), filter)
		if err != nil {
			http.Error(w, "Failed to list jobs", http.StatusInternalServerError)
			return
		}

		views := make([]jobView, 0, len(jobs))
		for _, j := range jobs {
			views = append(views, toJobView(j))
		}

		response := struct {
			Data   []jobView `json:"data"`
			Total  int       `json:"total"`
			Limit  int       `json:"limit"`
			Offset int       `json:"offset"`
		}{
			Data:   views,
			Total:  total,
			Limit:  limit,
			Offset: offset,
		}
		writeJSON(w, http.StatusOK, response)
	}
}

func jobGetHandler(jobUC usecase.JobUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		jobID := chi.URLParam(r, "jobID")

		job, err := jobUC.Get(ctx, jobID, OwnerID(ctx))
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "Failed to get job", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, toJobView(job))
	}
}

// analysisGetHandler serves the finished analysis for a job. The raw
// transcript is omitted unless ?include_transcript=true is set.
func analysisGetHandler(analysisUC usecase.AnalysisUseCase) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		jobID := chi.URLParam(r, "jobID")
		includeTranscript := r.URL.Query().Get("include_transcript") == "true"

		analysis, err := analysisUC.GetForJob(ctx, jobID, OwnerID(ctx), includeTranscript)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				http.NotFound(w, r)
			case errors.Is(err, domain.ErrAnalysisNotReady):
				http.Error(w, "Analysis is not ready", http.StatusConflict)
			default:
				http.Error(w, "Failed to get analysis", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, analysisView{
			ID:             analysis.ID,
			JobID:          analysis.JobID,
			InterviewerID:  analysis.InterviewerID,
			SentimentScore: analysis.SentimentScore,
			Summary:        analysis.Summary,
			Metrics:        analysis.Metrics,
			Transcript:     analysis.Transcript,
			CreatedAt:      analysis.CreatedAt,
			UpdatedAt:      analysis.UpdatedAt,
		})
	}
}
