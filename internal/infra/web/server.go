package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"vibecheck/internal/infra/logging"
	"vibecheck/internal/usecase"
)

type Server struct {
	uploadUC   usecase.UploadUseCase
	jobUC      usecase.JobUseCase
	analysisUC usecase.AnalysisUseCase
	auth       *AuthManager
	log        *zerolog.Logger
}

func NewServer(
	uploadUC usecase.UploadUseCase,
	jobUC usecase.JobUseCase,
	analysisUC usecase.AnalysisUseCase,
	auth *AuthManager,
	logger *zerolog.Logger,
) *Server {
	return &Server{
		uploadUC:   uploadUC,
		jobUC:      jobUC,
		analysisUC: analysisUC,
		auth:       auth,
		log:        logger,
	}
}

// Router builds the HTTP routing tree. Health and metrics are open;
// everything under /api/v1 requires a bearer token.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(traceContext)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.auth.Middleware)

		r.Post("/uploads/presigned-url", presignHandler(s.uploadUC, s.log))
		r.Post("/uploads/{jobID}/confirm", confirmHandler(s.uploadUC, s.log))

		r.Get("/jobs", jobsListHandler(s.jobUC))
		r.Get("/jobs/{jobID}", jobGetHandler(s.jobUC))

		r.Get("/analyses/{jobID}", analysisGetHandler(s.analysisUC))
	})

	return r
}

// traceContext threads the per-request id into the logging context so
// every log line for one request carries the same trace_id.
func traceContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logging.WithTraceID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
