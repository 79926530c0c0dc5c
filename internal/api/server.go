package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
	"github.com/AfikDanan/DayZeroAI/internal/queue"
	"github.com/AfikDanan/DayZeroAI/internal/ratelimit"
	"github.com/AfikDanan/DayZeroAI/internal/store"
	"github.com/AfikDanan/DayZeroAI/internal/telemetry"
)

// Server wires the intake and status HTTP handlers. Intake never blocks on
// pipeline execution; it creates the record, enqueues, and returns.
type Server struct {
	cfg     config.Config
	store   *store.Store
	queue   *queue.RedisQueue
	limiter *ratelimit.TokenBucket
	log     *zap.Logger
}

func New(cfg config.Config, st *store.Store, q *queue.RedisQueue, limiter *ratelimit.TokenBucket, log *zap.Logger) *Server {
	return &Server{cfg: cfg, store: st, queue: q, limiter: limiter, log: log}
}

// Router builds the HTTP router.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Mount("/metrics", telemetry.Handler())

	r.Post("/webhooks/user-onboarding", s.handleOnboarding)
	r.Get("/jobs/{id}/status", s.handleJobStatus)
	r.Get("/jobs/{id}/video", s.handleJobVideo)

	if strings.EqualFold(s.cfg.ArtifactBackend, "local") || s.cfg.ArtifactBackend == "" {
		fs := http.StripPrefix("/videos/", http.FileServer(http.Dir(s.cfg.OutputDir)))
		r.Get("/videos/*", fs.ServeHTTP)
	}
	return r
}

type onboardingRequest struct {
	EventType    string          `json:"event_type"`
	EmployeeData models.Employee `json:"employee_data"`
}

type onboardingResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	JobID       string    `json:"job_id,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

func (s *Server) handleOnboarding(w http.ResponseWriter, r *http.Request) {
	var req onboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.EventType != "" && req.EventType != "user.onboarding" {
		http.Error(w, "unsupported event_type", http.StatusBadRequest)
		return
	}
	emp := req.EmployeeData
	if emp.EmployeeID == "" || emp.Name == "" || emp.Email == "" {
		http.Error(w, "employee_id, name and email are required", http.StatusBadRequest)
		return
	}

	if s.limiter != nil {
		allowed, _, err := s.limiter.Allow(r.Context(), "rl:"+sourceFromRequest(r))
		if err != nil {
			http.Error(w, "rate limit error", http.StatusInternalServerError)
			return
		}
		if !allowed {
			telemetry.RateLimitRejects.Inc()
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
	}

	jobID := uuid.New().String()
	if err := s.store.Create(r.Context(), models.Job{
		ID:         jobID,
		EmployeeID: emp.EmployeeID,
		Status:     models.StatusQueued,
	}); err != nil {
		s.log.Error("create job record", zap.Error(err))
		http.Error(w, "failed to create job", http.StatusInternalServerError)
		return
	}

	descriptor, _ := json.Marshal(models.JobDescriptor{JobID: jobID, Employee: emp})
	if err := s.queue.Enqueue(r.Context(), jobID, descriptor); err != nil {
		s.log.Error("enqueue job", zap.String("job_id", jobID), zap.Error(err))
		msg := err.Error()
		_ = s.store.Update(r.Context(), jobID, store.Update{
			Status:       models.StatusFailed,
			ErrorMessage: msg,
		})
		if errors.Is(err, queue.ErrQueueUnavailable) {
			http.Error(w, "work queue unavailable", http.StatusServiceUnavailable)
			return
		}
		http.Error(w, "enqueue failed", http.StatusInternalServerError)
		return
	}
	telemetry.EnqueueCounter.Inc()

	writeJSON(w, http.StatusAccepted, onboardingResponse{
		Success:     true,
		Message:     "user onboarding webhook processed",
		JobID:       jobID,
		ProcessedAt: time.Now().UTC(),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read job", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// handleJobVideo is a convenience endpoint that answers "where is my
// video" directly instead of making the caller interpret the status.
func (s *Server) handleJobVideo(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	job, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "job not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to read job", http.StatusInternalServerError)
		return
	}

	resp := map[string]any{"job_id": id, "status": job.Status}
	switch job.Status {
	case models.StatusCompleted:
		resp["video_url"] = job.VideoURL
		resp["status"] = "ready"
	case models.StatusProcessing:
		resp["message"] = "video is still being generated"
	case models.StatusFailed:
		resp["error"] = job.ErrorMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func sourceFromRequest(r *http.Request) string {
	if v := r.Header.Get("X-Webhook-Source"); v != "" {
		return v
	}
	return "default"
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
