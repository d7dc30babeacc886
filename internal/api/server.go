// Package api exposes the read API over the job stores plus manual triggers
// for the ETL pipeline and the scheduler.
package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"remotejobs/aggregator/internal/db"
	"remotejobs/aggregator/internal/etl"
	"remotejobs/aggregator/internal/model"
	"remotejobs/aggregator/internal/scheduler"
)

// JobSource is the read surface of the source store the API serves.
type JobSource interface {
	ListJobs(ctx context.Context, f db.JobFilter) ([]model.JobRecord, error)
	GetJob(ctx context.Context, id int64) (*model.JobRecord, error)
	CountJobs(ctx context.Context) (int64, error)
}

// DocumentSource is the secondary-store read surface the API serves:
// the latest generated metrics and per-URL job lookups.
type DocumentSource interface {
	LatestAnalytics(ctx context.Context, metricType string) (*model.AnalyticsDoc, error)
	FindJobBySourceURL(ctx context.Context, sourceURL string) (*model.JobDocument, error)
}

// SnapshotSource reads archived snapshots back out of the cold store.
type SnapshotSource interface {
	RetrieveSnapshot(ctx context.Context, dataType string, day time.Time) (*model.SnapshotEnvelope, error)
	ListSnapshots(ctx context.Context, dataType string, from, to time.Time) ([]string, error)
}

// ETL is the manually triggerable pipeline surface.
type ETL interface {
	Sync(ctx context.Context, batchSize int) (etl.SyncResult, error)
	CreateDailySnapshot(ctx context.Context, day time.Time) (string, error)
	GenerateAnalyticsMetrics(ctx context.Context, day time.Time) (model.Metrics, error)
	CleanupOldData(ctx context.Context, daysToKeep int) (etl.CleanupResult, error)
}

// Schedules exposes scheduler introspection and manual job triggering.
type Schedules interface {
	JobStatuses() []scheduler.JobStatus
	TriggerJob(id string) bool
}

// Server wires the HTTP routes.
type Server struct {
	jobs      JobSource
	docs      DocumentSource
	snapshots SnapshotSource
	pipeline  ETL
	schedules Schedules
}

// NewServer constructs a Server over its dependencies.
func NewServer(jobs JobSource, docs DocumentSource, snapshots SnapshotSource, pipeline ETL, schedules Schedules) *Server {
	return &Server{jobs: jobs, docs: docs, snapshots: snapshots, pipeline: pipeline, schedules: schedules}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/v1/jobs", s.handleListJobs)
	mux.HandleFunc("GET /api/v1/jobs/{id}", s.handleGetJob)
	mux.HandleFunc("GET /api/v1/jobs/lookup", s.handleLookupJob)
	mux.HandleFunc("GET /api/v1/analytics/latest", s.handleLatestAnalytics)
	mux.HandleFunc("GET /api/v1/snapshots", s.handleListSnapshots)
	mux.HandleFunc("GET /api/v1/snapshots/latest", s.handleLatestSnapshot)
	mux.HandleFunc("POST /api/v1/etl/sync", s.handleSync)
	mux.HandleFunc("POST /api/v1/etl/snapshot", s.handleSnapshot)
	mux.HandleFunc("POST /api/v1/etl/cleanup", s.handleCleanup)
	mux.HandleFunc("GET /api/v1/scheduler/status", s.handleSchedulerStatus)
	mux.HandleFunc("POST /api/v1/scheduler/trigger/{id}", s.handleTrigger)

	return mux
}

// ── handlers ───────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, err := s.jobs.CountJobs(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "source store unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"service":     "remote-jobs-aggregator",
		"active_jobs": total,
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.JobFilter{
		Search:          q.Get("search"),
		ExperienceLevel: q.Get("experience_level"),
	}
	if v := q.Get("min_salary"); v != "" {
		salary, err := strconv.ParseFloat(v, 64)
		if err != nil || salary < 0 {
			writeError(w, http.StatusBadRequest, "min_salary must be a non-negative number")
			return
		}
		filter.MinSalary = salary
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		filter.Limit = limit
	}

	jobs, err := s.jobs.ListJobs(r.Context(), filter)
	if err != nil {
		log.Printf("[api] Error listing jobs: %v", err)
		writeError(w, http.StatusServiceUnavailable, "source store unreachable")
		return
	}
	if jobs == nil {
		jobs = []model.JobRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(jobs), "jobs": jobs})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "job id must be an integer")
		return
	}

	job, err := s.jobs.GetJob(r.Context(), id)
	if err != nil {
		log.Printf("[api] Error fetching job %d: %v", id, err)
		writeError(w, http.StatusServiceUnavailable, "source store unreachable")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleLatestAnalytics(w http.ResponseWriter, r *http.Request) {
	metricType := r.URL.Query().Get("metric_type")
	if metricType == "" {
		metricType = "daily_metrics"
	}

	doc, err := s.docs.LatestAnalytics(r.Context(), metricType)
	if err != nil {
		log.Printf("[api] Error fetching analytics: %v", err)
		writeError(w, http.StatusServiceUnavailable, "secondary store unreachable")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "no analytics generated yet")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) handleLookupJob(w http.ResponseWriter, r *http.Request) {
	sourceURL := r.URL.Query().Get("source_url")
	if sourceURL == "" {
		writeError(w, http.StatusBadRequest, "source_url is required")
		return
	}

	doc, err := s.docs.FindJobBySourceURL(r.Context(), sourceURL)
	if err != nil {
		log.Printf("[api] Error looking up job %s: %v", sourceURL, err)
		writeError(w, http.StatusServiceUnavailable, "secondary store unreachable")
		return
	}
	if doc == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleLatestSnapshot serves the most recent archived snapshot of a day,
// defaulting to today.
func (s *Server) handleLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if v := r.URL.Query().Get("date"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	envelope, err := s.snapshots.RetrieveSnapshot(r.Context(), "jobs", day)
	if err != nil {
		log.Printf("[api] Error retrieving snapshot: %v", err)
		writeError(w, http.StatusServiceUnavailable, "cold store unreachable")
		return
	}
	if envelope == nil {
		writeError(w, http.StatusNotFound, "no snapshot for "+day.Format("2006-01-02"))
		return
	}
	writeJSON(w, http.StatusOK, envelope)
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse("2006-01-02", r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "from must be YYYY-MM-DD")
		return
	}
	to, err := time.Parse("2006-01-02", r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "to must be YYYY-MM-DD")
		return
	}
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not precede from")
		return
	}

	keys, err := s.snapshots.ListSnapshots(r.Context(), "jobs", from, to)
	if err != nil {
		log.Printf("[api] Error listing snapshots: %v", err)
		writeError(w, http.StatusServiceUnavailable, "cold store unreachable")
		return
	}
	if keys == nil {
		keys = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": len(keys), "keys": keys})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	batchSize := 0
	if v := r.URL.Query().Get("batch_size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "batch_size must be a positive integer")
			return
		}
		batchSize = n
	}

	result, err := s.pipeline.Sync(r.Context(), batchSize)
	if err != nil {
		log.Printf("[api] Sync failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "sync failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	key, err := s.pipeline.CreateDailySnapshot(r.Context(), time.Time{})
	if err != nil {
		log.Printf("[api] Snapshot failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "snapshot failed: "+err.Error())
		return
	}

	metrics, err := s.pipeline.GenerateAnalyticsMetrics(r.Context(), time.Time{})
	if err != nil {
		log.Printf("[api] Analytics generation failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "analytics generation failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"snapshot_key": key, "metrics": metrics})
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	days := 90
	if v := r.URL.Query().Get("days_to_keep"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "days_to_keep must be a positive integer")
			return
		}
		days = n
	}

	result, err := s.pipeline.CleanupOldData(r.Context(), days)
	if err != nil {
		log.Printf("[api] Cleanup failed: %v", err)
		writeError(w, http.StatusServiceUnavailable, "cleanup failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"jobs": s.schedules.JobStatuses()})
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.schedules.TriggerJob(id) {
		writeError(w, http.StatusNotFound, "unknown job id "+id)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"triggered": id})
}

// ── helpers ────────────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[api] Error encoding response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
