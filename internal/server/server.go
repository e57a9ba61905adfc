// Package server exposes the classification runs as background jobs over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"

	"ArticleClassifier/internal/app"
	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/infrastructure/scheduler"
	"ArticleClassifier/internal/timeline"
	"ArticleClassifier/internal/usecase"
)

const maxBodyBytes = 1 << 20

// Runner performs the runs a job may execute.
type Runner interface {
	Fetch(ctx context.Context, log *slog.Logger, p app.FetchParams) (domain.Journal, error)
	Classify(ctx context.Context, log *slog.Logger, p app.ClassifyParams) (usecase.Report, error)
	Aggregate(ctx context.Context, log *slog.Logger, p app.AggregateParams) (timeline.Buckets, error)
	WordCloud(ctx context.Context, log *slog.Logger, p app.WordCloudParams) ([]string, error)
	Chart(ctx context.Context, log *slog.Logger, p app.ChartParams) (string, error)
	History(ctx context.Context) ([]domain.LabelCount, error)
}

// Jobs tracks background runs.
type Jobs interface {
	Submit(kind string, task scheduler.Task) (string, error)
	GetSince(id string, offset int) (scheduler.Snapshot, bool)
	List() []scheduler.Snapshot
}

// Handler serves the job API.
type Handler struct {
	runner   Runner
	jobs     Jobs
	metrics  http.Handler
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler wires the job API. metrics may be nil.
func NewHandler(runner Runner, jobs Jobs, metrics http.Handler, log *slog.Logger) *Handler {
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	return &Handler{
		runner:   runner,
		jobs:     jobs,
		metrics:  metrics,
		validate: validator.New(),
		logger:   log,
	}
}

// NewRouter mounts the API and the shared middleware.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(h.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", h.metrics)

	r.Route("/api", func(r chi.Router) {
		r.Get("/history", h.History)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", h.ListJobs)
			r.Get("/{id}", h.GetJob)
			r.Post("/fetch", h.StartFetch)
			r.Post("/classify", h.StartClassify)
			r.Post("/aggregate", h.StartAggregate)
			r.Post("/wordcloud", h.StartWordCloud)
			r.Post("/chart", h.StartChart)
		})
	})

	return r
}

type jobResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type historyRow struct {
	Label  string `json:"label"`
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// StartFetch queues a journal download.
func (h *Handler) StartFetch(w http.ResponseWriter, r *http.Request) {
	var p app.FetchParams
	if !h.decode(w, r, &p) {
		return
	}
	h.submit(w, "fetch", func(ctx context.Context, log *slog.Logger) error {
		journal, err := h.runner.Fetch(ctx, log, p)
		if err != nil {
			return err
		}
		log.Info("fetch finished", "title", journal.Title, "articles", len(journal.Articles), "output", p.Output)
		return nil
	})
}

// StartClassify queues a classification run.
func (h *Handler) StartClassify(w http.ResponseWriter, r *http.Request) {
	var p app.ClassifyParams
	if !h.decode(w, r, &p) {
		return
	}
	h.submit(w, "classify", func(ctx context.Context, log *slog.Logger) error {
		report, err := h.runner.Classify(ctx, log, p)
		if err != nil {
			return err
		}
		log.Info("classify finished", "processed", report.Processed, "skipped", report.Skipped, "errors", report.Errors)
		return nil
	})
}

// StartAggregate queues a timeline aggregation.
func (h *Handler) StartAggregate(w http.ResponseWriter, r *http.Request) {
	var p app.AggregateParams
	if !h.decode(w, r, &p) {
		return
	}
	h.submit(w, "aggregate", func(ctx context.Context, log *slog.Logger) error {
		buckets, err := h.runner.Aggregate(ctx, log, p)
		if err != nil {
			return err
		}
		log.Info("aggregate finished", "years", len(buckets), "labels", len(buckets.Labels()))
		return nil
	})
}

// StartWordCloud queues word-cloud rendering.
func (h *Handler) StartWordCloud(w http.ResponseWriter, r *http.Request) {
	var p app.WordCloudParams
	if !h.decode(w, r, &p) {
		return
	}
	h.submit(w, "wordcloud", func(ctx context.Context, log *slog.Logger) error {
		paths, err := h.runner.WordCloud(ctx, log, p)
		if err != nil {
			return err
		}
		log.Info("wordcloud finished", "files", paths)
		return nil
	})
}

// StartChart queues chart rendering. Opening a browser is never done from the server.
func (h *Handler) StartChart(w http.ResponseWriter, r *http.Request) {
	var p app.ChartParams
	if !h.decode(w, r, &p) {
		return
	}
	p.Open = false
	h.submit(w, "chart", func(ctx context.Context, log *slog.Logger) error {
		path, err := h.runner.Chart(ctx, log, p)
		if err != nil {
			return err
		}
		log.Info("chart finished", "output", path)
		return nil
	})
}

// ListJobs returns every known job, oldest first.
func (h *Handler) ListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.jobs.List()
	if jobs == nil {
		jobs = []scheduler.Snapshot{}
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetJob returns one job with its log. ?since=N skips the first N log lines.
func (h *Handler) GetJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	since := 0
	if raw := r.URL.Query().Get("since"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid since %q", raw))
			return
		}
		since = n
	}
	snap, ok := h.jobs.GetSince(id, since)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("job %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// History returns the ledger summary.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	counts, err := h.runner.History(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	rows := make([]historyRow, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, historyRow{Label: c.Label, Status: string(c.Status), Count: c.Count})
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *Handler) submit(w http.ResponseWriter, kind string, task scheduler.Task) {
	id, err := h.jobs.Submit(kind, task)
	if err != nil {
		if errors.Is(err, scheduler.ErrStopped) {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusAccepted, jobResponse{ID: id})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).String(),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
