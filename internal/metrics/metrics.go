// Package metrics holds the Prometheus collectors of the pipeline.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups pipeline counters. Every method is safe on a nil receiver so
// callers can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	// ArticlesFetched counts articles collected by the walker.
	ArticlesFetched prometheus.Counter

	// ArticlesClassified counts classifier answers, labeled by resulting label.
	ArticlesClassified *prometheus.CounterVec

	// ArticlesSkipped counts articles left out, labeled by reason.
	ArticlesSkipped *prometheus.CounterVec

	// ClassifierErrors counts failed classifier calls.
	ClassifierErrors prometheus.Counter

	// JobsStarted counts background jobs, labeled by kind.
	JobsStarted *prometheus.CounterVec

	// JobsFinished counts finished jobs, labeled by kind and status.
	JobsFinished *prometheus.CounterVec

	// StageDuration observes pipeline stage durations in seconds.
	StageDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry under namespace.
func New(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ArticlesFetched: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_fetched_total",
			Help:      "Articles collected from the bibliographic API",
		}),
		ArticlesClassified: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_classified_total",
			Help:      "Articles labeled by the classifier",
		}, []string{"label"}),
		ArticlesSkipped: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "articles_skipped_total",
			Help:      "Articles left out of a stage",
		}, []string{"reason"}),
		ClassifierErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_errors_total",
			Help:      "Failed classifier calls",
		}),
		JobsStarted: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_started_total",
			Help:      "Background jobs started",
		}, []string{"kind"}),
		JobsFinished: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_finished_total",
			Help:      "Background jobs finished",
		}, []string{"kind", "status"}),
		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 900, 1800},
		}, []string{"stage"}),
	}
}

// Fetched adds n collected articles.
func (m *Metrics) Fetched(n int) {
	if m == nil {
		return
	}
	m.ArticlesFetched.Add(float64(n))
}

// Classified records one classifier answer.
func (m *Metrics) Classified(label string) {
	if m == nil {
		return
	}
	m.ArticlesClassified.WithLabelValues(label).Inc()
}

// Skipped adds n skipped articles for reason.
func (m *Metrics) Skipped(reason string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.ArticlesSkipped.WithLabelValues(reason).Add(float64(n))
}

// ClassifierError records one failed classifier call.
func (m *Metrics) ClassifierError() {
	if m == nil {
		return
	}
	m.ClassifierErrors.Inc()
}

// JobStarted records a job launch.
func (m *Metrics) JobStarted(kind string) {
	if m == nil {
		return
	}
	m.JobsStarted.WithLabelValues(kind).Inc()
}

// JobFinished records a job outcome.
func (m *Metrics) JobFinished(kind, status string) {
	if m == nil {
		return
	}
	m.JobsFinished.WithLabelValues(kind, status).Inc()
}

// ObserveStage records how long stage took since start.
func (m *Metrics) ObserveStage(stage string, start time.Time) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile dumps the registry for the node exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
