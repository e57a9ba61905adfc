package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/metrics"
	"ArticleClassifier/internal/ports"
	"ArticleClassifier/internal/timeline"
)

// AggregateRequest selects the article file and year range to bucket.
type AggregateRequest struct {
	InputPath string
	Range     timeline.YearRange
	// FitRange replaces Range with the min..max years present in the file.
	FitRange bool
	// SummaryPath overrides the default <InputPath>.txt; "-" skips writing.
	SummaryPath string
}

// Aggregator buckets labeled articles by year and writes the summary file.
type Aggregator struct {
	store   ports.ArticleStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewAggregator constructs the use case.
func NewAggregator(store ports.ArticleStore, m *metrics.Metrics, log *slog.Logger) *Aggregator {
	return &Aggregator{store: store, metrics: m, logger: log}
}

// Run reads the article file and tallies it. The summary is written unless
// SummaryPath is "-".
func (a *Aggregator) Run(ctx context.Context, req AggregateRequest) (timeline.Buckets, error) {
	articles, err := a.store.ReadArticles(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read articles: %w", err)
	}
	return a.Aggregate(ctx, articles, req)
}

// Aggregate tallies articles already in memory.
func (a *Aggregator) Aggregate(_ context.Context, articles []domain.Article, req AggregateRequest) (timeline.Buckets, error) {
	defer a.metrics.ObserveStage("aggregate", time.Now())

	r := req.Range
	if req.FitRange {
		if fit, ok := timeline.FitRange(articles); ok {
			r = fit
		}
	}
	if r.End < r.Start {
		return nil, fmt.Errorf("invalid year range %d-%d", r.Start, r.End)
	}

	buckets := timeline.Aggregate(articles, r, a.logger)

	path := req.SummaryPath
	if path == "" {
		path = timeline.SummaryPath(req.InputPath)
	}
	if path != "-" {
		if err := timeline.WriteSummaryFile(path, buckets); err != nil {
			return buckets, err
		}
		if a.logger != nil {
			a.logger.Info("summary written", "path", path, "years", len(buckets))
		}
	}

	return buckets, nil
}
