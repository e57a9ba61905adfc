package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"ArticleClassifier/internal/chart"
	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/metrics"
	"ArticleClassifier/internal/ports"
	"ArticleClassifier/internal/timeline"
	"ArticleClassifier/internal/wordcloud"
)

// ErrNoEligibleArticles is returned when no article passes the citation filter.
var ErrNoEligibleArticles = errors.New("no articles with sufficient citations")

// WordCloudRequest describes one word-cloud run.
type WordCloudRequest struct {
	InputPath  string
	Threshold  int
	ByCategory bool
	OutputDir  string
	// Output is the overall image name inside OutputDir.
	Output      string
	Overall     wordcloud.Options
	PerCategory wordcloud.Options
}

// ChartRequest describes one chart run.
type ChartRequest struct {
	InputPath string
	Range     timeline.YearRange
	FitRange  bool
	Output    string
	Title     string
}

// Reporter renders word clouds and charts from article files.
type Reporter struct {
	store   ports.ArticleStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewReporter constructs the use case.
func NewReporter(store ports.ArticleStore, m *metrics.Metrics, log *slog.Logger) *Reporter {
	return &Reporter{store: store, metrics: m, logger: log}
}

// WordCloud renders one cloud over every eligible abstract, or one per label
// when ByCategory is set. It returns the written file paths.
func (r *Reporter) WordCloud(_ context.Context, req WordCloudRequest) ([]string, error) {
	defer r.metrics.ObserveStage("wordcloud", time.Now())

	articles, err := r.store.ReadArticles(req.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read articles: %w", err)
	}

	groups := map[string][]string{}
	eligible := 0
	for _, a := range articles {
		if a.CitationCount < req.Threshold {
			continue
		}
		eligible++
		key := ""
		if req.ByCategory {
			key = a.Label
		}
		groups[key] = append(groups[key], a.Abstract)
	}
	r.metrics.Skipped("wordcloud_threshold", len(articles)-eligible)
	if eligible == 0 {
		return nil, ErrNoEligibleArticles
	}

	renderer, err := wordcloud.NewRenderer()
	if err != nil {
		return nil, err
	}
	defer renderer.Close()

	if !req.ByCategory {
		path := filepath.Join(req.OutputDir, req.Output)
		if err := r.renderCloud(renderer, path, groups[""], req.Overall); err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	labels := make([]string, 0, len(groups))
	for label := range groups {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var written []string
	for _, label := range labels {
		path := filepath.Join(req.OutputDir, wordcloud.FileName(label))
		err := r.renderCloud(renderer, path, groups[label], req.PerCategory)
		if errors.Is(err, wordcloud.ErrNoWords) {
			r.info("no words for label", "label", label)
			continue
		}
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func (r *Reporter) renderCloud(renderer *wordcloud.Renderer, path string, abstracts []string, opts wordcloud.Options) error {
	words := wordcloud.Count(abstracts, opts.MaxWords)
	n, err := renderer.RenderFile(path, words, opts)
	if err != nil {
		return fmt.Errorf("word cloud %s: %w", path, err)
	}
	r.info("word cloud written", "path", path, "words", n)
	return nil
}

// Chart aggregates the article file and writes the HTML timeline chart.
func (r *Reporter) Chart(_ context.Context, req ChartRequest) (string, error) {
	defer r.metrics.ObserveStage("chart", time.Now())

	articles, err := r.store.ReadArticles(req.InputPath)
	if err != nil {
		return "", fmt.Errorf("read articles: %w", err)
	}
	if len(articles) == 0 {
		return "", fmt.Errorf("no articles in %s", req.InputPath)
	}

	rng := req.Range
	if req.FitRange {
		if fit, ok := timeline.FitRange(articles); ok {
			rng = fit
		}
	}
	if rng.End < rng.Start {
		return "", fmt.Errorf("invalid year range %d-%d", rng.Start, rng.End)
	}

	unlabeled := 0
	for _, a := range articles {
		if a.Label == domain.LabelNone {
			unlabeled++
		}
	}
	if unlabeled == len(articles) {
		r.info("articles are not classified yet", "path", req.InputPath)
	}

	buckets := timeline.Aggregate(articles, rng, r.logger)
	if err := chart.WriteFile(req.Output, chart.FromBuckets(req.Title, buckets)); err != nil {
		return "", err
	}
	r.info("chart written", "path", req.Output, "years", len(buckets))
	return req.Output, nil
}

func (r *Reporter) info(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Info(msg, args...)
	}
}
