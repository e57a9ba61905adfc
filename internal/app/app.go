package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"ArticleClassifier/internal/chart"
	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/infrastructure/llm"
	"ArticleClassifier/internal/infrastructure/scopus"
	"ArticleClassifier/internal/infrastructure/storage"
	"ArticleClassifier/internal/infrastructure/telegram"
	"ArticleClassifier/internal/metrics"
	"ArticleClassifier/internal/ports"
	"ArticleClassifier/internal/scanner"
	"ArticleClassifier/internal/timeline"
	"ArticleClassifier/internal/usecase"
	"ArticleClassifier/internal/wordcloud"
)

// Application wires configuration to the use cases. Every run builds its
// adapters with the logger it is given, so concurrent jobs keep separate logs.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
	store   *storage.CSVStore
	ledger  *storage.SQLLedger

	// generator builds the classifier client; replaced in tests.
	generator func(config.ClassifierConfig) (ports.TextGenerator, error)
}

// New opens the optional ledger and prepares shared adapters.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		return nil, errors.New("logger is required")
	}

	a := &Application{
		cfg:       cfg,
		logger:    baseLogger,
		metrics:   metrics.New(cfg.Metrics.Namespace),
		store:     storage.NewCSVStore(baseLogger.With("component", "storage.csv")),
		generator: llm.New,
	}

	if cfg.Database.DSN != "" {
		ledger, err := storage.OpenLedger(ctx, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		a.ledger = ledger
	}

	return a, nil
}

// Close flushes the metrics textfile and releases the ledger.
func (a *Application) Close() error {
	var firstErr error
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		firstErr = err
	}
	if err := a.ledger.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close ledger: %w", err)
	}
	return firstErr
}

// Config returns the loaded configuration.
func (a *Application) Config() config.Config { return a.cfg }

// Metrics returns the shared collectors.
func (a *Application) Metrics() *metrics.Metrics { return a.metrics }

// Logger returns the base logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// FetchParams are the raw user inputs of a fetch run.
type FetchParams struct {
	ISSN       string `json:"issn" validate:"required"`
	StartYear  string `json:"startYear"`
	EndYear    string `json:"endYear"`
	Threshold  string `json:"threshold"`
	Output     string `json:"output" validate:"required"`
	JournalCSV string `json:"journalCsv"`
}

// Fetch downloads one journal into an article file.
func (a *Application) Fetch(ctx context.Context, log *slog.Logger, p FetchParams) (domain.Journal, error) {
	if strings.TrimSpace(p.ISSN) == "" {
		return domain.Journal{}, fmt.Errorf("issn is required")
	}
	if p.Output == "" {
		return domain.Journal{}, fmt.Errorf("output path is required")
	}

	runID := NewRunID()
	log = a.runLogger(log, runID)

	years := a.parseRange(log, p.StartYear, p.EndYear)
	threshold := config.ParseThreshold(p.Threshold, a.cfg.Scopus.DefaultThreshold)

	registry := scanner.NewRegistry()
	registry.Register(a.newWalker(log))
	source := scanner.NewSource(registry, a.cfg.Scopus.Scanner, log.With("component", "source"))

	fetcher := usecase.NewFetcher(usecase.FetchDeps{
		Source:  source,
		Store:   a.store,
		Journal: a.store,
		Ledger:  a.ledgerPort(),
		Metrics: a.metrics,
		Logger:  log.With("component", "fetch"),
	})

	return fetcher.Run(ctx, usecase.FetchRequest{
		ISSN:              strings.TrimSpace(p.ISSN),
		Years:             scanner.YearRange(years.Start, years.End),
		CitationThreshold: threshold,
		OutputPath:        p.Output,
		JournalPath:       p.JournalCSV,
		RunID:             runID,
	})
}

func (a *Application) newWalker(log *slog.Logger) *scopus.Walker {
	client := scopus.NewClient(a.cfg.Scopus.APIKey,
		scopus.WithBaseURL(a.cfg.Scopus.BaseURL),
		scopus.WithRateLimit(a.cfg.Scopus.RequestsPerSecond),
		scopus.WithHTTPClient(&http.Client{Timeout: a.cfg.Scopus.Timeout}),
	)

	return scopus.NewWalker(client, log.With("component", "scanner.scopus"),
		scopus.WithOffsetPadding(a.cfg.Scopus.OffsetPadding),
		scopus.WithCooldown(a.cfg.Scopus.Cooldown),
	)
}

// ClassifyParams are the raw user inputs of a classify run.
type ClassifyParams struct {
	Input         string `json:"input" validate:"required"`
	Topics        string `json:"topics" validate:"required"`
	Threshold     string `json:"threshold"`
	KeepUndefined bool   `json:"keepUndefined"`
	NoRewrite     bool   `json:"noRewrite"`
}

// Classify labels an article file, rewrites it and writes the year summary
// of the labeled articles next to it.
func (a *Application) Classify(ctx context.Context, log *slog.Logger, p ClassifyParams) (usecase.Report, error) {
	topics := usecase.ParseTopics(p.Topics)
	if len(topics) == 0 {
		return usecase.Report{}, fmt.Errorf("no topics provided")
	}

	runID := NewRunID()
	log = a.runLogger(log, runID)

	generator, err := a.generator(a.cfg.Classifier)
	if err != nil {
		return usecase.Report{}, err
	}

	var notifier ports.Notifier
	if a.cfg.Notifications.Telegram.Enabled() {
		notifier = telegram.NewNotifier(a.cfg.Notifications.Telegram, "")
	}

	classifier := usecase.NewClassifier(usecase.ClassifyDeps{
		Generator: generator,
		Pacer:     usecase.NewPacer(a.cfg.Classifier.Delay),
		Store:     a.store,
		Ledger:    a.ledgerPort(),
		Notifier:  notifier,
		Metrics:   a.metrics,
		Logger:    log.With("component", "classify", "provider", a.cfg.Classifier.Provider),
	})

	labeled, report, err := classifier.Run(ctx, usecase.ClassifyRequest{
		InputPath:     p.Input,
		Topics:        topics,
		Threshold:     config.ParseThreshold(p.Threshold, a.cfg.Classifier.DefaultThreshold),
		Rewrite:       !p.NoRewrite,
		KeepUndefined: p.KeepUndefined || a.cfg.Classifier.KeepUndefined,
		RunID:         runID,
	})
	if err != nil {
		return report, err
	}

	aggregator := usecase.NewAggregator(a.store, a.metrics, log.With("component", "aggregate"))
	if _, err := aggregator.Aggregate(ctx, labeled, usecase.AggregateRequest{
		InputPath: p.Input,
		Range:     a.defaultRange(),
	}); err != nil {
		return report, fmt.Errorf("write summary: %w", err)
	}

	return report, nil
}

// AggregateParams are the raw user inputs of an aggregate run.
type AggregateParams struct {
	Input     string `json:"input" validate:"required"`
	StartYear string `json:"startYear"`
	EndYear   string `json:"endYear"`
	FitRange  bool   `json:"fitRange"`
}

// Aggregate buckets a labeled article file and writes its summary.
func (a *Application) Aggregate(ctx context.Context, log *slog.Logger, p AggregateParams) (timeline.Buckets, error) {
	log = a.runLogger(log, NewRunID())
	aggregator := usecase.NewAggregator(a.store, a.metrics, log.With("component", "aggregate"))
	return aggregator.Run(ctx, usecase.AggregateRequest{
		InputPath: p.Input,
		Range:     a.parseRange(log, p.StartYear, p.EndYear),
		FitRange:  p.FitRange,
	})
}

// WordCloudParams are the raw user inputs of a word-cloud run.
type WordCloudParams struct {
	Input      string `json:"input" validate:"required"`
	Threshold  string `json:"threshold"`
	ByCategory bool   `json:"byCategory"`
	OutputDir  string `json:"outputDir"`
}

// WordCloud renders the overall or per-label clouds.
func (a *Application) WordCloud(ctx context.Context, log *slog.Logger, p WordCloudParams) ([]string, error) {
	log = a.runLogger(log, NewRunID())
	wc := a.cfg.WordCloud
	reporter := usecase.NewReporter(a.store, a.metrics, log.With("component", "wordcloud"))
	return reporter.WordCloud(ctx, usecase.WordCloudRequest{
		InputPath:   p.Input,
		Threshold:   config.ParseThreshold(p.Threshold, wc.CitationThreshold),
		ByCategory:  p.ByCategory,
		OutputDir:   p.OutputDir,
		Output:      wc.Output,
		Overall:     cloudOptions(wc.Overall),
		PerCategory: cloudOptions(wc.PerCategory),
	})
}

func cloudOptions(o config.CloudOptions) wordcloud.Options {
	return wordcloud.Options{MaxWords: o.MaxWords, MaxFontSize: o.MaxFontSize, Width: o.Width, Height: o.Height}
}

// ChartParams are the raw user inputs of a chart run.
type ChartParams struct {
	Input     string `json:"input" validate:"required"`
	StartYear string `json:"startYear"`
	EndYear   string `json:"endYear"`
	FitRange  bool   `json:"fitRange"`
	Output    string `json:"output"`
	Open      bool   `json:"open"`
}

// Chart writes the HTML timeline and optionally opens it.
func (a *Application) Chart(ctx context.Context, log *slog.Logger, p ChartParams) (string, error) {
	log = a.runLogger(log, NewRunID())
	output := p.Output
	if output == "" {
		output = a.cfg.Chart.Output
	}

	reporter := usecase.NewReporter(a.store, a.metrics, log.With("component", "chart"))
	path, err := reporter.Chart(ctx, usecase.ChartRequest{
		InputPath: p.Input,
		Range:     a.parseRange(log, p.StartYear, p.EndYear),
		FitRange:  p.FitRange,
		Output:    output,
		Title:     a.cfg.Chart.Title,
	})
	if err != nil {
		return "", err
	}

	if p.Open {
		if err := chart.Open(path); err != nil {
			log.Warn("chart not opened", "error", err)
		}
	}
	return path, nil
}

// History summarises the ledger. It fails when no database is configured.
func (a *Application) History(ctx context.Context) ([]domain.LabelCount, error) {
	if a.ledger == nil {
		return nil, errors.New("no database configured (set database.dsn or DATABASE_DSN)")
	}
	return a.ledger.Summary(ctx)
}

func (a *Application) runLogger(log *slog.Logger, runID string) *slog.Logger {
	if log == nil {
		log = a.logger
	}
	return log.With("run_id", runID)
}

func (a *Application) ledgerPort() ports.ArticleLedger {
	if a.ledger == nil {
		return nil
	}
	return a.ledger
}

func (a *Application) defaultRange() timeline.YearRange {
	return timeline.YearRange{Start: a.cfg.Timeline.StartYear, End: a.cfg.Timeline.EndYear}
}

// parseRange reads user-entered bounds. Each unreadable bound falls back to
// the configured one; an inverted range falls back to the configured range.
func (a *Application) parseRange(log *slog.Logger, start, end string) timeline.YearRange {
	r := timeline.YearRange{
		Start: config.ParseYear(start, a.cfg.Timeline.StartYear),
		End:   config.ParseYear(end, a.cfg.Timeline.EndYear),
	}
	if r.End < r.Start {
		def := a.defaultRange()
		if log != nil {
			log.Warn("inverted year range, using configured range",
				"start", r.Start, "end", r.End, "configured_start", def.Start, "configured_end", def.End)
		}
		return def
	}
	return r
}
