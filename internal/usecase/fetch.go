package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/metrics"
	"ArticleClassifier/internal/ports"
)

// FetchDeps wires the adapters used by the fetch use case.
type FetchDeps struct {
	Source  ports.JournalSource
	Store   ports.ArticleStore
	Journal ports.JournalWriter
	Ledger  ports.ArticleLedger
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

// FetchRequest describes one journal download.
type FetchRequest struct {
	ISSN              string
	Years             []string
	CitationThreshold int
	OutputPath        string
	JournalPath       string
	RunID             string
}

// Fetcher downloads a journal and persists its articles.
type Fetcher struct {
	source  ports.JournalSource
	store   ports.ArticleStore
	journal ports.JournalWriter
	ledger  ports.ArticleLedger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewFetcher constructs the use case.
func NewFetcher(deps FetchDeps) *Fetcher {
	return &Fetcher{
		source:  deps.Source,
		store:   deps.Store,
		journal: deps.Journal,
		ledger:  deps.Ledger,
		metrics: deps.Metrics,
		logger:  deps.Logger,
	}
}

// Run fetches the journal and writes the article file. The journal summary and
// ledger are best effort: their failures are logged, not returned.
func (f *Fetcher) Run(ctx context.Context, req FetchRequest) (domain.Journal, error) {
	if f.source == nil || f.store == nil {
		return domain.Journal{}, fmt.Errorf("fetcher is not configured")
	}
	if req.OutputPath == "" {
		return domain.Journal{}, fmt.Errorf("output path is required")
	}
	defer f.metrics.ObserveStage("fetch", time.Now())

	f.info("fetching articles", "issn", req.ISSN, "years", len(req.Years), "threshold", req.CitationThreshold)

	journal, err := f.source.FetchJournal(ctx, req.ISSN, req.Years, req.CitationThreshold)
	if err != nil {
		return domain.Journal{}, fmt.Errorf("fetch journal: %w", err)
	}
	f.metrics.Fetched(len(journal.Articles))

	if err := f.store.WriteArticles(req.OutputPath, journal.Articles); err != nil {
		return domain.Journal{}, fmt.Errorf("write articles: %w", err)
	}
	f.info("articles written", "count", len(journal.Articles), "path", req.OutputPath)

	if req.JournalPath != "" && f.journal != nil {
		if err := f.journal.WriteJournal(req.JournalPath, journal, req.OutputPath); err != nil {
			f.warn("journal summary not written", "path", req.JournalPath, "error", err)
		}
	}

	if f.ledger != nil && len(journal.Articles) > 0 {
		entries := make([]domain.LedgerEntry, 0, len(journal.Articles))
		for _, a := range journal.Articles {
			entries = append(entries, domain.LedgerEntry{
				Article: a,
				ISSN:    journal.ISSN,
				Status:  domain.StatusFetched,
				RunID:   req.RunID,
			})
		}
		if err := f.ledger.SaveAll(ctx, entries); err != nil {
			f.warn("ledger not updated", "error", err)
		}
	}

	return journal, nil
}

func (f *Fetcher) info(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Info(msg, args...)
	}
}

func (f *Fetcher) warn(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Warn(msg, args...)
	}
}
