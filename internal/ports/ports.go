package ports

import (
	"context"

	"ArticleClassifier/internal/domain"
)

// JournalSource pulls the articles of one journal for a set of years.
type JournalSource interface {
	FetchJournal(ctx context.Context, issn string, years []string, citationThreshold int) (domain.Journal, error)
}

// TextGenerator sends a single-turn prompt to a generative model and returns its text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ArticleStore reads and writes article files.
type ArticleStore interface {
	ReadArticles(path string) ([]domain.Article, error)
	WriteArticles(path string, articles []domain.Article) error
}

// JournalWriter records the one-row journal summary next to an article file.
type JournalWriter interface {
	WriteJournal(path string, journal domain.Journal, articlesPath string) error
}

// ArticleLedger persists article snapshots for history/audit.
type ArticleLedger interface {
	SaveAll(ctx context.Context, entries []domain.LedgerEntry) error
	Summary(ctx context.Context) ([]domain.LabelCount, error)
}

// Notifier streams run summaries to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Pacer blocks until the next outbound call is allowed.
type Pacer interface {
	Wait(ctx context.Context) error
}
