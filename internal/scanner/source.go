package scanner

import (
	"context"
	"fmt"
	"log/slog"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/ports"
)

// Source implements ports.JournalSource by delegating to a named strategy.
type Source struct {
	registry *Registry
	strategy string
	logger   *slog.Logger
}

var _ ports.JournalSource = (*Source)(nil)

// NewSource wires the registry with the strategy chosen in configuration.
func NewSource(reg *Registry, strategy string, log *slog.Logger) *Source {
	return &Source{
		registry: reg,
		strategy: strategy,
		logger:   log,
	}
}

// FetchJournal resolves the configured scanner and runs it for one ISSN.
func (s *Source) FetchJournal(ctx context.Context, issn string, years []string, citationThreshold int) (domain.Journal, error) {
	if s.registry == nil {
		return domain.Journal{}, fmt.Errorf("scanner registry is not configured")
	}

	strategy, err := s.registry.Resolve(s.strategy)
	if err != nil {
		return domain.Journal{}, err
	}

	s.debug("fetch journal", "scanner", s.strategy, "issn", issn, "years", len(years), "threshold", citationThreshold)

	journal, err := strategy.Scan(ctx, Request{
		ISSN:              issn,
		Years:             years,
		CitationThreshold: citationThreshold,
	})
	if err != nil {
		return domain.Journal{}, fmt.Errorf("scan %s: %w", issn, err)
	}

	s.debug("journal source done", "issn", issn, "articles", len(journal.Articles))
	return journal, nil
}

func (s *Source) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
