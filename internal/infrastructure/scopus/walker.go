package scopus

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/scanner"
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Walker pages through Scopus search results per year and collects the
// articles of one journal.
type Walker struct {
	client        *Client
	logger        *slog.Logger
	offsetPadding int
	cooldown      time.Duration
}

var _ scanner.Scanner = (*Walker)(nil)

// WalkerOption configures a Walker.
type WalkerOption func(*Walker)

// WithOffsetPadding sets the extra stride added to the offset after each page.
func WithOffsetPadding(n int) WalkerOption {
	return func(w *Walker) {
		if n >= 0 {
			w.offsetPadding = n
		}
	}
}

// WithCooldown sets the pause taken after all years are walked.
func WithCooldown(d time.Duration) WalkerOption {
	return func(w *Walker) {
		if d >= 0 {
			w.cooldown = d
		}
	}
}

// NewWalker wires a Scopus client. The offset padding defaults to 1 and the
// cooldown to five minutes.
func NewWalker(client *Client, logger *slog.Logger, opts ...WalkerOption) *Walker {
	if client == nil {
		client = NewClient("")
	}
	w := &Walker{
		client:        client,
		logger:        logger,
		offsetPadding: 1,
		cooldown:      5 * time.Minute,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Name identifies the strategy inside the registry.
func (w *Walker) Name() string {
	return "scopus"
}

// Scan resolves the journal title, then walks every requested year. Any
// failure of the title or per-year count query aborts the whole scan.
func (w *Walker) Scan(ctx context.Context, req scanner.Request) (domain.Journal, error) {
	issn := strings.TrimSpace(req.ISSN)
	if issn == "" {
		return domain.Journal{}, ErrJournalNotFound
	}

	title, err := w.client.Title(ctx, issn)
	if err != nil {
		if IsNotFound(err) {
			return domain.Journal{}, fmt.Errorf("issn %s: %w", issn, ErrJournalNotFound)
		}
		return domain.Journal{}, fmt.Errorf("lookup title %s: %w", issn, err)
	}
	if title == "" {
		return domain.Journal{}, fmt.Errorf("issn %s: %w", issn, ErrJournalNotFound)
	}
	w.info("journal resolved", "issn", issn, "title", title, "years", len(req.Years))

	var (
		articles []domain.Article
		total    int
		seen     = map[string]struct{}{}
	)

	for _, year := range req.Years {
		count, err := w.client.Count(ctx, issn, year)
		if err != nil {
			return domain.Journal{}, fmt.Errorf("year %s: %w", year, err)
		}

		n, ok := count.Get()
		if !ok {
			w.info("skip year without result count", "year", year)
			continue
		}
		total += n
		w.info("year matched", "year", year, "results", n)

		found := w.walkYear(ctx, issn, year, n, req.CitationThreshold, seen)
		articles = append(articles, found...)
	}

	if err := w.sleep(ctx); err != nil {
		return domain.Journal{}, err
	}

	w.info("journal scanned", "issn", issn, "articles", len(articles), "matched", total)
	return domain.Journal{
		ISSN:         issn,
		Title:        title,
		Articles:     articles,
		ArticleCount: total,
	}, nil
}

// walkYear requests at most results pages. Paging stops on the first failed
// or empty page; detail lookups that fail only drop their record.
func (w *Walker) walkYear(ctx context.Context, issn, year string, results, threshold int, seen map[string]struct{}) []domain.Article {
	var collected []domain.Article

	start := 0
	for page := 0; page < results; page++ {
		entries, err := w.client.Page(ctx, issn, year, start)
		if err != nil {
			w.info("stop paging", "year", year, "start", start, "error", err)
			break
		}
		if len(entries) == 0 {
			break
		}

		for i, entry := range entries {
			w.debug("entry", "year", year, "index", start+i)

			doi, ok := entry.DOI.optional().Get()
			if !ok {
				continue
			}

			citations, _ := domain.ParseCitationCount(entry.CitedBy.value)
			if citations < threshold {
				continue
			}

			if _, dup := seen[domain.DOIKey(doi)]; dup {
				continue
			}

			article, ok := w.fetchArticle(ctx, doi, citations)
			if !ok {
				continue
			}

			key := domain.DOIKey(article.DOI)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			seen[domain.DOIKey(doi)] = struct{}{}

			w.debug("article collected", "doi", article.DOI, "title", article.Title, "date", article.CoverDate)
			collected = append(collected, article)
		}

		start += len(entries) + w.offsetPadding
	}

	return collected
}

func (w *Walker) fetchArticle(ctx context.Context, doi string, citations int) (domain.Article, bool) {
	rec, err := w.client.Article(ctx, doi)
	if err != nil {
		w.debug("skip article detail", "doi", doi, "error", err)
		return domain.Article{}, false
	}

	title, okTitle := rec.Title.Get()
	abstract, okAbstract := rec.Abstract.Get()
	coverDate, okDate := rec.CoverDate.Get()
	if !okTitle || !okAbstract || !okDate {
		w.debug("discard restricted article", "doi", doi)
		return domain.Article{}, false
	}

	return domain.NewArticle(
		rec.DOI.OrElse(doi),
		cleanText(title),
		cleanText(stripMarkup(abstract)),
		coverDate,
		rec.Link.OrElse(""),
		citations,
	), true
}

func (w *Walker) sleep(ctx context.Context) error {
	if w.cooldown <= 0 {
		return nil
	}
	w.info("cooldown", "duration", w.cooldown.String())

	timer := time.NewTimer(w.cooldown)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func cleanText(s string) string {
	return strings.TrimSpace(multiSpace.ReplaceAllString(s, " "))
}

// stripMarkup reduces an HTML fragment to its text. Plain text passes through.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	doc.Find("p, br, div, li, h1, h2, h3, h4").Each(func(_ int, sel *goquery.Selection) {
		sel.AppendHtml(" ")
	})
	return doc.Find("body").Text()
}

func (w *Walker) info(msg string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Info(msg, args...)
	}
}

func (w *Walker) debug(msg string, args ...interface{}) {
	if w.logger != nil {
		w.logger.Debug(msg, args...)
	}
}
