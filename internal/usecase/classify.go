package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/metrics"
	"ArticleClassifier/internal/ports"
)

const classificationPrompt = `You are a scientific article classifier. Your task is to categorize the following abstract into exactly one of these predefined categories: %[1]s

CRITICAL RULES:
1. You must choose ONLY ONE category from the list above
2. You must return ONLY the exact category name as written in the list
3. Do not modify, change, or add any words to the category names
4. If the abstract doesn't fit any of the categories, return "Undefined"
5. Do not add numbers, prefixes, or any other text
6. Do not add punctuation marks like periods or commas
7. Pay special attention to exact spelling and capitalization

Available categories: %[1]s

Abstract to classify: %[2]s

Return only the category name:`

// Report summarises one classification batch.
type Report struct {
	Total     int            `json:"total"`
	Processed int            `json:"processed"`
	Skipped   int            `json:"skipped"`
	Errors    int            `json:"errors"`
	ByLabel   map[string]int `json:"byLabel"`
}

// ClassifyDeps wires the adapters used by the classify use case.
type ClassifyDeps struct {
	Generator ports.TextGenerator
	Pacer     ports.Pacer
	Store     ports.ArticleStore
	Ledger    ports.ArticleLedger
	Notifier  ports.Notifier
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// ClassifyRequest describes one classify run over an article file.
type ClassifyRequest struct {
	InputPath     string
	Topics        []string
	Threshold     int
	Rewrite       bool
	KeepUndefined bool
	RunID         string
}

// Classifier assigns one topic label per article through a text generator.
type Classifier struct {
	generator ports.TextGenerator
	pacer     ports.Pacer
	store     ports.ArticleStore
	ledger    ports.ArticleLedger
	notifier  ports.Notifier
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewClassifier constructs the use case. A nil Pacer means no delay.
func NewClassifier(deps ClassifyDeps) *Classifier {
	return &Classifier{
		generator: deps.Generator,
		pacer:     deps.Pacer,
		store:     deps.Store,
		ledger:    deps.Ledger,
		notifier:  deps.Notifier,
		metrics:   deps.Metrics,
		logger:    deps.Logger,
	}
}

// NewPacer returns a limiter that lets one call through per delay.
func NewPacer(delay time.Duration) *rate.Limiter {
	if delay <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(delay), 1)
}

// ParseTopics splits comma-separated topic text, trimming entries and
// dropping empty and repeated ones.
func ParseTopics(raw string) []string {
	var topics []string
	seen := map[string]struct{}{}
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		topics = append(topics, t)
	}
	return topics
}

// BuildPrompt renders the single-label instruction for one abstract.
func BuildPrompt(abstract string, topics []string) string {
	return fmt.Sprintf(classificationPrompt, strings.Join(topics, ", "), abstract)
}

// NormalizeLabel maps a model answer onto a topic. Surrounding whitespace and
// trailing ".,!?" are removed; anything not exactly a topic is Undefined.
func NormalizeLabel(answer string, topics []string) string {
	answer = strings.TrimRight(strings.TrimSpace(answer), ".,!?")
	for _, t := range topics {
		if answer == t {
			return t
		}
	}
	return domain.LabelUndefined
}

// Classify labels every article whose citation count reaches threshold.
// Articles below threshold and articles whose call failed are left out. The
// result is stably sorted by label.
func (c *Classifier) Classify(ctx context.Context, articles []domain.Article, topics []string, threshold int) ([]domain.Article, Report) {
	report := Report{Total: len(articles), ByLabel: map[string]int{}}
	if c.generator == nil {
		c.warn("no text generator configured")
		return nil, report
	}
	defer c.metrics.ObserveStage("classify", time.Now())

	c.info("classifying", "articles", len(articles), "threshold", threshold, "topics", strings.Join(topics, ", "))

	var labeled []domain.Article
	for i, article := range articles {
		if article.CitationCount < threshold {
			report.Skipped++
			c.debug("skip below threshold", "index", i+1, "doi", article.DOI, "citations", article.CitationCount)
			continue
		}

		if c.pacer != nil {
			if err := c.pacer.Wait(ctx); err != nil {
				c.warn("classification interrupted", "error", err, "remaining", len(articles)-i)
				break
			}
		}

		answer, err := c.generator.Generate(ctx, BuildPrompt(article.Abstract, topics))
		if err != nil {
			report.Errors++
			c.metrics.ClassifierError()
			c.warn("classifier call failed", "index", i+1, "doi", article.DOI, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		label := NormalizeLabel(answer, topics)
		if label == domain.LabelUndefined {
			c.debug("answer not in topics", "doi", article.DOI, "answer", strings.TrimSpace(answer))
		}
		c.debug("classified", "index", i+1, "doi", article.DOI, "label", label)

		report.Processed++
		report.ByLabel[label]++
		c.metrics.Classified(label)
		labeled = append(labeled, article.WithLabel(label))
	}
	c.metrics.Skipped("below_threshold", report.Skipped)

	sort.SliceStable(labeled, func(i, j int) bool {
		return labeled[i].Label < labeled[j].Label
	})

	c.info("classification done",
		"total", report.Total,
		"processed", report.Processed,
		"skipped", report.Skipped,
		"errors", report.Errors)

	return labeled, report
}

// Run reads the article file, classifies it and, when requested, rewrites the
// file with the labeled articles. Undefined articles are dropped from the
// rewrite unless KeepUndefined is set.
func (c *Classifier) Run(ctx context.Context, req ClassifyRequest) ([]domain.Article, Report, error) {
	if c.store == nil {
		return nil, Report{}, fmt.Errorf("classifier is not configured")
	}
	if len(req.Topics) == 0 {
		return nil, Report{}, fmt.Errorf("no topics provided")
	}

	articles, err := c.store.ReadArticles(req.InputPath)
	if err != nil {
		return nil, Report{}, fmt.Errorf("read articles: %w", err)
	}

	labeled, report := c.Classify(ctx, articles, req.Topics, req.Threshold)

	if req.Rewrite {
		out := labeled
		if !req.KeepUndefined {
			out = withoutUndefined(labeled)
		}
		if err := c.store.WriteArticles(req.InputPath, out); err != nil {
			return labeled, report, fmt.Errorf("write labeled articles: %w", err)
		}
		c.info("labeled articles written", "count", len(out), "path", req.InputPath)
	}

	if c.ledger != nil && len(labeled) > 0 {
		entries := make([]domain.LedgerEntry, 0, len(labeled))
		for _, a := range labeled {
			entries = append(entries, domain.LedgerEntry{Article: a, Status: domain.StatusClassified, RunID: req.RunID})
		}
		if err := c.ledger.SaveAll(ctx, entries); err != nil {
			c.warn("ledger not updated", "error", err)
		}
	}

	if c.notifier != nil {
		if err := c.notifier.PublishDigest(ctx, BuildDigest(req.InputPath, report)); err != nil {
			c.warn("digest not delivered", "error", err)
		}
	}

	return labeled, report, nil
}

// BuildDigest formats a report as a short plain-text message.
func BuildDigest(source string, report Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Classification of %s\n", source)
	fmt.Fprintf(&b, "Total: %d, processed: %d, skipped: %d, errors: %d\n",
		report.Total, report.Processed, report.Skipped, report.Errors)

	labels := make([]string, 0, len(report.ByLabel))
	for label := range report.ByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(&b, "- %s: %d\n", label, report.ByLabel[label])
	}
	return b.String()
}

func withoutUndefined(articles []domain.Article) []domain.Article {
	out := make([]domain.Article, 0, len(articles))
	for _, a := range articles {
		if a.Label != domain.LabelUndefined {
			out = append(out, a)
		}
	}
	return out
}

func (c *Classifier) info(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Info(msg, args...)
	}
}

func (c *Classifier) warn(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, args...)
	}
}

func (c *Classifier) debug(msg string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
