package storage

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/ports"
)

// ArticleHeader is the on-disk column order of an article file.
var ArticleHeader = []string{"DOI", "Title", "Abstract", "Date", "Link", "CitationCount", "Label"}

var journalHeader = []string{"isnn", "title", "articleListCount", "csvFileArticles"}

const delimiter = ';'

// ErrMissingDOIColumn is returned when a file has no DOI column to key rows on.
var ErrMissingDOIColumn = errors.New("csv header has no DOI column")

// CSVStore reads and writes semicolon-delimited, fully quoted article files.
type CSVStore struct {
	logger *slog.Logger
}

var _ ports.ArticleStore = (*CSVStore)(nil)

// NewCSVStore builds a store; logger may be nil.
func NewCSVStore(log *slog.Logger) *CSVStore {
	return &CSVStore{logger: log}
}

// ReadArticles loads an article file, mapping columns by header name. Rows
// without a DOI are skipped.
func (s *CSVStore) ReadArticles(path string) ([]domain.Article, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(strings.TrimSpace(name), "\ufeff")
		cols[name] = i
	}
	if _, ok := cols["DOI"]; !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrMissingDOIColumn)
	}

	var articles []domain.Article
	line := 1
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read %s line %d: %w", path, line, err)
		}

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(row) {
				return row[i]
			}
			return ""
		}

		doi := strings.TrimSpace(get("DOI"))
		if doi == "" {
			s.debug("skip row without DOI", "path", path, "line", line)
			continue
		}

		citations, ok := domain.ParseCitationCount(get("CitationCount"))
		if !ok && strings.TrimSpace(get("CitationCount")) != "" {
			s.debug("unparseable citation count", "path", path, "line", line, "value", get("CitationCount"))
		}

		article := domain.NewArticle(doi, get("Title"), get("Abstract"), get("Date"), get("Link"), citations)
		if label := get("Label"); label != "" {
			article = article.WithLabel(label)
		}
		articles = append(articles, article)
	}

	return articles, nil
}

// WriteArticles truncates path and writes one header followed by the articles.
func (s *CSVStore) WriteArticles(path string, articles []domain.Article) error {
	return writeFile(path, func(w *bufio.Writer) error {
		if err := writeQuoted(w, ArticleHeader); err != nil {
			return err
		}
		for _, a := range articles {
			label := a.Label
			if label == "" {
				label = domain.LabelNone
			}
			row := []string{a.DOI, a.Title, a.Abstract, a.CoverDate, a.Link, strconv.Itoa(a.CitationCount), label}
			if err := writeQuoted(w, row); err != nil {
				return err
			}
		}
		return nil
	})
}

// WriteJournal writes the one-row journal summary that points at articlesPath.
func (s *CSVStore) WriteJournal(path string, journal domain.Journal, articlesPath string) error {
	return writeFile(path, func(w *bufio.Writer) error {
		if err := writeQuoted(w, journalHeader); err != nil {
			return err
		}
		return writeQuoted(w, []string{journal.ISSN, journal.Title, strconv.Itoa(journal.ArticleCount), articlesPath})
	})
}

func writeFile(path string, fill func(*bufio.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// writeQuoted writes one record with every field quoted.
func writeQuoted(w *bufio.Writer, fields []string) error {
	for i, field := range fields {
		if i > 0 {
			if err := w.WriteByte(delimiter); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(field, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func (s *CSVStore) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
