package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/ports"
)

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS articles (
	doi_key        TEXT PRIMARY KEY,
	doi            TEXT NOT NULL,
	issn           TEXT NOT NULL DEFAULT '',
	title          TEXT NOT NULL,
	cover_date     TEXT NOT NULL DEFAULT '',
	citation_count INTEGER NOT NULL DEFAULT 0,
	label          TEXT NOT NULL,
	status         TEXT NOT NULL,
	run_id         TEXT NOT NULL DEFAULT '',
	updated_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

const upsertSuffix = `ON CONFLICT (doi_key) DO UPDATE
SET doi = EXCLUDED.doi,
    issn = COALESCE(NULLIF(EXCLUDED.issn, ''), articles.issn),
    title = EXCLUDED.title,
    cover_date = EXCLUDED.cover_date,
    citation_count = EXCLUDED.citation_count,
    label = EXCLUDED.label,
    status = EXCLUDED.status,
    run_id = EXCLUDED.run_id,
    updated_at = CURRENT_TIMESTAMP`

// SQLLedger records every fetched and classified article in Postgres or SQLite.
type SQLLedger struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.ArticleLedger = (*SQLLedger)(nil)

// OpenLedger opens the database named by dsn and creates the schema.
// postgres:// and postgresql:// DSNs use lib/pq; anything else is a SQLite path.
func OpenLedger(ctx context.Context, dsn string) (*SQLLedger, error) {
	driver, source, format := driverFor(dsn)

	db, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	if driver == "sqlite" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.ExecContext(ctx, ledgerSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &SQLLedger{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(format),
	}, nil
}

func driverFor(dsn string) (driver, source string, format sq.PlaceholderFormat) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, sq.Dollar
	default:
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), sq.Question
	}
}

// Close releases the connection pool.
func (l *SQLLedger) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// SaveAll upserts the entries in one transaction.
func (l *SQLLedger) SaveAll(ctx context.Context, entries []domain.LedgerEntry) error {
	if l == nil || l.db == nil || len(entries) == 0 {
		return nil
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin ledger tx: %w", err)
	}

	for _, e := range entries {
		a := e.Article
		query, args, err := l.builder.
			Insert("articles").
			Columns("doi_key", "doi", "issn", "title", "cover_date", "citation_count", "label", "status", "run_id").
			Values(domain.DOIKey(a.DOI), a.DOI, e.ISSN, a.Title, a.CoverDate, a.CitationCount, a.Label, string(e.Status), e.RunID).
			Suffix(upsertSuffix).
			ToSql()
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("build upsert: %w", err)
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert %s: %w", a.DOI, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ledger tx: %w", err)
	}
	return nil
}

// Summary counts ledger rows per label and status.
func (l *SQLLedger) Summary(ctx context.Context) ([]domain.LabelCount, error) {
	if l == nil || l.db == nil {
		return nil, nil
	}

	query, args, err := l.builder.
		Select("label", "status", "COUNT(*)").
		From("articles").
		GroupBy("label", "status").
		OrderBy("label", "status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build summary: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}

	var result []domain.LabelCount
	for rows.Next() {
		var (
			lc     domain.LabelCount
			status string
		)
		if err := rows.Scan(&lc.Label, &status, &lc.Count); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		lc.Status = domain.ProcessingStatus(status)
		result = append(result, lc)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}
