package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ArticleClassifier/internal/domain"
)

func TestCSVRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "articles.csv")
	store := NewCSVStore(nil)

	in := []domain.Article{
		domain.NewArticle("10.1/a", `Title "quoted"`, "Abstract; with delimiter", "2020-01-01", "https://x/a", 5),
		domain.NewArticle("10.1/b", "Second", "Line one\nline two", "2021-06-01", "", 0).WithLabel("Bio"),
		domain.NewArticle("10.1/c", "Third", "", "2022", "", 1).WithLabel("Bio "),
	}
	if err := store.WriteArticles(path, in); err != nil {
		t.Fatalf("WriteArticles error: %v", err)
	}

	out, err := store.ReadArticles(path)
	if err != nil {
		t.Fatalf("ReadArticles error: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("expected %d articles, got %d", len(in), len(out))
	}
	for i := range in {
		if out[i].DOI != in[i].DOI || out[i].Label != in[i].Label {
			t.Fatalf("row %d mismatch: %+v vs %+v", i, out[i], in[i])
		}
	}
	if out[0].Title != `Title "quoted"` || out[0].CitationCount != 5 {
		t.Fatalf("fields not preserved: %+v", out[0])
	}
	if out[1].Abstract != "Line one\nline two" {
		t.Fatalf("multi-line abstract not preserved: %q", out[1].Abstract)
	}
}

func TestCSVWriteSingleHeaderAllQuoted(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "articles.csv")
	store := NewCSVStore(nil)
	articles := []domain.Article{domain.NewArticle("10.1/a", "T", "A", "2020", "L", 3)}

	for i := 0; i < 2; i++ {
		if err := store.WriteArticles(path, articles); err != nil {
			t.Fatalf("WriteArticles error: %v", err)
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(raw)
	header := `"DOI";"Title";"Abstract";"Date";"Link";"CitationCount";"Label"`
	if strings.Count(text, header) != 1 {
		t.Fatalf("expected exactly one header, got:\n%s", text)
	}
	if !strings.Contains(text, `"10.1/a";"T";"A";"2020";"L";"3";"None"`) {
		t.Fatalf("row not fully quoted:\n%s", text)
	}
}

func TestCSVReadByHeaderName(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "reordered.csv")
	content := "Label;CitationCount;DOI;Title;Abstract;Date;Link\n" +
		"Bio;12 citations;10.1/x;T;A;2019-02-02;L\n" +
		";n/a;10.1/y;T2;A2;2020;L2\n" +
		"Chem;1;;T3;A3;2020;L3\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	out, err := NewCSVStore(nil).ReadArticles(path)
	if err != nil {
		t.Fatalf("ReadArticles error: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected rows without DOI to be skipped, got %+v", out)
	}
	if out[0].Label != "Bio" || out[0].CitationCount != 12 || out[0].CoverDate != "2019-02-02" {
		t.Fatalf("unexpected first row %+v", out[0])
	}
	if out[1].Label != domain.LabelNone || out[1].CitationCount != 0 {
		t.Fatalf("unexpected second row %+v", out[1])
	}
}

func TestCSVReadMissingDOIColumn(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(path, []byte("Title;Label\nT;Bio\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := NewCSVStore(nil).ReadArticles(path); !errors.Is(err, ErrMissingDOIColumn) {
		t.Fatalf("expected ErrMissingDOIColumn, got %v", err)
	}
}

func TestWriteJournal(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.csv")
	journal := domain.Journal{ISSN: "1234-5678", Title: "J", ArticleCount: 42}
	if err := NewCSVStore(nil).WriteJournal(path, journal, "articles.csv"); err != nil {
		t.Fatalf("WriteJournal error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "\"isnn\";\"title\";\"articleListCount\";\"csvFileArticles\"\r\n\"1234-5678\";\"J\";\"42\";\"articles.csv\"\r\n"
	if string(raw) != want {
		t.Fatalf("unexpected journal csv %q", raw)
	}
}

func openTestLedger(t *testing.T) *SQLLedger {
	t.Helper()

	ledger, err := OpenLedger(context.Background(), "file::memory:")
	if err != nil {
		t.Fatalf("OpenLedger error: %v", err)
	}
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger
}

func TestLedgerUpsertAndSummary(t *testing.T) {
	t.Parallel()

	ledger := openTestLedger(t)
	ctx := context.Background()

	fetched := []domain.LedgerEntry{
		{Article: domain.NewArticle("10.1/A", "A", "x", "2020", "", 1), ISSN: "1", Status: domain.StatusFetched, RunID: "r1"},
		{Article: domain.NewArticle("10.1/b", "B", "x", "2020", "", 1), ISSN: "1", Status: domain.StatusFetched, RunID: "r1"},
	}
	if err := ledger.SaveAll(ctx, fetched); err != nil {
		t.Fatalf("SaveAll fetched: %v", err)
	}

	classified := []domain.LedgerEntry{
		{Article: domain.NewArticle("10.1/a", "A", "x", "2020", "", 1).WithLabel("Bio"), Status: domain.StatusClassified, RunID: "r2"},
	}
	if err := ledger.SaveAll(ctx, classified); err != nil {
		t.Fatalf("SaveAll classified: %v", err)
	}

	summary, err := ledger.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary error: %v", err)
	}

	want := []domain.LabelCount{
		{Label: "Bio", Status: domain.StatusClassified, Count: 1},
		{Label: domain.LabelNone, Status: domain.StatusFetched, Count: 1},
	}
	if len(summary) != len(want) {
		t.Fatalf("unexpected summary %+v", summary)
	}
	for i := range want {
		if summary[i] != want[i] {
			t.Fatalf("summary[%d] = %+v, want %+v", i, summary[i], want[i])
		}
	}

	var issn string
	if err := ledger.db.QueryRow(`SELECT issn FROM articles WHERE doi_key = ?`, "10.1/a").Scan(&issn); err != nil {
		t.Fatalf("query issn: %v", err)
	}
	if issn != "1" {
		t.Fatalf("issn should survive a classify upsert, got %q", issn)
	}
}

func TestDriverFor(t *testing.T) {
	t.Parallel()

	if d, _, _ := driverFor("postgres://u@h/db"); d != "postgres" {
		t.Fatalf("expected postgres driver, got %s", d)
	}
	if d, src, _ := driverFor("sqlite:///tmp/x.db"); d != "sqlite" || src != "/tmp/x.db" {
		t.Fatalf("unexpected sqlite mapping %s %s", d, src)
	}
}
