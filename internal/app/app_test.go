package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ArticleClassifier/internal/config"
	"ArticleClassifier/internal/domain"
	"ArticleClassifier/internal/infrastructure/storage"
	"ArticleClassifier/internal/logging"
	"ArticleClassifier/internal/ports"
)

func fakeScopus(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/content/serial/title/issn/", func(w http.ResponseWriter, r *http.Request) {
		writeBody(w, map[string]any{
			"serial-metadata-response": map[string]any{
				"entry": []map[string]any{{"dc:title": "Journal of Tests"}},
			},
		})
	})
	mux.HandleFunc("/content/search/scopus", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("start") == "" {
			writeBody(w, map[string]any{"search-results": map[string]any{"opensearch:totalResults": "1"}})
			return
		}
		entries := []map[string]any{}
		if q.Get("start") == "0" {
			entries = append(entries, map[string]any{"prism:doi": "10.1/" + q.Get("date"), "citedby-count": "12"})
		}
		writeBody(w, map[string]any{"search-results": map[string]any{"opensearch:totalResults": "1", "entry": entries}})
	})
	mux.HandleFunc("/content/article/doi/", func(w http.ResponseWriter, r *http.Request) {
		doi := strings.TrimPrefix(r.URL.Path, "/content/article/doi/")
		year := doi[strings.LastIndex(doi, "/")+1:]
		writeBody(w, map[string]any{
			"full-text-retrieval-response": map[string]any{
				"coredata": map[string]any{
					"prism:doi":       doi,
					"dc:title":        "Paper " + year,
					"dc:description":  "Quantum lattice results",
					"prism:coverDate": year + "-03-01",
				},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeBody(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type constGenerator string

func (g constGenerator) Generate(context.Context, string) (string, error) {
	return string(g), nil
}

func testConfig(t *testing.T, baseURL string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Scopus.BaseURL = baseURL
	cfg.Scopus.RequestsPerSecond = 1000
	cfg.Scopus.Cooldown = 0
	cfg.Classifier.Delay = 0
	cfg.Timeline.StartYear = 2020
	cfg.Timeline.EndYear = 2021
	cfg.Database.DSN = "file::memory:"
	cfg.Notifications.Telegram = config.TelegramConfig{}
	return cfg
}

func newTestApp(t *testing.T, cfg config.Config) *Application {
	t.Helper()
	a, err := New(context.Background(), cfg, logging.Discard())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestFetchThenClassify(t *testing.T) {
	t.Parallel()

	srv := fakeScopus(t)
	a := newTestApp(t, testConfig(t, srv.URL))
	a.generator = func(config.ClassifierConfig) (ports.TextGenerator, error) {
		return constGenerator("Physics."), nil
	}

	dir := t.TempDir()
	articlesPath := filepath.Join(dir, "articles.csv")
	journalPath := filepath.Join(dir, "journal.csv")

	journal, err := a.Fetch(context.Background(), nil, FetchParams{
		ISSN:       " 1234-5678 ",
		StartYear:  "not a year",
		EndYear:    "2021",
		Threshold:  "10",
		Output:     articlesPath,
		JournalCSV: journalPath,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if journal.Title != "Journal of Tests" || len(journal.Articles) != 2 {
		t.Fatalf("unexpected journal: %+v", journal)
	}
	if _, err := os.Stat(journalPath); err != nil {
		t.Fatalf("journal csv missing: %v", err)
	}

	report, err := a.Classify(context.Background(), nil, ClassifyParams{
		Input:     articlesPath,
		Topics:    "Physics, Biology",
		Threshold: "5",
	})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if report.Processed != 2 || report.ByLabel["Physics"] != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	articles, err := storage.NewCSVStore(nil).ReadArticles(articlesPath)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	for _, art := range articles {
		if art.Label != "Physics" {
			t.Fatalf("article %s not labeled: %q", art.DOI, art.Label)
		}
	}

	summary, err := os.ReadFile(articlesPath + ".txt")
	if err != nil {
		t.Fatalf("summary missing: %v", err)
	}
	if !strings.Contains(string(summary), `"Physics": 1`) {
		t.Fatalf("summary does not count Physics per year:\n%s", summary)
	}

	counts, err := a.History(context.Background())
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	found := false
	for _, c := range counts {
		if c.Label == "Physics" && c.Status == domain.StatusClassified && c.Count == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("ledger summary missing classified rows: %+v", counts)
	}
}

func TestFetchRequiresISSN(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	if _, err := a.Fetch(context.Background(), nil, FetchParams{Output: "x.csv"}); err == nil {
		t.Fatal("expected error for empty ISSN")
	}
}

func TestClassifyRequiresTopics(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	if _, err := a.Classify(context.Background(), nil, ClassifyParams{Input: "x.csv", Topics: " , "}); err == nil {
		t.Fatal("expected error for empty topics")
	}
}

func TestHistoryWithoutDatabase(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "http://127.0.0.1:1")
	cfg.Database.DSN = ""
	a := newTestApp(t, cfg)
	if _, err := a.History(context.Background()); err == nil {
		t.Fatal("expected error without a database")
	}
}

func TestParseRangeFallsBack(t *testing.T) {
	t.Parallel()

	a := newTestApp(t, testConfig(t, "http://127.0.0.1:1"))
	if r := a.parseRange(nil, "19x", "2030"); r.Start != 2020 || r.End != 2030 {
		t.Fatalf("unexpected range: %+v", r)
	}
	if r := a.parseRange(nil, "2025", "2010"); r.Start != 2020 || r.End != 2021 {
		t.Fatalf("inverted range should fall back to configured range, got %+v", r)
	}
}

func TestInvertedRangeUsesConfiguredYears(t *testing.T) {
	t.Parallel()

	srv := fakeScopus(t)
	a := newTestApp(t, testConfig(t, srv.URL))
	dir := t.TempDir()
	articlesPath := filepath.Join(dir, "articles.csv")

	journal, err := a.Fetch(context.Background(), nil, FetchParams{
		ISSN:      "1234-5678",
		StartYear: "2021",
		EndYear:   "2020",
		Output:    articlesPath,
	})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(journal.Articles) != 2 {
		t.Fatalf("fetch should walk both configured years, got %d articles", len(journal.Articles))
	}

	buckets, err := a.Aggregate(context.Background(), nil, AggregateParams{
		Input:     articlesPath,
		StartYear: "2021",
		EndYear:   "2020",
	})
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if len(buckets) != 2 || buckets[0].Year != 2020 || buckets[1].Year != 2021 {
		t.Fatalf("aggregate should use configured years, got %+v", buckets)
	}

	if _, err := a.Chart(context.Background(), nil, ChartParams{
		Input:     articlesPath,
		StartYear: "2021",
		EndYear:   "2020",
		Output:    filepath.Join(dir, "chart.html"),
	}); err != nil {
		t.Fatalf("chart: %v", err)
	}
}
