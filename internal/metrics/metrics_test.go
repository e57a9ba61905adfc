package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesCounters(t *testing.T) {
	t.Parallel()

	m := New("test_ns")
	m.Fetched(3)
	m.Classified("Bio")
	m.Skipped("threshold", 2)
	m.ClassifierError()
	m.JobStarted("fetch")
	m.JobFinished("fetch", "succeeded")
	m.ObserveStage("fetch", time.Now())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	text := string(body)

	for _, want := range []string{
		"test_ns_articles_fetched_total 3",
		`test_ns_articles_classified_total{label="Bio"} 1`,
		`test_ns_articles_skipped_total{reason="threshold"} 2`,
		`test_ns_jobs_finished_total{kind="fetch",status="succeeded"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q:\n%s", want, text)
		}
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.Fetched(1)
	m.Classified("x")
	m.Skipped("x", 1)
	m.ClassifierError()
	m.JobStarted("x")
	m.JobFinished("x", "y")
	m.ObserveStage("x", time.Now())
	if err := m.WriteTextfile("ignored"); err != nil {
		t.Fatalf("nil WriteTextfile: %v", err)
	}
}

func TestWriteTextfile(t *testing.T) {
	t.Parallel()

	m := New("tf")
	m.Fetched(1)

	path := filepath.Join(t.TempDir(), "classifier.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(raw), "tf_articles_fetched_total 1") {
		t.Fatalf("unexpected textfile:\n%s", raw)
	}
}
