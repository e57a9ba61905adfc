package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestDispatcherRunsJobsAndKeepsLogs(t *testing.T) {
	t.Parallel()

	d := NewDispatcher("info", nil, nil)

	okID, err := d.Submit("fetch", func(ctx context.Context, log *slog.Logger) error {
		log.Info("walking year", "year", 2020)
		return nil
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	failID, err := d.Submit("classify", func(ctx context.Context, log *slog.Logger) error {
		return errors.New("no topics")
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	panicID, _ := d.Submit("chart", func(ctx context.Context, log *slog.Logger) error {
		panic("boom")
	})

	d.Wait()

	ok, found := d.Get(okID)
	if !found || ok.Status != StatusSucceeded || ok.FinishedAt == nil {
		t.Fatalf("unexpected ok job %+v", ok)
	}
	joined := strings.Join(ok.Log, "\n")
	if !strings.Contains(joined, "walking year") || !strings.Contains(joined, "job_id="+okID) {
		t.Fatalf("job log missing lines: %v", ok.Log)
	}

	failed, _ := d.Get(failID)
	if failed.Status != StatusFailed || failed.Error != "no topics" {
		t.Fatalf("unexpected failed job %+v", failed)
	}

	panicked, _ := d.Get(panicID)
	if panicked.Status != StatusFailed || !strings.Contains(panicked.Error, "boom") {
		t.Fatalf("panic should fail the job, got %+v", panicked)
	}

	if got := d.List(); len(got) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(got))
	}
	if _, found := d.Get("missing"); found {
		t.Fatalf("unknown id should not be found")
	}
}

func TestDispatcherStopCancelsAndRejects(t *testing.T) {
	t.Parallel()

	d := NewDispatcher("info", nil, nil)
	started := make(chan struct{})
	id, err := d.Submit("fetch", func(ctx context.Context, log *slog.Logger) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	snap, _ := d.Get(id)
	if snap.Status != StatusFailed {
		t.Fatalf("cancelled job should be failed, got %s", snap.Status)
	}
	if _, err := d.Submit("fetch", func(context.Context, *slog.Logger) error { return nil }); !errors.Is(err, ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}
