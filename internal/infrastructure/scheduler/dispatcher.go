package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"ArticleClassifier/internal/logging"
	"ArticleClassifier/internal/metrics"
	"ArticleClassifier/pkg/logger"
)

// ErrStopped is returned by Submit after Stop.
var ErrStopped = errors.New("dispatcher is stopped")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is one pipeline run. It logs only through the logger it is handed.
type Task func(ctx context.Context, log *slog.Logger) error

// Snapshot is a read-only view of a job.
type Snapshot struct {
	ID         string     `json:"id"`
	Kind       string     `json:"kind"`
	Status     Status     `json:"status"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Error      string     `json:"error,omitempty"`
	Log        []string   `json:"log"`
	// NextOffset is the log offset to request on the next poll.
	NextOffset int `json:"nextOffset"`
}

type job struct {
	id         string
	kind       string
	status     Status
	startedAt  time.Time
	finishedAt time.Time
	err        string
	log        *logger.Buffer
}

// Dispatcher runs every submitted task on its own goroutine and keeps the
// job's log in an append-only buffer.
type Dispatcher struct {
	mu      sync.Mutex
	jobs    map[string]*job
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool

	level   string
	mirror  io.Writer
	metrics *metrics.Metrics
}

// NewDispatcher builds a dispatcher. Job logs use level and are copied to
// mirror when it is non-nil.
func NewDispatcher(level string, mirror io.Writer, m *metrics.Metrics) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		jobs:    map[string]*job{},
		ctx:     ctx,
		cancel:  cancel,
		level:   level,
		mirror:  mirror,
		metrics: m,
	}
}

// Submit starts task in the background and returns the job id.
func (d *Dispatcher) Submit(kind string, task Task) (string, error) {
	if task == nil {
		return "", fmt.Errorf("job %s has no task", kind)
	}

	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return "", ErrStopped
	}
	j := &job{
		id:        uuid.NewString(),
		kind:      kind,
		status:    StatusRunning,
		startedAt: time.Now().UTC(),
		log:       logger.NewBuffer(),
	}
	d.jobs[j.id] = j
	d.wg.Add(1)
	d.mu.Unlock()

	var w io.Writer = j.log
	if d.mirror != nil {
		w = io.MultiWriter(j.log, d.mirror)
	}
	log := logging.New(d.level, w).With("job_id", j.id, "kind", kind)

	d.metrics.JobStarted(kind)
	go d.run(j, task, log)

	return j.id, nil
}

func (d *Dispatcher) run(j *job, task Task, log *slog.Logger) {
	defer d.wg.Done()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return task(d.ctx, log)
	}()

	d.mu.Lock()
	j.finishedAt = time.Now().UTC()
	if err != nil {
		j.status = StatusFailed
		j.err = err.Error()
	} else {
		j.status = StatusSucceeded
	}
	status := j.status
	d.mu.Unlock()

	if err != nil {
		log.Error("job failed", "error", err)
	} else {
		log.Info("job finished")
	}
	d.metrics.JobFinished(j.kind, string(status))
}

// Get returns a snapshot of one job with its full log.
func (d *Dispatcher) Get(id string) (Snapshot, bool) {
	return d.GetSince(id, 0)
}

// GetSince returns a snapshot of one job holding only the log lines after
// offset.
func (d *Dispatcher) GetSince(id string, offset int) (Snapshot, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	j, ok := d.jobs[id]
	if !ok {
		return Snapshot{}, false
	}
	return j.snapshot(offset), true
}

// List returns every job, oldest first.
func (d *Dispatcher) List() []Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Snapshot, 0, len(d.jobs))
	for _, j := range d.jobs {
		out = append(out, j.snapshot(0))
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].StartedAt.Equal(out[b].StartedAt) {
			return out[a].ID < out[b].ID
		}
		return out[a].StartedAt.Before(out[b].StartedAt)
	})
	return out
}

func (j *job) snapshot(offset int) Snapshot {
	lines, next := j.log.Since(offset)
	if lines == nil {
		lines = []string{}
	}
	s := Snapshot{
		ID:         j.id,
		Kind:       j.kind,
		Status:     j.status,
		StartedAt:  j.startedAt,
		Error:      j.err,
		Log:        lines,
		NextOffset: next,
	}
	if !j.finishedAt.IsZero() {
		t := j.finishedAt
		s.FinishedAt = &t
	}
	return s
}

// Wait blocks until every submitted job has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Stop refuses new jobs, cancels running ones and waits for them until ctx ends.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.stopped = true
	d.mu.Unlock()

	d.cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
