// Package batch dispatches extraction jobs across a list of target URLs
// under a bounded worker pool and a shared rate limiter, aggregating
// success and failure counts without letting one URL abort the rest.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jonathan/schemascrape/internal/extract"
)

// DefaultPacing is the floor delay between dispatches. It protects the
// target host and external rate limits; it is a fixed floor, not a
// backoff, since per-URL failures are not assumed correlated.
const DefaultPacing = 1200 * time.Millisecond

// DefaultWorkers keeps batches to one URL at a time unless raised.
const DefaultWorkers = 1

// ErrEmptyBatch means normalization left no dispatchable URLs. It is
// reported before any job is created.
var ErrEmptyBatch = errors.New("batch contains no valid http(s) URLs")

// Runner runs one job end to end. *job.Manager satisfies this.
type Runner interface {
	Submit(ctx context.Context, url string, schema extract.Schema) (uuid.UUID, error)
	Run(ctx context.Context, jobID uuid.UUID) error
}

// JobStatusReader reports a job's terminal outcome after Run returns.
type JobStatusReader interface {
	JobSucceeded(ctx context.Context, jobID uuid.UUID) (bool, error)
}

// Run is the mutable aggregate over one dispatcher invocation. Counters
// only grow; Snapshot returns a consistent view under concurrency.
type Run struct {
	total     int
	processed atomic.Int64
	succeeded atomic.Int64
	failed    atomic.Int64

	mu     sync.Mutex
	jobIDs []uuid.UUID
}

// Snapshot is a point-in-time view of batch progress.
type Snapshot struct {
	Total     int `json:"total"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Snapshot returns the current counters.
func (r *Run) Snapshot() Snapshot {
	return Snapshot{
		Total:     r.total,
		Processed: int(r.processed.Load()),
		Succeeded: int(r.succeeded.Load()),
		Failed:    int(r.failed.Load()),
	}
}

// JobIDs returns the ids of the jobs this batch created, in submission
// order.
func (r *Run) JobIDs() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]uuid.UUID(nil), r.jobIDs...)
}

// Options configures a Dispatcher.
type Options struct {
	// Workers bounds concurrent jobs. Values < 1 use DefaultWorkers.
	Workers int
	// Pacing is the minimum interval between dispatches across all
	// workers. Values <= 0 use DefaultPacing.
	Pacing time.Duration
	// OnProgress, when set, is called with a snapshot after each URL
	// resolves.
	OnProgress func(Snapshot)
}

// Dispatcher fans a URL list out to the job runner.
type Dispatcher struct {
	runner  Runner
	status  JobStatusReader
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewDispatcher creates a dispatcher over runner. status reports each
// job's terminal outcome; logger may be nil.
func NewDispatcher(runner Runner, status JobStatusReader, opts Options, logger *zap.Logger) *Dispatcher {
	if opts.Workers < 1 {
		opts.Workers = DefaultWorkers
	}
	if opts.Pacing <= 0 {
		opts.Pacing = DefaultPacing
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		runner: runner,
		status: status,
		opts:   opts,
		// Shared across workers so raising Workers cannot burst past the
		// pacing intent.
		limiter: rate.NewLimiter(rate.Every(opts.Pacing), 1),
		logger:  logger,
	}
}

// Normalize trims whitespace, drops empties, keeps only http(s) URLs
// (case-sensitively as given), and dedupes first-occurrence-wins.
func Normalize(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// Dispatch submits and runs one job per normalized URL, in input order,
// and returns the final aggregate. One URL's failure never aborts the
// batch. Caller cancellation stops further dispatches; URLs never
// dispatched are not counted as processed.
func (d *Dispatcher) Dispatch(ctx context.Context, urls []string, schema extract.Schema) (*Run, error) {
	normalized := Normalize(urls)
	if len(normalized) == 0 {
		return nil, ErrEmptyBatch
	}
	if err := schema.Validate(); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}

	run := &Run{total: len(normalized)}
	d.logger.Info("batch started",
		zap.Int("targets", len(normalized)),
		zap.Int("workers", d.opts.Workers))

	work := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < d.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for target := range work {
				d.dispatchOne(ctx, run, target, schema)
			}
		}()
	}

feed:
	for _, target := range normalized {
		// The limiter enforces the pacing floor between dispatches.
		if err := d.limiter.Wait(ctx); err != nil {
			break feed
		}
		select {
		case work <- target:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	snap := run.Snapshot()
	d.logger.Info("batch finished",
		zap.Int("processed", snap.Processed),
		zap.Int("succeeded", snap.Succeeded),
		zap.Int("failed", snap.Failed))
	return run, nil
}

// dispatchOne runs a single URL through the job manager and folds its
// outcome into the aggregate.
func (d *Dispatcher) dispatchOne(ctx context.Context, run *Run, target string, schema extract.Schema) {
	succeeded := false
	defer func() {
		run.processed.Add(1)
		if succeeded {
			run.succeeded.Add(1)
		} else {
			run.failed.Add(1)
		}
		if d.opts.OnProgress != nil {
			d.opts.OnProgress(run.Snapshot())
		}
	}()

	jobID, err := d.runner.Submit(ctx, target, schema)
	if err != nil {
		d.logger.Warn("batch item submit failed",
			zap.String("url", target),
			zap.Error(err))
		return
	}
	run.mu.Lock()
	run.jobIDs = append(run.jobIDs, jobID)
	run.mu.Unlock()

	if err := d.runner.Run(ctx, jobID); err != nil {
		d.logger.Warn("batch item run failed",
			zap.String("url", target),
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		return
	}

	// Run keeps pipeline failures inside the job boundary, so the job's
	// terminal status is the source of truth for the outcome.
	ok, err := d.status.JobSucceeded(ctx, jobID)
	if err != nil {
		d.logger.Warn("batch item status unknown",
			zap.String("job_id", jobID.String()),
			zap.Error(err))
		return
	}
	succeeded = ok
}
