// Package worker runs submitted jobs out-of-band from the HTTP API. A
// pool of workers drains the shared execution queue; each dequeued task
// is claimed, processed and finalized by exactly one executor.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/briggon/dataplane/internal/archive"
	"github.com/briggon/dataplane/internal/backoff"
	"github.com/briggon/dataplane/internal/logger"
	"github.com/briggon/dataplane/internal/objectstore"
	"github.com/briggon/dataplane/internal/processor"
	"github.com/briggon/dataplane/internal/queue"
	"github.com/briggon/dataplane/internal/store"
)

// Default retry tuning for terminal record writes.
const (
	DefaultMaxWriteRetries    = 5
	DefaultWriteRetryInitial  = 200 * time.Millisecond
	DefaultWriteRetryMaxDelay = 5 * time.Second
)

// Executor performs the full lifecycle of a single job: claim, process,
// persist outcome.
type Executor struct {
	records store.RecordStore
	objects objectstore.ObjectStore
	proc    processor.Processor

	// archiveRepo mirrors terminal records to Postgres. Optional;
	// archive failures never affect job state.
	archiveRepo *archive.Repository

	retry      backoff.Strategy
	maxRetries int
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithArchive mirrors terminal job records to the given archive repository.
func WithArchive(repo *archive.Repository) ExecutorOption {
	return func(e *Executor) { e.archiveRepo = repo }
}

// WithRetry overrides the backoff strategy and retry budget for terminal
// record writes.
func WithRetry(strategy backoff.Strategy, maxRetries int) ExecutorOption {
	return func(e *Executor) {
		e.retry = strategy
		e.maxRetries = maxRetries
	}
}

// NewExecutor creates a job executor.
func NewExecutor(records store.RecordStore, objects objectstore.ObjectStore, proc processor.Processor, opts ...ExecutorOption) *Executor {
	e := &Executor{
		records:    records,
		objects:    objects,
		proc:       proc,
		retry:      backoff.NewExponentialWithJitter(DefaultWriteRetryInitial, DefaultWriteRetryMaxDelay),
		maxRetries: DefaultMaxWriteRetries,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one task to a terminal state. Tasks whose record is
// already terminal (or mid-flight on another worker) are skipped as a
// safe no-op, so re-delivery never re-processes or double-writes results.
//
// Processing failures are recorded on the job and never returned as
// errors: one bad payload must not take down the worker or block the
// jobs behind it.
func (e *Executor) Execute(ctx context.Context, task *queue.Task) error {
	jobID := task.JobID

	if err := e.records.MarkProcessing(ctx, jobID); err != nil {
		if errors.Is(err, store.ErrNotClaimable) {
			logger.Infof("Job %s is not claimable, skipping", jobID)
			return nil
		}
		return fmt.Errorf("claim job %s: %w", jobID, err)
	}

	logger.Infof("Processing job %s with priority %s", jobID, task.Priority)

	result, procErr := e.runProcessor(ctx, task)
	if procErr != nil {
		logger.Errorf("Error processing job %s: %v", jobID, procErr)
		if err := e.finalize(ctx, jobID, func(c context.Context) error {
			return e.records.MarkFailed(c, jobID, procErr.Error())
		}); err != nil {
			return err
		}
		e.archiveTerminal(ctx, jobID)
		return nil
	}

	resultKey := objectstore.ResultKey(jobID)
	if err := e.finalize(ctx, jobID, func(c context.Context) error {
		return e.objects.Put(c, resultKey, result)
	}); err != nil {
		return err
	}

	if err := e.finalize(ctx, jobID, func(c context.Context) error {
		return e.records.MarkCompleted(c, jobID, resultKey)
	}); err != nil {
		return err
	}

	logger.Infof("Completed job %s", jobID)
	e.archiveTerminal(ctx, jobID)
	return nil
}

// runProcessor invokes the transformation with panic isolation. No store
// lock is held while it runs; progress trickles out through the report
// callback.
func (e *Executor) runProcessor(ctx context.Context, task *queue.Task) (result []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("transformation panicked: %v", r)
		}
	}()

	report := e.progressReporter(ctx, task.JobID)
	return e.proc.Process(ctx, task.JobID, task.Payload, report)
}

// progressReporter clamps reports to [0,1] and keeps them monotonically
// non-decreasing. Store errors are logged, not surfaced: progress is
// advisory.
func (e *Executor) progressReporter(ctx context.Context, jobID string) processor.ProgressFunc {
	var mu sync.Mutex
	last := 0.0

	return func(progress float64) {
		if progress < 0.0 {
			progress = 0.0
		}
		if progress > 1.0 {
			progress = 1.0
		}

		mu.Lock()
		if progress <= last {
			mu.Unlock()
			return
		}
		last = progress
		mu.Unlock()

		if err := e.records.SetProgress(ctx, jobID, progress); err != nil {
			logger.Warnf("Failed to record progress for job %s: %v", jobID, err)
		}
	}
}

// finalize applies a terminal write with retries so a transient store
// outage cannot strand the job in processing forever.
func (e *Executor) finalize(ctx context.Context, jobID string, write func(context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if attempt > 0 {
			delay := e.retry.Delay(attempt)
			logger.Warnf("Retrying terminal write for job %s (attempt %d) after %s: %v", jobID, attempt, delay, lastErr)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return fmt.Errorf("finalize job %s: %w", jobID, ctx.Err())
			}
		}

		lastErr = write(ctx)
		if lastErr == nil {
			return nil
		}
	}
	return fmt.Errorf("finalize job %s after %d attempts: %w", jobID, e.maxRetries+1, lastErr)
}

// archiveTerminal mirrors the finished record to Postgres, best-effort.
func (e *Executor) archiveTerminal(ctx context.Context, jobID string) {
	if e.archiveRepo == nil {
		return
	}

	job, err := e.records.Get(ctx, jobID)
	if err != nil {
		logger.Warnf("Failed to load job %s for archiving: %v", jobID, err)
		return
	}
	if err := e.archiveRepo.Save(ctx, job); err != nil {
		logger.Warnf("Failed to archive job %s: %v", jobID, err)
	}
}
