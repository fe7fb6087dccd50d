// Package services provides the business logic behind the API handlers.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/briggon/dataplane/internal/logger"
	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/queue"
	"github.com/briggon/dataplane/internal/store"
)

// ErrEnqueueFailed wraps enqueue errors so handlers can map them to a
// server error distinct from validation failures.
var ErrEnqueueFailed = errors.New("failed to enqueue job")

// JobService provides business logic for job submission and lookup.
// It never mutates a job after creation; that is the executor's job.
type JobService struct {
	records        store.RecordStore
	queue          queue.Queue
	enqueueTimeout time.Duration
}

// NewJobService creates a new job service instance.
func NewJobService(records store.RecordStore, q queue.Queue, enqueueTimeout time.Duration) *JobService {
	if enqueueTimeout <= 0 {
		enqueueTimeout = 5 * time.Second
	}
	return &JobService{
		records:        records,
		queue:          q,
		enqueueTimeout: enqueueTimeout,
	}
}

// Submit creates a job record and hands the payload to the execution
// queue. The record is durably visible to a status lookup before Submit
// returns; the call never waits for processing itself.
func (s *JobService) Submit(ctx context.Context, payload json.RawMessage, priority models.JobPriority) (*models.Job, error) {
	job := &models.Job{
		ID:        uuid.NewString(),
		Status:    models.JobStatusQueued,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.records.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("persist job record: %w", err)
	}

	task := &queue.Task{
		JobID:    job.ID,
		Priority: priority,
		Payload:  payload,
	}

	enqueueCtx, cancel := context.WithTimeout(ctx, s.enqueueTimeout)
	defer cancel()

	if err := s.queue.Enqueue(enqueueCtx, task); err != nil {
		// The record was already created; mark it failed so it is not
		// left queued forever with no worker ever seeing it.
		if markErr := s.records.MarkFailed(ctx, job.ID, fmt.Sprintf("enqueue failed: %v", err)); markErr != nil {
			logger.Errorf("Failed to mark job %s failed after enqueue error: %v", job.ID, markErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrEnqueueFailed, err)
	}

	logger.Infof("Queued job %s with priority %s", job.ID, priority)
	return job, nil
}

// Get retrieves the job record for the given ID. Unknown IDs surface
// store.ErrJobNotFound untouched so handlers can return a 404.
func (s *JobService) Get(ctx context.Context, id string) (*models.Job, error) {
	return s.records.Get(ctx, id)
}
