// Package memory implements an in-memory job record store. It is used by
// tests and by single-process development setups without Redis.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/store"
)

// Store is a mutex-guarded in-memory RecordStore.
type Store struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

var _ store.RecordStore = (*Store)(nil)

// New creates an empty in-memory record store.
func New() *Store {
	return &Store{jobs: make(map[string]*models.Job)}
}

// Create persists a new job record.
func (s *Store) Create(_ context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return store.ErrJobExists
	}
	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

// Get returns a copy of the record for the given ID.
func (s *Store) Get(_ context.Context, id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

// MarkProcessing claims a queued job for execution.
func (s *Store) MarkProcessing(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	if job.Status != models.JobStatusQueued {
		return store.ErrNotClaimable
	}
	job.Status = models.JobStatusProcessing
	job.Progress = 0.0
	return nil
}

// SetProgress updates the progress field of a processing job.
func (s *Store) SetProgress(_ context.Context, id string, progress float64) error {
	if progress < 0.0 || progress > 1.0 {
		return fmt.Errorf("progress out of range: %f", progress)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Progress = progress
	return nil
}

// MarkCompleted finalizes a job with its result location.
func (s *Store) MarkCompleted(_ context.Context, id, resultLocation string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = models.JobStatusCompleted
	job.Progress = 1.0
	job.ResultLocation = resultLocation
	return nil
}

// MarkFailed finalizes a job with an error message.
func (s *Store) MarkFailed(_ context.Context, id, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status = models.JobStatusFailed
	job.Error = errMsg
	return nil
}

// Ping always succeeds for the in-memory store.
func (s *Store) Ping(_ context.Context) error {
	return nil
}
