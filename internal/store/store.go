// Package store defines the job record store contract. The record store
// is the single source of truth for job status read by the API and
// written by the executor.
package store

import (
	"context"
	"errors"

	"github.com/briggon/dataplane/internal/models"
)

// ErrJobNotFound is returned when no record exists for the given job ID.
// It is distinct from any valid job status: an unknown ID maps to a 404,
// never to a fabricated "processing" state.
var ErrJobNotFound = errors.New("job not found")

// ErrJobExists is returned when creating a record whose ID already exists.
var ErrJobExists = errors.New("job already exists")

// ErrNotClaimable is returned by MarkProcessing when the record is not in
// the queued state. Re-executing a terminal job surfaces this so the
// executor can treat it as a no-op instead of re-processing.
var ErrNotClaimable = errors.New("job is not claimable")

// RecordStore persists job lifecycle records keyed by job ID. Each method
// applies its persisted effect atomically; a crash between calls leaves
// the record in a well-defined prior state.
//
// Only the worker that successfully claims a job through MarkProcessing
// may issue subsequent writes for that job ID.
type RecordStore interface {
	// Create persists a new record. The record must be visible to a
	// subsequent Get before Create returns.
	Create(ctx context.Context, job *models.Job) error

	// Get returns the record for the given ID or ErrJobNotFound.
	Get(ctx context.Context, id string) (*models.Job, error)

	// MarkProcessing atomically claims a queued job, transitioning it to
	// processing with progress reset to 0. Returns ErrNotClaimable if the
	// record is not queued and ErrJobNotFound if it does not exist.
	MarkProcessing(ctx context.Context, id string) error

	// SetProgress records transformation progress in [0.0, 1.0].
	SetProgress(ctx context.Context, id string, progress float64) error

	// MarkCompleted transitions the record to completed with progress 1.0
	// and the given result location.
	MarkCompleted(ctx context.Context, id, resultLocation string) error

	// MarkFailed transitions the record to failed with the given error
	// message.
	MarkFailed(ctx context.Context, id, errMsg string) error

	// Ping verifies connectivity for readiness checks.
	Ping(ctx context.Context) error
}
