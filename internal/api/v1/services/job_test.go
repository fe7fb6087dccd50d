package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/queue"
	queuememory "github.com/briggon/dataplane/internal/queue/memory"
	"github.com/briggon/dataplane/internal/store"
	storememory "github.com/briggon/dataplane/internal/store/memory"
)

func TestSubmitCreatesQueuedRecord(t *testing.T) {
	ctx := context.Background()
	records := storememory.New()
	q := queuememory.New(4, 10*time.Millisecond)
	svc := NewJobService(records, q, time.Second)

	job, err := svc.Submit(ctx, json.RawMessage(`{"test":"value"}`), models.JobPriorityHigh)
	require.NoError(t, err)
	require.NotEmpty(t, job.ID)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Equal(t, models.JobPriorityHigh, job.Priority)
	assert.False(t, job.CreatedAt.IsZero())

	stored, err := svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, stored.Status)

	task, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, task)
	assert.Equal(t, job.ID, task.JobID)
	assert.Equal(t, models.JobPriorityHigh, task.Priority)
}

func TestSubmitUniqueIDsUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	records := storememory.New()
	q := queuememory.New(256, 10*time.Millisecond)
	svc := NewJobService(records, q, time.Second)

	const n = 100
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		go func() {
			job, err := svc.Submit(ctx, json.RawMessage(`{}`), models.JobPriorityNormal)
			if err != nil {
				ids <- ""
				return
			}
			ids <- job.ID
		}()
	}

	seen := make(map[string]bool, n)
	for i := 0; i < n; i++ {
		id := <-ids
		require.NotEmpty(t, id)
		require.False(t, seen[id], "duplicate job id %s", id)
		seen[id] = true
	}
}

// brokenQueue always fails to enqueue.
type brokenQueue struct{}

func (brokenQueue) Enqueue(context.Context, *queue.Task) error {
	return errors.New("connection refused")
}

func (brokenQueue) Dequeue(context.Context) (*queue.Task, error) {
	return nil, errors.New("connection refused")
}

func (brokenQueue) Ping(context.Context) error {
	return errors.New("connection refused")
}

// capturingStore records the IDs handed to Create.
type capturingStore struct {
	*storememory.Store
	created []string
}

func (c *capturingStore) Create(ctx context.Context, job *models.Job) error {
	if err := c.Store.Create(ctx, job); err != nil {
		return err
	}
	c.created = append(c.created, job.ID)
	return nil
}

func TestSubmitEnqueueFailureMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	records := &capturingStore{Store: storememory.New()}
	svc := NewJobService(records, brokenQueue{}, 50*time.Millisecond)

	_, err := svc.Submit(ctx, json.RawMessage(`{"x":1}`), models.JobPriorityNormal)
	require.ErrorIs(t, err, ErrEnqueueFailed)

	// The record must not be left permanently queued.
	require.Len(t, records.created, 1)
	job, err := records.Get(ctx, records.created[0])
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "enqueue failed")
}

func TestGetUnknownID(t *testing.T) {
	svc := NewJobService(storememory.New(), queuememory.New(4, 10*time.Millisecond), time.Second)

	_, err := svc.Get(context.Background(), "never-submitted")
	assert.ErrorIs(t, err, store.ErrJobNotFound)
}
