// Package memory implements a channel-backed execution queue for tests
// and single-process development setups.
package memory

import (
	"context"
	"time"

	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/queue"
)

// DefaultCapacity is the per-priority buffer size.
const DefaultCapacity = 128

// Queue is an in-memory execution queue with one buffered channel per
// priority.
type Queue struct {
	high        chan *queue.Task
	normal      chan *queue.Task
	low         chan *queue.Task
	pollTimeout time.Duration
}

var _ queue.Queue = (*Queue)(nil)

// New creates an in-memory queue. pollTimeout bounds how long Dequeue
// blocks waiting for work.
func New(capacity int, pollTimeout time.Duration) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if pollTimeout <= 0 {
		pollTimeout = 50 * time.Millisecond
	}
	return &Queue{
		high:        make(chan *queue.Task, capacity),
		normal:      make(chan *queue.Task, capacity),
		low:         make(chan *queue.Task, capacity),
		pollTimeout: pollTimeout,
	}
}

func (q *Queue) channelFor(priority models.JobPriority) chan *queue.Task {
	switch priority {
	case models.JobPriorityHigh:
		return q.high
	case models.JobPriorityLow:
		return q.low
	default:
		return q.normal
	}
}

// Enqueue adds the task to its priority channel, failing fast when the
// buffer is full.
func (q *Queue) Enqueue(ctx context.Context, task *queue.Task) error {
	select {
	case q.channelFor(task.Priority) <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return queue.ErrQueueFull
	}
}

// Dequeue returns the next task, draining high before normal before low.
// Returns (nil, nil) when nothing arrives within the poll window.
func (q *Queue) Dequeue(ctx context.Context) (*queue.Task, error) {
	// Drain pass in strict priority order.
	for _, ch := range []chan *queue.Task{q.high, q.normal, q.low} {
		select {
		case task := <-ch:
			return task, nil
		default:
		}
	}

	timer := time.NewTimer(q.pollTimeout)
	defer timer.Stop()

	select {
	case task := <-q.high:
		return task, nil
	case task := <-q.normal:
		return task, nil
	case task := <-q.low:
		return task, nil
	case <-timer.C:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Ping always succeeds for the in-memory queue.
func (q *Queue) Ping(_ context.Context) error {
	return nil
}
