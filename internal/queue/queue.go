// Package queue defines the execution hand-off between the submission
// API and the worker pool. The queue is durable and shared: multiple
// worker processes may drain it concurrently, and an API crash never
// loses accepted work.
package queue

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/briggon/dataplane/internal/models"
)

// ErrQueueFull is returned by bounded queues when no slot frees up within
// the enqueue deadline.
var ErrQueueFull = errors.New("execution queue is full")

// Task is the unit handed from the API to a worker. The payload travels
// by value through the queue; the API and the executor never share a
// mutable reference.
type Task struct {
	JobID    string             `json:"job_id"`
	Priority models.JobPriority `json:"priority"`
	Payload  json.RawMessage    `json:"payload"`
}

// Encode serializes the task for the wire.
func (t *Task) Encode() ([]byte, error) {
	return json.Marshal(t)
}

// DecodeTask deserializes a task from the wire.
func DecodeTask(data []byte) (*Task, error) {
	var t Task
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// Queue is the durable execution channel.
type Queue interface {
	// Enqueue adds a task. It must respect the context deadline and fail
	// fast rather than hang when the queue is unreachable or full.
	Enqueue(ctx context.Context, task *Task) error

	// Dequeue blocks for at most the implementation's poll window and
	// returns the next task honoring priority order. A (nil, nil) return
	// means no work was available within the window.
	Dequeue(ctx context.Context) (*Task, error)

	// Ping verifies connectivity for readiness checks.
	Ping(ctx context.Context) error
}
