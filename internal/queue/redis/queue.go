// Package redis implements the execution queue on Redis lists. One list
// per priority; BRPOP checks high before normal before low so priority
// is honored without any scheduler of its own.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/queue"
)

const keyPrefix = "dataplane:queue:"

// drainOrder is the BRPOP key order; earlier keys win.
var drainOrder = []models.JobPriority{
	models.JobPriorityHigh,
	models.JobPriorityNormal,
	models.JobPriorityLow,
}

// Queue is a Redis-backed execution queue.
type Queue struct {
	client      *goredis.Client
	pollTimeout time.Duration
}

var _ queue.Queue = (*Queue)(nil)

// New creates an execution queue on the given Redis client. pollTimeout
// bounds how long Dequeue blocks waiting for work.
func New(client *goredis.Client, pollTimeout time.Duration) *Queue {
	if pollTimeout <= 0 {
		pollTimeout = time.Second
	}
	return &Queue{client: client, pollTimeout: pollTimeout}
}

func listKey(priority models.JobPriority) string {
	return keyPrefix + string(priority)
}

// Enqueue pushes the task onto the list for its priority.
func (q *Queue) Enqueue(ctx context.Context, task *queue.Task) error {
	data, err := task.Encode()
	if err != nil {
		return fmt.Errorf("queue/redis: encode task: %w", err)
	}
	if err := q.client.LPush(ctx, listKey(task.Priority), data).Err(); err != nil {
		return fmt.Errorf("queue/redis: enqueue job %s: %w", task.JobID, err)
	}
	return nil
}

// Dequeue pops the next task, draining higher priorities first. BRPOP
// pops each element exactly once, so a popped job belongs to exactly one
// worker.
func (q *Queue) Dequeue(ctx context.Context) (*queue.Task, error) {
	keys := make([]string, 0, len(drainOrder))
	for _, p := range drainOrder {
		keys = append(keys, listKey(p))
	}

	res, err := q.client.BRPop(ctx, q.pollTimeout, keys...).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("queue/redis: dequeue: %w", err)
	}

	// BRPOP returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("queue/redis: unexpected BRPOP reply length %d", len(res))
	}

	task, err := queue.DecodeTask([]byte(res[1]))
	if err != nil {
		return nil, fmt.Errorf("queue/redis: decode task: %w", err)
	}
	return task, nil
}

// Ping verifies the Redis connection.
func (q *Queue) Ping(ctx context.Context) error {
	if err := q.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("queue/redis: ping: %w", err)
	}
	return nil
}
