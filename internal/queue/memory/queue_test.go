package memory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/queue"
)

func task(id string, priority models.JobPriority) *queue.Task {
	return &queue.Task{
		JobID:    id,
		Priority: priority,
		Payload:  json.RawMessage(`{"test":"value"}`),
	}
}

func TestEnqueueDequeue(t *testing.T) {
	ctx := context.Background()
	q := New(4, 10*time.Millisecond)

	require.NoError(t, q.Enqueue(ctx, task("a", models.JobPriorityNormal)))

	got, err := q.Dequeue(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "a", got.JobID)
	assert.JSONEq(t, `{"test":"value"}`, string(got.Payload))
}

func TestDequeueHonorsPriority(t *testing.T) {
	ctx := context.Background()
	q := New(4, 10*time.Millisecond)

	require.NoError(t, q.Enqueue(ctx, task("low", models.JobPriorityLow)))
	require.NoError(t, q.Enqueue(ctx, task("normal", models.JobPriorityNormal)))
	require.NoError(t, q.Enqueue(ctx, task("high", models.JobPriorityHigh)))

	var order []string
	for i := 0; i < 3; i++ {
		got, err := q.Dequeue(ctx)
		require.NoError(t, err)
		require.NotNil(t, got)
		order = append(order, got.JobID)
	}
	assert.Equal(t, []string{"high", "normal", "low"}, order)
}

func TestDequeueTimesOutEmpty(t *testing.T) {
	q := New(4, 10*time.Millisecond)

	start := time.Now()
	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
}

func TestEnqueueFailsFastWhenFull(t *testing.T) {
	ctx := context.Background()
	q := New(1, 10*time.Millisecond)

	require.NoError(t, q.Enqueue(ctx, task("a", models.JobPriorityNormal)))
	assert.ErrorIs(t, q.Enqueue(ctx, task("b", models.JobPriorityNormal)), queue.ErrQueueFull)
}

func TestTaskRoundTrip(t *testing.T) {
	original := task("job-1", models.JobPriorityHigh)
	data, err := original.Encode()
	require.NoError(t, err)

	decoded, err := queue.DecodeTask(data)
	require.NoError(t, err)
	assert.Equal(t, original.JobID, decoded.JobID)
	assert.Equal(t, original.Priority, decoded.Priority)
	assert.JSONEq(t, string(original.Payload), string(decoded.Payload))
}
