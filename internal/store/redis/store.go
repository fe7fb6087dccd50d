// Package redis implements the job record store on Redis. Each job is a
// hash under dataplane:job:{id} with a TTL so records eventually expire
// without any cleanup logic in the core.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/briggon/dataplane/internal/models"
	"github.com/briggon/dataplane/internal/store"
)

// claimScript atomically transitions a queued job to processing. Returns
// 1 on success, 0 when the job is not claimable and -1 when it is missing.
var claimScript = goredis.NewScript(`
local status = redis.call("HGET", KEYS[1], "status")
if status == false then
	return -1
end
if status ~= "queued" then
	return 0
end
redis.call("HSET", KEYS[1], "status", "processing", "progress", "0")
if tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return 1
`)

// Store is a Redis-backed RecordStore.
type Store struct {
	client *goredis.Client
	ttl    time.Duration
}

var _ store.RecordStore = (*Store)(nil)

// New creates a record store on the given Redis client. A zero ttl
// disables record expiry.
func New(client *goredis.Client, ttl time.Duration) *Store {
	return &Store{client: client, ttl: ttl}
}

// Create persists a new job record hash. The write is pipelined with the
// TTL so the record is durably visible before Create returns.
func (s *Store) Create(ctx context.Context, job *models.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("invalid job record: %w", err)
	}

	key := jobKey(job.ID)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store/redis: create check exists: %w", err)
	}
	if exists > 0 {
		return store.ErrJobExists
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToMap(job))
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store/redis: create job: %w", err)
	}
	return nil
}

// Get retrieves the job record for the given ID.
func (s *Store) Get(ctx context.Context, id string) (*models.Job, error) {
	fields, err := s.client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("store/redis: get job: %w", err)
	}
	if len(fields) == 0 {
		return nil, store.ErrJobNotFound
	}
	return jobFromMap(id, fields)
}

// MarkProcessing claims a queued job for execution.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	res, err := claimScript.Run(ctx, s.client, []string{jobKey(id)}, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("store/redis: claim job: %w", err)
	}
	switch res {
	case 1:
		return nil
	case 0:
		return store.ErrNotClaimable
	default:
		return store.ErrJobNotFound
	}
}

// SetProgress updates the progress field of a processing job.
func (s *Store) SetProgress(ctx context.Context, id string, progress float64) error {
	if progress < 0.0 || progress > 1.0 {
		return fmt.Errorf("store/redis: progress out of range: %f", progress)
	}
	return s.setFields(ctx, id, map[string]interface{}{
		"progress": formatProgress(progress),
	})
}

// MarkCompleted finalizes a job with its result location.
func (s *Store) MarkCompleted(ctx context.Context, id, resultLocation string) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"status":          models.JobStatusCompleted.String(),
		"progress":        "1",
		"result_location": resultLocation,
	})
}

// MarkFailed finalizes a job with an error message.
func (s *Store) MarkFailed(ctx context.Context, id, errMsg string) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"status": models.JobStatusFailed.String(),
		"error":  errMsg,
	})
}

// Ping verifies the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("store/redis: ping: %w", err)
	}
	return nil
}

func (s *Store) setFields(ctx context.Context, id string, fields map[string]interface{}) error {
	key := jobKey(id)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store/redis: update check exists: %w", err)
	}
	if exists == 0 {
		return store.ErrJobNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store/redis: update job: %w", err)
	}
	return nil
}

func jobToMap(job *models.Job) map[string]interface{} {
	fields := map[string]interface{}{
		"status":     job.Status.String(),
		"progress":   formatProgress(job.Progress),
		"priority":   string(job.Priority),
		"created_at": job.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if job.ResultLocation != "" {
		fields["result_location"] = job.ResultLocation
	}
	if job.Error != "" {
		fields["error"] = job.Error
	}
	return fields
}

func jobFromMap(id string, fields map[string]string) (*models.Job, error) {
	status, err := models.ParseJobStatus(fields["status"])
	if err != nil {
		return nil, fmt.Errorf("store/redis: corrupt status for job %s: %w", id, err)
	}

	priority, err := models.ParseJobPriority(fields["priority"])
	if err != nil {
		return nil, fmt.Errorf("store/redis: corrupt priority for job %s: %w", id, err)
	}

	job := &models.Job{
		ID:             id,
		Status:         status,
		Priority:       priority,
		ResultLocation: fields["result_location"],
		Error:          fields["error"],
	}

	if raw := fields["progress"]; raw != "" {
		progress, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("store/redis: corrupt progress for job %s: %w", id, err)
		}
		job.Progress = progress
	}

	if raw := fields["created_at"]; raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("store/redis: corrupt created_at for job %s: %w", id, err)
		}
		job.CreatedAt = createdAt
	}

	return job, nil
}

func formatProgress(progress float64) string {
	return strconv.FormatFloat(progress, 'f', -1, 64)
}

// IsNotFound reports whether the error is the store's not-found sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrJobNotFound)
}
