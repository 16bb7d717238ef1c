package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/freightlink/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Redis key layout: <prefix>queue:<name> is a list of envelopes,
// <prefix>delayed:<name> a sorted set scored by run time,
// <prefix>processing:<name> and <prefix>failed:<name> hashes keyed by job id.
const (
	queuePrefix      = "queue:"
	delayedPrefix    = "delayed:"
	processingPrefix = "processing:"
	failedPrefix     = "failed:"
)

// RedisQueue is an at-least-once job queue on Redis. When a database is
// attached every job also gets an audit row in the jobs table.
type RedisQueue struct {
	client redis.Cmdable
	db     *gorm.DB
	prefix string
}

// NewRedisQueue creates a new Redis queue. db may be nil.
func NewRedisQueue(client redis.Cmdable, db *gorm.DB, keyPrefix string) *RedisQueue {
	return &RedisQueue{
		client: client,
		db:     db,
		prefix: keyPrefix,
	}
}

func (q *RedisQueue) key(kind, queueName string) string {
	return q.prefix + kind + queueName
}

// Enqueue adds a job to the queue
func (q *RedisQueue) Enqueue(ctx context.Context, queueName string, payload interface{}, opts ...EnqueueOption) (string, error) {
	options := buildOptions(opts)

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	now := time.Now().UTC()
	env := &Envelope{
		ID:         options.jobID,
		Queue:      queueName,
		Payload:    payloadBytes,
		MaxRetries: options.maxRetry,
		EnqueuedAt: now,
		RunAt:      now.Add(options.delay),
	}
	if env.ID == "" {
		env.ID = uuid.NewString()
	}

	q.audit(ctx, env, models.JobStatusPending, "")

	if options.delay > 0 {
		err = q.schedule(ctx, env)
	} else {
		err = q.push(ctx, env)
	}
	if err != nil {
		return "", err
	}
	return env.ID, nil
}

func (q *RedisQueue) push(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key(queuePrefix, env.Queue), data).Err(); err != nil {
		return fmt.Errorf("failed to add job to queue: %w", err)
	}
	return nil
}

func (q *RedisQueue) schedule(ctx context.Context, env *Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.ZAdd(ctx, q.key(delayedPrefix, env.Queue), &redis.Z{
		Score:  float64(env.RunAt.Unix()),
		Member: data,
	}).Err(); err != nil {
		return fmt.Errorf("failed to add job to delayed queue: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next job. It returns nil, nil when
// the queue stayed empty.
func (q *RedisQueue) Dequeue(ctx context.Context, queueName string, timeout time.Duration) (*Envelope, error) {
	q.moveReadyDelayedJobs(ctx, queueName)

	result, err := q.client.BRPop(ctx, timeout, q.key(queuePrefix, queueName)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error popping job from queue %s: %w", queueName, err)
	}
	if len(result) < 2 {
		return nil, fmt.Errorf("invalid result from BRPOP for queue %s", queueName)
	}

	var env Envelope
	if err := json.Unmarshal([]byte(result[1]), &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	env.DequeuedAt = time.Now().UTC()
	tracked, err := json.Marshal(&env)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.HSet(ctx, q.key(processingPrefix, queueName), env.ID, tracked).Err(); err != nil {
		log.Printf("[queue] warning: failed to track job %s as processing: %v", env.ID, err)
	}
	q.audit(ctx, &env, models.JobStatusProcessing, "")

	return &env, nil
}

// moveReadyDelayedJobs moves due delayed jobs onto the main list
func (q *RedisQueue) moveReadyDelayedJobs(ctx context.Context, queueName string) {
	delayedKey := q.key(delayedPrefix, queueName)

	jobs, err := q.client.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "0",
		Max: strconv.FormatInt(time.Now().Unix(), 10),
	}).Result()
	if err != nil {
		log.Printf("[queue] error reading delayed jobs for %s: %v", queueName, err)
		return
	}

	for _, data := range jobs {
		// only the worker that removes the member moves it
		removed, err := q.client.ZRem(ctx, delayedKey, data).Result()
		if err != nil || removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.key(queuePrefix, queueName), data).Err(); err != nil {
			log.Printf("[queue] error moving delayed job to %s: %v", queueName, err)
		}
	}
}

// Complete marks a job as done
func (q *RedisQueue) Complete(ctx context.Context, env *Envelope) error {
	if err := q.client.HDel(ctx, q.key(processingPrefix, env.Queue), env.ID).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing set: %w", err)
	}
	q.audit(ctx, env, models.JobStatusCompleted, "")
	return nil
}

// Fail reschedules a job with backoff or, once its retries are used up,
// parks it in the failed hash for manual inspection
func (q *RedisQueue) Fail(ctx context.Context, env *Envelope, jobErr error) error {
	if err := q.client.HDel(ctx, q.key(processingPrefix, env.Queue), env.ID).Err(); err != nil {
		return fmt.Errorf("failed to remove job from processing set: %w", err)
	}

	if jobErr != nil {
		env.LastError = jobErr.Error()
	}
	env.RetryCount++

	if env.RetryCount < env.MaxRetries {
		env.RunAt = time.Now().UTC().Add(calculateBackoff(env.RetryCount))
		if err := q.schedule(ctx, env); err != nil {
			return err
		}
		q.audit(ctx, env, models.JobStatusPending, env.LastError)
		return nil
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}
	if err := q.client.HSet(ctx, q.key(failedPrefix, env.Queue), env.ID, data).Err(); err != nil {
		return fmt.Errorf("failed to add job to failed set: %w", err)
	}
	q.audit(ctx, env, models.JobStatusFailed, env.LastError)
	log.Printf("[queue] job %s on %s failed permanently after %d attempts: %s", env.ID, env.Queue, env.RetryCount, env.LastError)
	return nil
}

// Stats gets statistics for a queue
func (q *RedisQueue) Stats(ctx context.Context, queueName string) (*QueueStats, error) {
	stats := &QueueStats{Queue: queueName}

	var err error
	if stats.Waiting, err = q.client.LLen(ctx, q.key(queuePrefix, queueName)).Result(); err != nil {
		return nil, fmt.Errorf("failed to get waiting count: %w", err)
	}
	if stats.Delayed, err = q.client.ZCard(ctx, q.key(delayedPrefix, queueName)).Result(); err != nil {
		return nil, fmt.Errorf("failed to get delayed count: %w", err)
	}
	if stats.Processing, err = q.client.HLen(ctx, q.key(processingPrefix, queueName)).Result(); err != nil {
		return nil, fmt.Errorf("failed to get processing count: %w", err)
	}
	if stats.Failed, err = q.client.HLen(ctx, q.key(failedPrefix, queueName)).Result(); err != nil {
		return nil, fmt.Errorf("failed to get failed count: %w", err)
	}
	return stats, nil
}

// RequeueStale pushes jobs that have sat in the processing hash for longer
// than olderThan back onto the queue. A worker that dies between BRPOP and
// Complete/Fail leaves its job there; this sweep is what makes delivery
// at-least-once in that case. It returns the number of jobs requeued.
func (q *RedisQueue) RequeueStale(ctx context.Context, queueName string, olderThan time.Duration) (int, error) {
	processingKey := q.key(processingPrefix, queueName)

	entries, err := q.client.HGetAll(ctx, processingKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read processing jobs for %s: %w", queueName, err)
	}

	cutoff := time.Now().UTC().Add(-olderThan)
	requeued := 0
	for id, data := range entries {
		var env Envelope
		if err := json.Unmarshal([]byte(data), &env); err != nil {
			log.Printf("[queue] dropping unreadable processing entry %s on %s: %v", id, queueName, err)
			q.client.HDel(ctx, processingKey, id)
			continue
		}
		// entries without a dequeue time predate tracking and count as stale
		if !env.DequeuedAt.IsZero() && env.DequeuedAt.After(cutoff) {
			continue
		}

		// only the sweeper that removes the entry requeues it
		removed, err := q.client.HDel(ctx, processingKey, id).Result()
		if err != nil || removed == 0 {
			continue
		}

		env.DequeuedAt = time.Time{}
		if err := q.push(ctx, &env); err != nil {
			return requeued, err
		}
		q.audit(ctx, &env, models.JobStatusPending, "requeued after stalled processing")
		requeued++
	}

	if requeued > 0 {
		log.Printf("[queue] requeued %d stalled jobs on %s", requeued, queueName)
	}
	return requeued, nil
}

// audit mirrors the job state into the jobs table. Failures are logged only.
func (q *RedisQueue) audit(ctx context.Context, env *Envelope, status models.JobStatus, errMsg string) {
	if q.db == nil {
		return
	}
	id, err := uuid.Parse(env.ID)
	if err != nil {
		// caller-supplied ids map to a stable row id
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(env.ID))
	}

	now := time.Now().UTC()
	job := models.Job{
		ID:         id,
		Queue:      env.Queue,
		Payload:    env.Payload,
		Status:     status,
		RetryCount: env.RetryCount,
		MaxRetries: env.MaxRetries,
		Error:      errMsg,
	}
	switch status {
	case models.JobStatusPending:
		if env.RetryCount > 0 {
			job.NextRetry = &env.RunAt
		}
	case models.JobStatusCompleted:
		job.CompletedAt = &now
	}

	err = q.db.WithContext(ctx).
		Where(models.Job{ID: id}).
		Assign(map[string]interface{}{
			"status":       job.Status,
			"retry_count":  job.RetryCount,
			"next_retry":   job.NextRetry,
			"error":        job.Error,
			"completed_at": job.CompletedAt,
			"updated_at":   now,
		}).
		FirstOrCreate(&job).Error
	if err != nil {
		log.Printf("[queue] warning: failed to audit job %s: %v", env.ID, err)
	}
}
