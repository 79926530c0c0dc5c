package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AfikDanan/DayZeroAI/internal/config"
)

// ErrQueueUnavailable wraps transport failures surfaced to intake.
var ErrQueueUnavailable = errors.New("work queue unavailable")

// RedisQueue coordinates the ready list, in-flight leases, and the
// dead-letter list for video jobs. The list element is the job id; the
// serialized descriptor and the attempt counter live in a per-job hash so
// redelivery keeps its history.
type RedisQueue struct {
	client        *redis.Client
	readyKey      string
	inflightKey   string
	descPrefix    string
	dlqKey        string
	visibilityTTL time.Duration
	descriptorTTL time.Duration
	maxAttempts   int
}

// NewRedisQueue builds a queue client from config.
func NewRedisQueue(cfg config.Config) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisQueueWithClient(client, cfg)
}

// NewRedisQueueWithClient wraps an existing client, mainly for tests.
func NewRedisQueueWithClient(client *redis.Client, cfg config.Config) *RedisQueue {
	visibility := cfg.VisibilityTimeout
	if visibility == 0 {
		visibility = 30 * time.Second
	}
	descriptorTTL := cfg.JobTTL
	if descriptorTTL == 0 {
		descriptorTTL = 24 * time.Hour
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts == 0 {
		maxAttempts = 3
	}
	dlq := cfg.DLQName
	if dlq == "" {
		dlq = "videojobs:dlq"
	}
	return &RedisQueue{
		client:        client,
		readyKey:      "videojobs:ready",
		inflightKey:   "videojobs:inflight",
		descPrefix:    "videojobs:descriptor:",
		dlqKey:        dlq,
		visibilityTTL: visibility,
		descriptorTTL: descriptorTTL,
		maxAttempts:   maxAttempts,
	}
}

func (q *RedisQueue) descKey(jobID string) string {
	return q.descPrefix + jobID
}

// Enqueue stores the descriptor and pushes the job onto the ready list.
func (q *RedisQueue) Enqueue(ctx context.Context, jobID string, descriptor []byte) error {
	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.descKey(jobID), "payload", descriptor, "attempts", 0)
	pipe.Expire(ctx, q.descKey(jobID), q.descriptorTTL)
	pipe.RPush(ctx, q.readyKey, jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrQueueUnavailable, err)
	}
	return nil
}

// DequeueWithLease pops a ready job and places it in-flight with a
// visibility deadline. Returns the empty string when no work is ready.
func (q *RedisQueue) DequeueWithLease(ctx context.Context) (string, error) {
	keys := []string{q.readyKey, q.inflightKey}
	res, err := dequeueScript.Run(ctx, q.client, keys, time.Now().Add(q.visibilityTTL).UnixMilli()).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	jobID, ok := res.(string)
	if !ok {
		return "", fmt.Errorf("unexpected type from dequeue script: %T", res)
	}
	return jobID, nil
}

// Descriptor returns the serialized descriptor stored at enqueue time.
func (q *RedisQueue) Descriptor(ctx context.Context, jobID string) ([]byte, error) {
	raw, err := q.client.HGet(ctx, q.descKey(jobID), "payload").Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("descriptor for job %s expired or missing", jobID)
	}
	if err != nil {
		return nil, err
	}
	return []byte(raw), nil
}

// ExtendLease pushes the visibility deadline forward for an in-flight job.
func (q *RedisQueue) ExtendLease(ctx context.Context, jobID string, extension time.Duration) error {
	return q.client.ZAdd(ctx, q.inflightKey, redis.Z{
		Score:  float64(time.Now().Add(extension).UnixMilli()),
		Member: jobID,
	}).Err()
}

// Ack removes a finished job from in-flight tracking and drops its descriptor.
func (q *RedisQueue) Ack(ctx context.Context, jobID string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.inflightKey, jobID)
	pipe.Del(ctx, q.descKey(jobID))
	_, err := pipe.Exec(ctx)
	return err
}

// Fail records a failed attempt. The job is re-queued until the attempt
// budget is spent, then dead-lettered. Returns true when dead-lettered.
func (q *RedisQueue) Fail(ctx context.Context, jobID string) (bool, error) {
	attempts, err := q.client.HIncrBy(ctx, q.descKey(jobID), "attempts", 1).Result()
	if err != nil {
		return false, err
	}

	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.inflightKey, jobID)
	if int(attempts) >= q.maxAttempts {
		pipe.RPush(ctx, q.dlqKey, jobID)
	} else {
		pipe.RPush(ctx, q.readyKey, jobID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return int(attempts) >= q.maxAttempts, nil
}

// RequeueExpired reclaims leases that timed out, making the jobs ready
// again. This is what turns a worker crash into at-least-once redelivery.
func (q *RedisQueue) RequeueExpired(ctx context.Context, now time.Time, limit int64) ([]string, error) {
	ids, err := q.client.ZRangeByScore(ctx, q.inflightKey, &redis.ZRangeBy{
		Min:    "-inf",
		Max:    fmt.Sprintf("%d", now.UnixMilli()),
		Offset: 0,
		Count:  limit,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := q.client.TxPipeline()
	for _, id := range ids {
		pipe.ZRem(ctx, q.inflightKey, id)
		pipe.RPush(ctx, q.readyKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}
	return ids, nil
}

// DLQPeek reads the oldest dead-lettered job IDs.
func (q *RedisQueue) DLQPeek(ctx context.Context, count int64) ([]string, error) {
	return q.client.LRange(ctx, q.dlqKey, 0, count-1).Result()
}

// ReadyDepth returns the length of the ready list.
func (q *RedisQueue) ReadyDepth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.readyKey).Result()
}

var dequeueScript = redis.NewScript(`
local job = redis.call('LPOP', KEYS[1])
if job then
  redis.call('ZADD', KEYS[2], ARGV[1], job)
  return job
end
return nil
`)
