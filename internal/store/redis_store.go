package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
)

var (
	// ErrDuplicateJob is returned by Create when the identifier is taken.
	ErrDuplicateJob = errors.New("job already exists")
	// ErrNotFound is returned when a record is absent or its TTL elapsed.
	ErrNotFound = errors.New("job not found")
)

const jobKeyPrefix = "job:"

// Store keeps one hash per job in Redis. Records expire after the retention
// window; every write pushes the TTL back to the full window. Each job is
// written by a single owner at a time (intake once, then the one worker
// holding the lease), so no cross-key transactions are needed.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// New builds a record store from config.
func New(cfg config.Config) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewWithClient(client, cfg.JobTTL)
}

// NewWithClient wraps an existing client, mainly for tests.
func NewWithClient(client *redis.Client, ttl time.Duration) *Store {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Store{client: client, ttl: ttl}
}

func (s *Store) Close() error {
	return s.client.Close()
}

func jobKey(id string) string {
	return jobKeyPrefix + id
}

// Create inserts a fresh record at status queued.
func (s *Store) Create(ctx context.Context, job models.Job) error {
	key := jobKey(job.ID)

	// HSETNX on the id field doubles as the existence check.
	created, err := s.client.HSetNX(ctx, key, "job_id", job.ID).Result()
	if err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	if !created {
		return fmt.Errorf("create job %s: %w", job.ID, ErrDuplicateJob)
	}

	if job.Status == "" {
		job.Status = models.StatusQueued
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]any{
		"employee_id": job.EmployeeID,
		"status":      job.Status,
		"created_at":  job.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  now.Format(time.RFC3339Nano),
	})
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create job %s: %w", job.ID, err)
	}
	return nil
}

// Update holds the partial fields merged into a record. Zero values are
// left untouched except where the status transition implies them.
type Update struct {
	Status       string
	VideoURL     string
	ErrorMessage string
}

// Update merges fields into an existing record and refreshes the TTL.
// Terminal transitions stamp completed_at; non-terminal transitions clear
// it, along with any prior attempt's error, so a redelivered job reads as
// cleanly processing. video_url and error_message displace each other so
// the record never carries both.
func (s *Store) Update(ctx context.Context, jobID string, u Update) error {
	key := jobKey(jobID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	if exists == 0 {
		return fmt.Errorf("update job %s: %w", jobID, ErrNotFound)
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	fields := map[string]any{"updated_at": now}
	var clear []string
	if u.Status != "" {
		fields["status"] = u.Status
		if models.TerminalStatus(u.Status) {
			fields["completed_at"] = now
		} else {
			clear = append(clear, "completed_at", "error_message")
		}
	}
	if u.VideoURL != "" {
		fields["video_url"] = u.VideoURL
		clear = append(clear, "error_message")
	}
	if u.ErrorMessage != "" {
		fields["error_message"] = u.ErrorMessage
		clear = append(clear, "video_url")
	}

	pipe := s.client.TxPipeline()
	if len(clear) > 0 {
		pipe.HDel(ctx, key, clear...)
	}
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update job %s: %w", jobID, err)
	}
	return nil
}

// Get fetches the current record.
func (s *Store) Get(ctx context.Context, jobID string) (models.Job, error) {
	data, err := s.client.HGetAll(ctx, jobKey(jobID)).Result()
	if err != nil {
		return models.Job{}, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if len(data) == 0 {
		return models.Job{}, fmt.Errorf("get job %s: %w", jobID, ErrNotFound)
	}

	job := models.Job{
		ID:           data["job_id"],
		EmployeeID:   data["employee_id"],
		Status:       data["status"],
		VideoURL:     data["video_url"],
		ErrorMessage: data["error_message"],
	}
	job.CreatedAt = parseTime(data["created_at"])
	job.UpdatedAt = parseTime(data["updated_at"])
	if raw, ok := data["completed_at"]; ok && raw != "" {
		t := parseTime(raw)
		job.CompletedAt = &t
	}
	return job, nil
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
