package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AfikDanan/DayZeroAI/internal/models"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client, 24*time.Hour), mr
}

func TestCreateAndGet(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	job, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.ID != "j1" || job.EmployeeID != "emp-1" {
		t.Fatalf("got %+v", job)
	}
	if job.Status != models.StatusQueued {
		t.Fatalf("status = %s, want %s", job.Status, models.StatusQueued)
	}
	if job.CreatedAt.IsZero() || job.UpdatedAt.IsZero() {
		t.Fatal("timestamps not stamped")
	}
	if job.CompletedAt != nil {
		t.Fatal("fresh record should have no completion time")
	}

	if ttl := mr.TTL("job:j1"); ttl <= 0 || ttl > 24*time.Hour {
		t.Fatalf("record ttl = %v", ttl)
	}
}

func TestCreateDuplicate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-2"})
	if !errors.Is(err, ErrDuplicateJob) {
		t.Fatalf("err = %v, want ErrDuplicateJob", err)
	}

	// The original record survives the rejected insert.
	job, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.EmployeeID != "emp-1" {
		t.Fatalf("employee overwritten: %s", job.EmployeeID)
	}
}

func TestUpdateUnknownJob(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.Update(context.Background(), "ghost", Update{Status: models.StatusProcessing})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestGetUnknownJob(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "ghost")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCompletionStampsAndClearsError(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, "j1", Update{Status: models.StatusFailed, ErrorMessage: "tts unavailable"}); err != nil {
		t.Fatalf("fail update: %v", err)
	}

	job, _ := s.Get(ctx, "j1")
	if job.ErrorMessage != "tts unavailable" {
		t.Fatalf("error message = %q", job.ErrorMessage)
	}
	if job.CompletedAt == nil {
		t.Fatal("failed is terminal, completed_at should be set")
	}

	// A successful redelivery overwrites the failure.
	if err := s.Update(ctx, "j1", Update{Status: models.StatusCompleted, VideoURL: "http://host/videos/j1.mp4"}); err != nil {
		t.Fatalf("complete update: %v", err)
	}
	job, _ = s.Get(ctx, "j1")
	if job.Status != models.StatusCompleted {
		t.Fatalf("status = %s", job.Status)
	}
	if job.VideoURL != "http://host/videos/j1.mp4" {
		t.Fatalf("video_url = %q", job.VideoURL)
	}
	if job.ErrorMessage != "" {
		t.Fatalf("error message not cleared: %q", job.ErrorMessage)
	}
	if job.CompletedAt == nil {
		t.Fatal("completed_at missing")
	}
}

func TestReprocessingClearsTerminalFields(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, "j1", Update{Status: models.StatusFailed, ErrorMessage: "script stage: boom"}); err != nil {
		t.Fatalf("fail update: %v", err)
	}

	// Redelivery moves the record back to processing; nothing of the
	// failed attempt may survive the transition.
	if err := s.Update(ctx, "j1", Update{Status: models.StatusProcessing}); err != nil {
		t.Fatalf("processing update: %v", err)
	}

	job, err := s.Get(ctx, "j1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if job.Status != models.StatusProcessing {
		t.Fatalf("status = %s", job.Status)
	}
	if job.CompletedAt != nil {
		t.Fatalf("completed_at survived a non-terminal transition: %v", job.CompletedAt)
	}
	if job.ErrorMessage != "" {
		t.Fatalf("stale error leaked into reprocessing record: %q", job.ErrorMessage)
	}
}

func TestErrorClearsVideoURL(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := s.Update(ctx, "j1", Update{Status: models.StatusCompleted, VideoURL: "http://host/videos/j1.mp4"}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.Update(ctx, "j1", Update{Status: models.StatusFailed, ErrorMessage: "encoder crashed"}); err != nil {
		t.Fatalf("fail: %v", err)
	}

	job, _ := s.Get(ctx, "j1")
	if job.VideoURL != "" {
		t.Fatalf("video_url not cleared: %q", job.VideoURL)
	}
	if job.ErrorMessage != "encoder crashed" {
		t.Fatalf("error message = %q", job.ErrorMessage)
	}
}

func TestUpdateRefreshesTTL(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(12 * time.Hour)
	if err := s.Update(ctx, "j1", Update{Status: models.StatusProcessing}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if ttl := mr.TTL("job:j1"); ttl < 23*time.Hour {
		t.Fatalf("ttl not refreshed: %v", ttl)
	}
}

func TestRecordExpires(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, models.Job{ID: "j1", EmployeeID: "emp-1"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	mr.FastForward(25 * time.Hour)

	_, err := s.Get(ctx, "j1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired record: err = %v, want ErrNotFound", err)
	}
}
