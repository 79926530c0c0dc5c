package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/AfikDanan/DayZeroAI/internal/config"
)

func newTestQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	cfg := config.Config{
		VisibilityTimeout: 30 * time.Second,
		JobTTL:            24 * time.Hour,
		MaxAttempts:       3,
	}
	return NewRedisQueueWithClient(client, cfg), mr
}

func TestEnqueueDequeueAck(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "j1", []byte(`{"job_id":"j1"}`)); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	depth, err := q.ReadyDepth(ctx)
	if err != nil || depth != 1 {
		t.Fatalf("ReadyDepth = %d, %v", depth, err)
	}

	jobID, err := q.DequeueWithLease(ctx)
	if err != nil {
		t.Fatalf("DequeueWithLease: %v", err)
	}
	if jobID != "j1" {
		t.Fatalf("dequeued %q", jobID)
	}

	// The lease moved the job out of ready without losing it.
	if depth, _ = q.ReadyDepth(ctx); depth != 0 {
		t.Fatalf("ready depth after dequeue = %d", depth)
	}

	payload, err := q.Descriptor(ctx, "j1")
	if err != nil {
		t.Fatalf("Descriptor: %v", err)
	}
	if string(payload) != `{"job_id":"j1"}` {
		t.Fatalf("payload = %s", payload)
	}

	if err := q.Ack(ctx, "j1"); err != nil {
		t.Fatalf("Ack: %v", err)
	}
	if _, err := q.Descriptor(ctx, "j1"); err == nil {
		t.Fatal("descriptor should be gone after ack")
	}
}

func TestDequeueEmpty(t *testing.T) {
	q, _ := newTestQueue(t)

	jobID, err := q.DequeueWithLease(context.Background())
	if err != nil {
		t.Fatalf("DequeueWithLease: %v", err)
	}
	if jobID != "" {
		t.Fatalf("dequeued %q from empty queue", jobID)
	}
}

func TestFailRequeuesUntilAttemptsExhausted(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "j1", []byte("payload")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// Attempts 1 and 2 go back to ready; attempt 3 dead-letters.
	for attempt := 1; attempt <= 3; attempt++ {
		jobID, err := q.DequeueWithLease(ctx)
		if err != nil || jobID != "j1" {
			t.Fatalf("attempt %d dequeue: %q, %v", attempt, jobID, err)
		}
		deadLettered, err := q.Fail(ctx, "j1")
		if err != nil {
			t.Fatalf("attempt %d Fail: %v", attempt, err)
		}
		if want := attempt == 3; deadLettered != want {
			t.Fatalf("attempt %d deadLettered = %v, want %v", attempt, deadLettered, want)
		}
	}

	if depth, _ := q.ReadyDepth(ctx); depth != 0 {
		t.Fatalf("dead-lettered job still ready, depth = %d", depth)
	}
	dlq, err := q.DLQPeek(ctx, 10)
	if err != nil {
		t.Fatalf("DLQPeek: %v", err)
	}
	if len(dlq) != 1 || dlq[0] != "j1" {
		t.Fatalf("dlq = %v", dlq)
	}
}

func TestRequeueExpiredReclaimsLease(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "j1", []byte("payload")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("DequeueWithLease: %v", err)
	}

	// Before the deadline nothing is reclaimed.
	ids, err := q.RequeueExpired(ctx, time.Now(), 10)
	if err != nil {
		t.Fatalf("RequeueExpired: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("reclaimed live lease: %v", ids)
	}

	// Past the visibility deadline the job becomes ready again.
	ids, err = q.RequeueExpired(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("RequeueExpired: %v", err)
	}
	if len(ids) != 1 || ids[0] != "j1" {
		t.Fatalf("reclaimed = %v", ids)
	}
	if depth, _ := q.ReadyDepth(ctx); depth != 1 {
		t.Fatalf("ready depth = %d", depth)
	}

	// Redelivery hands out the same job with its descriptor intact.
	jobID, err := q.DequeueWithLease(ctx)
	if err != nil || jobID != "j1" {
		t.Fatalf("redelivery: %q, %v", jobID, err)
	}
	if _, err := q.Descriptor(ctx, "j1"); err != nil {
		t.Fatalf("descriptor lost across redelivery: %v", err)
	}
}

func TestExtendLease(t *testing.T) {
	q, _ := newTestQueue(t)
	ctx := context.Background()

	if err := q.Enqueue(ctx, "j1", []byte("payload")); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if _, err := q.DequeueWithLease(ctx); err != nil {
		t.Fatalf("DequeueWithLease: %v", err)
	}
	if err := q.ExtendLease(ctx, "j1", 10*time.Minute); err != nil {
		t.Fatalf("ExtendLease: %v", err)
	}

	// A reclaim sweep shortly after the original deadline finds nothing.
	ids, err := q.RequeueExpired(ctx, time.Now().Add(time.Minute), 10)
	if err != nil {
		t.Fatalf("RequeueExpired: %v", err)
	}
	if len(ids) != 0 {
		t.Fatalf("extended lease reclaimed: %v", ids)
	}
}
