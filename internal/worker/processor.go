package worker

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
	"github.com/AfikDanan/DayZeroAI/internal/queue"
	"github.com/AfikDanan/DayZeroAI/internal/telemetry"
)

// Runner executes one pipeline attempt for a descriptor.
type Runner interface {
	Process(ctx context.Context, desc models.JobDescriptor) error
}

// Processor drives the worker execution loop: reclaim expired leases, pull
// one job, run it start to finish, then pull the next. One job at a time
// per worker; parallelism comes from running more worker processes.
type Processor struct {
	cfg    config.Config
	queue  *queue.RedisQueue
	runner Runner
	log    *zap.Logger
}

func NewProcessor(cfg config.Config, q *queue.RedisQueue, runner Runner, log *zap.Logger) *Processor {
	return &Processor{cfg: cfg, queue: q, runner: runner, log: log}
}

// Run blocks until context cancellation.
func (p *Processor) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if reclaimed, err := p.queue.RequeueExpired(ctx, time.Now(), 100); err == nil && len(reclaimed) > 0 {
			telemetry.InFlightGauge.Sub(float64(len(reclaimed)))
			p.log.Warn("reclaimed expired leases", zap.Strings("job_ids", reclaimed))
		}
		if depth, err := p.queue.ReadyDepth(ctx); err == nil {
			telemetry.QueueDepthGauge.Set(float64(depth))
		}

		jobID, err := p.queue.DequeueWithLease(ctx)
		if err != nil || jobID == "" {
			if err != nil {
				p.log.Warn("dequeue failed", zap.Error(err))
			}
			sleepCtx(ctx, p.cfg.WorkerPollInterval)
			continue
		}

		p.handle(ctx, jobID)
	}
}

func (p *Processor) handle(ctx context.Context, jobID string) {
	raw, err := p.queue.Descriptor(ctx, jobID)
	if err != nil {
		// Nothing to run without a descriptor; drop the lease.
		p.log.Warn("descriptor missing, dropping job", zap.String("job_id", jobID), zap.Error(err))
		_ = p.queue.Ack(ctx, jobID)
		return
	}

	var desc models.JobDescriptor
	if err := json.Unmarshal(raw, &desc); err != nil {
		p.log.Error("undecodable descriptor, dropping job", zap.String("job_id", jobID), zap.Error(err))
		_ = p.queue.Ack(ctx, jobID)
		return
	}

	// Hold the lease for the whole attempt ceiling; a worker crash hands
	// the job back via RequeueExpired. If the extension fails the job keeps
	// running under the short visibility window and may be redelivered
	// mid-attempt, so make that visible.
	if err := p.queue.ExtendLease(ctx, jobID, p.cfg.JobTimeout); err != nil {
		p.log.Warn("lease extension failed",
			zap.String("job_id", jobID),
			zap.Error(err),
		)
	}
	telemetry.InFlightGauge.Inc()
	defer telemetry.InFlightGauge.Dec()

	runCtx, cancel := context.WithTimeout(ctx, p.cfg.JobTimeout)
	err = p.runner.Process(runCtx, desc)
	cancel()

	if err == nil {
		_ = p.queue.Ack(ctx, jobID)
		return
	}

	deadLettered, qerr := p.queue.Fail(ctx, jobID)
	if qerr != nil {
		p.log.Error("failed to record attempt", zap.String("job_id", jobID), zap.Error(qerr))
		return
	}
	if deadLettered {
		telemetry.JobsDeadLetter.Inc()
		p.log.Error("job dead-lettered", zap.String("job_id", jobID), zap.Error(err))
	}
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
