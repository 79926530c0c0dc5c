package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/models"
	"github.com/AfikDanan/DayZeroAI/internal/narration"
	"github.com/AfikDanan/DayZeroAI/internal/store"
	"github.com/AfikDanan/DayZeroAI/internal/telemetry"
	"github.com/AfikDanan/DayZeroAI/internal/video"
)

// The four content stages, in their fixed execution order.
type ScriptStage interface {
	Generate(ctx context.Context, emp models.Employee) (models.Script, error)
}

type NarrationStage interface {
	Render(ctx context.Context, script models.Script, workDir string) (narration.Result, error)
}

type VisualStage interface {
	Render(ctx context.Context, emp models.Employee, workDir string) ([]string, error)
}

type ComposeStage interface {
	Compose(ctx context.Context, in video.Input) (string, error)
}

// Notifier is best-effort by contract; its methods never report failure.
type Notifier interface {
	NotifySuccess(ctx context.Context, recipient, name, videoURL string)
	NotifyFailure(ctx context.Context, recipient, name, errorDetail string)
}

// Orchestrator owns the per-job lifecycle: it drives the stages in order,
// keeps the job record current across transitions, and triggers
// notification on either terminal outcome. Stage side effects live in a
// per-job working directory that is removed whichever way the job ends.
type Orchestrator struct {
	store     *store.Store
	script    ScriptStage
	narration NarrationStage
	visual    VisualStage
	compose   ComposeStage
	notifier  Notifier
	tempDir   string
	devDir    string
	log       *zap.Logger
}

func NewOrchestrator(
	cfg config.Config,
	st *store.Store,
	script ScriptStage,
	narr NarrationStage,
	visual VisualStage,
	compose ComposeStage,
	notifier Notifier,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		store:     st,
		script:    script,
		narration: narr,
		visual:    visual,
		compose:   compose,
		notifier:  notifier,
		tempDir:   cfg.TempDir,
		devDir:    cfg.DevOutputDir,
		log:       log,
	}
}

// Process runs one pipeline attempt for a dequeued descriptor. The
// returned error is the signal the queue layer uses to decide redelivery;
// the job record is already terminal by the time it propagates.
func (o *Orchestrator) Process(ctx context.Context, desc models.JobDescriptor) error {
	log := o.log.With(zap.String("job_id", desc.JobID))
	log.Info("processing job", zap.String("employee_id", desc.Employee.EmployeeID))

	if err := o.markProcessing(ctx, desc); err != nil {
		return err
	}

	// Workspace trouble is a worker problem, not a stage failure; let the
	// queue redeliver instead of recording it against the job.
	workDir := filepath.Join(o.tempDir, desc.JobID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return fmt.Errorf("prepare workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	start := time.Now()
	script, err := o.script.Generate(ctx, desc.Employee)
	telemetry.StageDuration.WithLabelValues(StageScript).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.fail(ctx, desc, StageScript, err)
	}
	o.keepScriptForDev(desc, script)

	start = time.Now()
	narr, err := o.narration.Render(ctx, script, workDir)
	telemetry.StageDuration.WithLabelValues(StageNarration).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.fail(ctx, desc, StageNarration, err)
	}

	start = time.Now()
	slidePaths, err := o.visual.Render(ctx, desc.Employee, workDir)
	telemetry.StageDuration.WithLabelValues(StageVisual).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.fail(ctx, desc, StageVisual, err)
	}

	start = time.Now()
	url, err := o.compose.Compose(ctx, video.Input{
		JobID:             desc.JobID,
		WorkDir:           workDir,
		Slides:            slidePaths,
		NarrationPath:     narr.Path,
		NarrationDuration: narr.Duration,
	})
	telemetry.StageDuration.WithLabelValues(StageCompose).Observe(time.Since(start).Seconds())
	if err != nil {
		return o.fail(ctx, desc, StageCompose, err)
	}

	if err := o.store.Update(ctx, desc.JobID, store.Update{
		Status:   models.StatusCompleted,
		VideoURL: url,
	}); err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	telemetry.JobsCompleted.Inc()

	o.notifier.NotifySuccess(ctx, desc.Employee.Email, desc.Employee.Name, url)
	log.Info("job completed", zap.String("video_url", url))
	return nil
}

// markProcessing sets the processing status, recreating the record when a
// redelivery arrives after the original record's TTL elapsed.
func (o *Orchestrator) markProcessing(ctx context.Context, desc models.JobDescriptor) error {
	err := o.store.Update(ctx, desc.JobID, store.Update{Status: models.StatusProcessing})
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if err := o.store.Create(ctx, models.Job{
		ID:         desc.JobID,
		EmployeeID: desc.Employee.EmployeeID,
		Status:     models.StatusProcessing,
	}); err != nil {
		return fmt.Errorf("recreate expired record: %w", err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, desc models.JobDescriptor, stage string, cause error) error {
	stageErr := &StageError{Stage: stage, Err: cause}
	if err := o.store.Update(ctx, desc.JobID, store.Update{
		Status:       models.StatusFailed,
		ErrorMessage: stageErr.Error(),
	}); err != nil {
		o.log.Error("failed to mark job failed",
			zap.String("job_id", desc.JobID),
			zap.Error(err),
		)
	}
	telemetry.JobsFailed.Inc()

	o.notifier.NotifyFailure(ctx, desc.Employee.Email, desc.Employee.Name, stageErr.Error())
	o.log.Error("job failed",
		zap.String("job_id", desc.JobID),
		zap.String("stage", stage),
		zap.Error(cause),
	)
	return stageErr
}

// keepScriptForDev writes the parsed script to the dev output directory
// for review. Enabled only when DEV_OUTPUT_DIR is set.
func (o *Orchestrator) keepScriptForDev(desc models.JobDescriptor, script models.Script) {
	if o.devDir == "" {
		return
	}
	dir := filepath.Join(o.devDir, desc.JobID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return
	}
	var sb []byte
	for i, line := range script {
		sb = append(sb, fmt.Sprintf("%d. %s: %s\n", i+1, line.Speaker, line.Text)...)
	}
	_ = os.WriteFile(filepath.Join(dir, "script.txt"), sb, 0o644)
}
