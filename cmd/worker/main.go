package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/AfikDanan/DayZeroAI/internal/artifact"
	"github.com/AfikDanan/DayZeroAI/internal/config"
	"github.com/AfikDanan/DayZeroAI/internal/logging"
	"github.com/AfikDanan/DayZeroAI/internal/narration"
	"github.com/AfikDanan/DayZeroAI/internal/notify"
	"github.com/AfikDanan/DayZeroAI/internal/pipeline"
	"github.com/AfikDanan/DayZeroAI/internal/queue"
	"github.com/AfikDanan/DayZeroAI/internal/script"
	"github.com/AfikDanan/DayZeroAI/internal/slides"
	"github.com/AfikDanan/DayZeroAI/internal/store"
	"github.com/AfikDanan/DayZeroAI/internal/telemetry"
	"github.com/AfikDanan/DayZeroAI/internal/video"
	workerproc "github.com/AfikDanan/DayZeroAI/internal/worker"
)

func main() {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	st := store.New(cfg)
	defer st.Close()

	q := queue.NewRedisQueue(cfg)

	synth, err := narration.NewGoogleSynthesizer(ctx, cfg)
	if err != nil {
		logger.Fatal("init speech synthesizer", zap.Error(err))
	}
	defer synth.Close()

	sink, err := artifact.NewSink(ctx, cfg)
	if err != nil {
		logger.Fatal("init artifact sink", zap.Error(err))
	}

	orchestrator := pipeline.NewOrchestrator(
		cfg,
		st,
		script.NewGenerator(script.NewOpenAICompleter(cfg), logger),
		narration.NewRenderer(synth, logger),
		slides.NewRenderer(cfg, logger),
		video.NewComposer(sink, logger),
		notify.NewEmailNotifier(cfg, logger),
		logger,
	)

	go func() {
		if err := http.ListenAndServe(cfg.MetricsAddr, telemetry.Handler()); err != nil {
			logger.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	logger.Info("worker started",
		zap.Duration("visibility", cfg.VisibilityTimeout),
		zap.Duration("job_timeout", cfg.JobTimeout),
		zap.String("artifact_backend", cfg.ArtifactBackend),
	)

	processor := workerproc.NewProcessor(cfg, q, orchestrator, logger)
	if err := processor.Run(ctx); err != nil {
		logger.Info("worker stopped", zap.Error(err))
	}
}
