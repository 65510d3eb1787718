package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-openclaw-applier/internal/app"
	"go-openclaw-applier/internal/queue"
)

func main() {
	cfg, logger := app.Bootstrap()
	defer logger.Sync()

	if !cfg.Queue.Enabled {
		logger.Fatal("❌ The worker needs queue.enabled=true; without a queue the server runs applications itself")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.NewStore(ctx, cfg)
	if err != nil {
		logger.Fatal("❌ Failed to open task store", zap.Error(err))
	}
	defer closeStore()

	engine, closeEngine, err := app.NewEngine(ctx, cfg)
	if err != nil {
		logger.Fatal("❌ Failed to init automation driver", zap.Error(err))
	}
	defer closeEngine()

	orch, err := app.NewOrchestrator(cfg, store, engine)
	if err != nil {
		logger.Fatal("❌ Failed to build orchestrator", zap.Error(err))
	}

	opt, err := app.QueueRedis(cfg)
	if err != nil {
		logger.Fatal("❌ Invalid queue settings", zap.Error(err))
	}
	worker := queue.NewWorker(opt, orch, cfg.Queue.Name, cfg.Concurrency)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Start(); err != nil {
			return err
		}
		logger.Info("🚀 Worker started",
			zap.String("queue", cfg.Queue.Name),
			zap.Int("concurrency", cfg.Concurrency),
			zap.String("driver", cfg.Driver),
		)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// Shutdown waits for in-flight runs up to asynq's shutdown timeout.
		worker.Shutdown()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("❌ Worker stopped with error", zap.Error(err))
	}
	orch.WaitNotifications()
	logger.Info("👋 Worker stopped")
}
