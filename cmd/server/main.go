package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-openclaw-applier/internal/app"
	"go-openclaw-applier/internal/httpapi"
	"go-openclaw-applier/internal/orchestrator"
	"go-openclaw-applier/internal/queue"
)

func main() {
	cfg, logger := app.Bootstrap()
	defer logger.Sync()

	if cfg.LogMode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := app.NewStore(ctx, cfg)
	if err != nil {
		logger.Fatal("❌ Failed to open task store", zap.Error(err))
	}
	defer closeStore()

	// In-process runs keep going after a shutdown signal until they finish.
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()

	var orch *orchestrator.Orchestrator
	var inProcess *orchestrator.GoroutineDispatcher
	if cfg.Queue.Enabled {
		opt, err := app.QueueRedis(cfg)
		if err != nil {
			logger.Fatal("❌ Invalid queue settings", zap.Error(err))
		}
		d := queue.NewDispatcher(opt, cfg.Queue.Name, cfg.Timeouts.TaskDeadline)
		defer d.Close()

		// runs happen in cmd/worker; this process only records and enqueues
		orch, err = app.NewOrchestrator(cfg, store, nil)
		if err != nil {
			logger.Fatal("❌ Failed to build orchestrator", zap.Error(err))
		}
		orch.UseDispatcher(d)
		logger.Info("📬 Dispatching applications through asynq", zap.String("queue", cfg.Queue.Name))
	} else {
		engine, closeEngine, err := app.NewEngine(ctx, cfg)
		if err != nil {
			logger.Fatal("❌ Failed to init automation driver", zap.Error(err))
		}
		defer closeEngine()

		orch, err = app.NewOrchestrator(cfg, store, engine)
		if err != nil {
			logger.Fatal("❌ Failed to build orchestrator", zap.Error(err))
		}
		inProcess = orchestrator.NewGoroutineDispatcher(runCtx, orch, cfg.Concurrency)
		orch.UseDispatcher(inProcess)
		logger.Info("⚙️ Running applications in-process", zap.Int("concurrency", cfg.Concurrency))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           httpapi.NewTaskRouter(httpapi.NewTaskHandler(store, orch, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Server listening", zap.String("port", cfg.HTTP.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("❌ Server stopped with error", zap.Error(err))
	}
	if inProcess != nil {
		logger.Info("⏳ Waiting for in-flight applications")
		inProcess.Wait()
	}
	orch.WaitNotifications()
	logger.Info("👋 Server stopped")
}
