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
)

func main() {
	cfg, logger := app.Bootstrap()
	defer logger.Sync()

	if cfg.LogMode != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flow, pm, err := app.NewFlow(ctx, cfg)
	if err != nil {
		logger.Fatal("❌ Failed to init Playwright", zap.Error(err))
	}
	defer pm.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.AutomationPort,
		Handler:           httpapi.NewAutomationRouter(httpapi.NewAutomationHandler(flow, logger)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("🚀 Automation service running", zap.String("port", cfg.HTTP.AutomationPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// an apply in progress may need the full navigation budget to wind down
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.Navigation)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("❌ Automation service stopped with error", zap.Error(err))
	}
	logger.Info("👋 Automation service stopped")
}
