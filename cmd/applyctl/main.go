package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/app"
	"go-openclaw-applier/internal/config"
)

func newRootCmd(cfg *config.Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "applyctl",
		Short:         "Drive job applications from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newRunCmd(cfg))
	root.AddCommand(newDetectCmd())
	root.AddCommand(newHealthCmd(cfg))
	root.AddCommand(newRenderCmd(cfg))
	return root
}

func main() {
	cfg, logger := app.Bootstrap()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(cfg).ExecuteContext(ctx); err != nil {
		logger.Error("❌ applyctl failed", zap.Error(err))
		_ = logger.Sync()
		stop()
		os.Exit(1)
	}
}
