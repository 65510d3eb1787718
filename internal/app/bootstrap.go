package app

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"go-openclaw-applier/internal/config"
)

// Bootstrap loads the config and installs the global zap logger. Binaries
// exit on error since nothing useful can run without either.
func Bootstrap() (*config.Config, *zap.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ could not build logger: %v\n", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	logger.Info("🔧 Config loaded",
		zap.String("driver", cfg.Driver),
		zap.String("store", cfg.Store.Kind),
		zap.Bool("queue", cfg.Queue.Enabled),
	)
	return cfg, logger
}
