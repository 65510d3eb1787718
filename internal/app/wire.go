// Package app builds the runtime components named in a config.Config.
package app

import (
	"context"
	"fmt"
	"os"

	"github.com/hibiken/asynq"
	"github.com/playwright-community/playwright-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/applier"
	"go-openclaw-applier/internal/browser"
	"go-openclaw-applier/internal/config"
	"go-openclaw-applier/internal/database"
	"go-openclaw-applier/internal/notify"
	"go-openclaw-applier/internal/orchestrator"
	"go-openclaw-applier/internal/remote"
	"go-openclaw-applier/internal/resume"
	"go-openclaw-applier/internal/storage"
)

func noop() {}

// NewStore opens the task repository selected by cfg.Store.Kind.
func NewStore(ctx context.Context, cfg *config.Config) (database.Store, func(), error) {
	switch cfg.Store.Kind {
	case config.StoreRedis:
		opt, err := redis.ParseURL(cfg.Store.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opt)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		zap.L().Info("✅ Connected to Redis task store")
		return database.NewRedisStore(rdb, cfg.Store.RedisTTL), func() { _ = rdb.Close() }, nil

	case config.StorePostgres:
		pg, err := database.ConnectPostgres(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			pg.Close()
			return nil, nil, err
		}
		return pg, pg.Close, nil

	default:
		return database.NewMemoryStore(), noop, nil
	}
}

// NewArchive returns nil when screenshots are disabled.
func NewArchive(ctx context.Context, cfg *config.Config) (applier.ScreenshotArchive, error) {
	if !cfg.Screenshots.Enabled {
		return nil, nil
	}
	if m := cfg.Screenshots.Minio; m.Endpoint != "" {
		a, err := storage.NewMinioArchive(ctx, storage.MinioConfig{
			Endpoint:   m.Endpoint,
			AccessKey:  m.AccessKey,
			SecretKey:  m.SecretKey,
			BucketName: m.Bucket,
			Secure:     m.Secure,
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	}
	a, err := storage.NewLocalArchive(cfg.Screenshots.Dir)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// LoadCookies accepts either one cookie file or a directory of them. A
// missing path yields no cookies.
func LoadCookies(path string) ([]playwright.OptionalCookie, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return browser.LoadCookieDir(path)
	}
	return browser.LoadCookies(path)
}

func FlowOptions(cfg *config.Config) applier.Options {
	return applier.Options{
		NavigationTimeout:  cfg.Timeouts.Navigation,
		CandidateTimeout:   cfg.Timeouts.PerCandidate,
		FormIdleTimeout:    cfg.Timeouts.FormIdle,
		SubmitIdleTimeout:  cfg.Timeouts.SubmitIdle,
		RequireUpload:      cfg.Strictness.RequireResumeUpload,
		StrictConfirmation: cfg.Strictness.StrictConfirmation,
	}
}

// NewFlow launches Chromium and returns the in-process apply flow. The
// returned manager must be closed by the caller.
func NewFlow(ctx context.Context, cfg *config.Config) (*applier.Flow, *browser.PlaywrightManager, error) {
	cookies, err := LoadCookies(cfg.Browser.CookiesPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load cookies: %w", err)
	}
	archive, err := NewArchive(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	pm, err := browser.NewPlaywright(browser.Options{
		Headless:  cfg.Browser.Headless,
		UserAgent: cfg.Browser.UserAgent,
		Cookies:   cookies,
		Humanize:  cfg.Browser.Humanize,
	})
	if err != nil {
		return nil, nil, err
	}
	zap.L().Info("🌐 Browser launched", zap.Bool("headless", cfg.Browser.Headless), zap.Int("cookies", len(cookies)))

	opts := []applier.FlowOption{applier.WithResumeResolver(resume.NewResolver(cfg.ResumeDirs...))}
	if archive != nil {
		opts = append(opts, applier.WithScreenshots(archive))
	}
	return applier.NewFlow(pm, FlowOptions(cfg), opts...), pm, nil
}

// NewEngine returns the apply backend for cfg.Driver.
func NewEngine(ctx context.Context, cfg *config.Config) (orchestrator.Engine, func(), error) {
	if cfg.Driver == config.DriverRemote {
		return remote.NewClient(cfg.RemoteURL, cfg.Timeouts.Remote), noop, nil
	}
	flow, pm, err := NewFlow(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return flow, func() {
		if err := pm.Close(); err != nil {
			zap.L().Warn("close browser", zap.Error(err))
		}
	}, nil
}

// NewNotifier returns nil when Telegram is not configured.
func NewNotifier(cfg *config.Config) (orchestrator.Notifier, error) {
	if cfg.Telegram.Token == "" {
		return nil, nil
	}
	tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		return nil, err
	}
	return tg, nil
}

// NewOrchestrator wires the orchestrator options from cfg.
func NewOrchestrator(cfg *config.Config, store database.Store, engine orchestrator.Engine) (*orchestrator.Orchestrator, error) {
	opts := []orchestrator.Option{
		orchestrator.WithDeadline(cfg.Timeouts.TaskDeadline),
		orchestrator.WithLogger(zap.L()),
	}
	n, err := NewNotifier(cfg)
	if err != nil {
		return nil, err
	}
	if n != nil {
		opts = append(opts, orchestrator.WithNotifier(n))
	}
	return orchestrator.New(store, engine, opts...), nil
}

func QueueRedis(cfg *config.Config) (asynq.RedisConnOpt, error) {
	opt, err := asynq.ParseRedisURI(cfg.Queue.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse queue redis url: %w", err)
	}
	return opt, nil
}
