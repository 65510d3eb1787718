// Load envs from .env
// Load YAML config
// Override with env vars
// Validate config

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "configs/config.yaml"

const (
	DriverPlaywright = "playwright"
	DriverRemote     = "remote"

	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

type Config struct {
	Driver    string `yaml:"driver"`
	RemoteURL string `yaml:"remote_url"`

	Browser     BrowserConfig    `yaml:"browser"`
	Timeouts    TimeoutConfig    `yaml:"timeouts"`
	Concurrency int              `yaml:"concurrency"`
	Strictness  StrictConfig     `yaml:"strictness"`
	Store       StoreConfig      `yaml:"store"`
	Queue       QueueConfig      `yaml:"queue"`
	Screenshots ScreenshotConfig `yaml:"screenshots"`
	Telegram    TelegramConfig   `yaml:"telegram"`
	HTTP        HTTPConfig       `yaml:"http"`

	// ResumeDirs are searched by base name when a resume path is missing.
	ResumeDirs []string `yaml:"resume_dirs"`
	LogMode    string   `yaml:"log_mode"`
}

type BrowserConfig struct {
	Headless    bool   `yaml:"headless"`
	UserAgent   string `yaml:"user_agent"`
	CookiesPath string `yaml:"cookies_path"`
	Humanize    bool   `yaml:"humanize"`
}

type TimeoutConfig struct {
	Navigation   time.Duration `yaml:"navigation"`
	PerCandidate time.Duration `yaml:"per_candidate"`
	FormIdle     time.Duration `yaml:"form_idle"`
	SubmitIdle   time.Duration `yaml:"submit_idle"`
	// TaskDeadline bounds a whole run; zero means no deadline.
	TaskDeadline time.Duration `yaml:"task_deadline"`
	// Remote is the HTTP client timeout for the remote driver.
	Remote time.Duration `yaml:"remote"`
}

type StrictConfig struct {
	RequireResumeUpload bool `yaml:"require_resume_upload"`
	StrictConfirmation  bool `yaml:"strict_confirmation"`
}

type StoreConfig struct {
	Kind        string        `yaml:"kind"`
	RedisURL    string        `yaml:"redis_url"`
	RedisTTL    time.Duration `yaml:"redis_ttl"`
	DatabaseURL string        `yaml:"database_url"`
}

type QueueConfig struct {
	// Enabled routes runs through asynq; otherwise they run in-process.
	Enabled  bool   `yaml:"enabled"`
	Name     string `yaml:"name"`
	RedisURL string `yaml:"redis_url"`
}

type ScreenshotConfig struct {
	Enabled bool        `yaml:"enabled"`
	Dir     string      `yaml:"dir"`
	Minio   MinioConfig `yaml:"minio"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	Secure    bool   `yaml:"secure"`
}

type TelegramConfig struct {
	Token  string `yaml:"token"`
	ChatID int64  `yaml:"chat_id"`
}

type HTTPConfig struct {
	Port           string `yaml:"port"`
	AutomationPort string `yaml:"automation_port"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Driver:    DriverPlaywright,
		RemoteURL: "http://localhost:3001",
		Browser: BrowserConfig{
			Headless:    true,
			CookiesPath: ".cookies",
		},
		Timeouts: TimeoutConfig{
			Navigation:   60 * time.Second,
			PerCandidate: time.Second,
			FormIdle:     30 * time.Second,
			SubmitIdle:   30 * time.Second,
			Remote:       5 * time.Minute,
		},
		Concurrency: 4,
		Store: StoreConfig{
			Kind:     StoreMemory,
			RedisTTL: 7 * 24 * time.Hour,
		},
		Queue: QueueConfig{Name: "applications"},
		Screenshots: ScreenshotConfig{
			Dir: "logs/screenshots",
		},
		HTTP:       HTTPConfig{Port: "8080", AutomationPort: "3001"},
		ResumeDirs: []string{"/app/uploads"},
		LogMode:    "production",
	}
}

// Load reads .env, then the YAML file named by CONFIG_PATH (or DefaultPath),
// then environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile is Load without the .env step. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		zap.L().Warn("⚠️ config file not found, using defaults", zap.String("path", path))
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if cfg.Queue.RedisURL == "" {
		cfg.Queue.RedisURL = cfg.Store.RedisURL
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	var errs []error
	boolean := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("APPLIER_DRIVER", &c.Driver)
	str("REMOTE_AUTOMATION_URL", &c.RemoteURL)
	boolean("HEADLESS", &c.Browser.Headless)
	str("COOKIES_PATH", &c.Browser.CookiesPath)
	boolean("HUMANIZE", &c.Browser.Humanize)
	duration("NAVIGATION_TIMEOUT", &c.Timeouts.Navigation)
	duration("TASK_DEADLINE", &c.Timeouts.TaskDeadline)
	boolean("REQUIRE_RESUME_UPLOAD", &c.Strictness.RequireResumeUpload)
	boolean("STRICT_CONFIRMATION", &c.Strictness.StrictConfirmation)
	str("STORE", &c.Store.Kind)
	str("REDIS_URL", &c.Store.RedisURL)
	str("DATABASE_URL", &c.Store.DatabaseURL)
	boolean("QUEUE_ENABLED", &c.Queue.Enabled)
	str("QUEUE_NAME", &c.Queue.Name)
	str("SCREENSHOT_DIR", &c.Screenshots.Dir)
	str("MINIO_ENDPOINT", &c.Screenshots.Minio.Endpoint)
	str("MINIO_ACCESS_KEY", &c.Screenshots.Minio.AccessKey)
	str("MINIO_SECRET_KEY", &c.Screenshots.Minio.SecretKey)
	str("MINIO_BUCKET", &c.Screenshots.Minio.Bucket)
	str("TELEGRAM_BOT_TOKEN", &c.Telegram.Token)
	str("PORT", &c.HTTP.Port)
	str("AUTOMATION_PORT", &c.HTTP.AutomationPort)
	str("LOG_MODE", &c.LogMode)

	if v := os.Getenv("CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid CONCURRENCY: %w", err))
		} else {
			c.Concurrency = n
		}
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		id, err := strconv.ParseInt(chatID, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid TELEGRAM_CHAT_ID: %w", err))
		} else {
			c.Telegram.ChatID = id
		}
	}
	if dirs := os.Getenv("RESUME_DIRS"); dirs != "" {
		c.ResumeDirs = nil
		for _, d := range strings.Split(dirs, ",") {
			if d = strings.TrimSpace(d); d != "" {
				c.ResumeDirs = append(c.ResumeDirs, d)
			}
		}
	}
	return errors.Join(errs...)
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Driver {
	case DriverPlaywright:
	case DriverRemote:
		if c.RemoteURL == "" {
			errs = append(errs, errors.New("remote_url is required for the remote driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown driver %q", c.Driver))
	}

	switch c.Store.Kind {
	case StoreMemory:
		if c.Queue.Enabled {
			errs = append(errs, errors.New("the memory store cannot be shared with a queue worker"))
		}
	case StoreRedis:
		if c.Store.RedisURL == "" {
			errs = append(errs, errors.New("store.redis_url is required for the redis store"))
		}
	case StorePostgres:
		if c.Store.DatabaseURL == "" {
			errs = append(errs, errors.New("store.database_url is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store.Kind))
	}

	if c.Queue.Enabled && c.Queue.RedisURL == "" {
		errs = append(errs, errors.New("queue.redis_url is required when the queue is enabled"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, errors.New("concurrency must be at least 1"))
	}
	if c.Timeouts.Navigation <= 0 || c.Timeouts.PerCandidate <= 0 || c.Timeouts.FormIdle <= 0 || c.Timeouts.SubmitIdle <= 0 {
		errs = append(errs, errors.New("step timeouts must be positive"))
	}
	if c.Timeouts.TaskDeadline < 0 {
		errs = append(errs, errors.New("timeouts.task_deadline must not be negative"))
	}
	if (c.Telegram.Token == "") != (c.Telegram.ChatID == 0) {
		errs = append(errs, errors.New("telegram token and chat_id must be set together"))
	}
	if m := c.Screenshots.Minio; m.Endpoint != "" && m.Bucket == "" {
		errs = append(errs, errors.New("screenshots.minio.bucket is required with an endpoint"))
	}
	return errors.Join(errs...)
}

// NewLogger builds the process logger for LogMode.
func (c *Config) NewLogger() (*zap.Logger, error) {
	if c.LogMode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
