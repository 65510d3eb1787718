package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-openclaw-applier/internal/config"
	"go-openclaw-applier/internal/database"
	"go-openclaw-applier/internal/remote"
	"go-openclaw-applier/internal/storage"
)

func TestNewStore_Memory(t *testing.T) {
	store, closeFn, err := NewStore(context.Background(), config.Default())
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &database.MemoryStore{}, store)
}

func TestNewEngine_Remote(t *testing.T) {
	cfg := config.Default()
	cfg.Driver = config.DriverRemote

	engine, closeFn, err := NewEngine(context.Background(), cfg)
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &remote.Client{}, engine)
}

func TestNewArchive(t *testing.T) {
	cfg := config.Default()

	a, err := NewArchive(context.Background(), cfg)
	require.NoError(t, err)
	assert.Nil(t, a)

	cfg.Screenshots.Enabled = true
	cfg.Screenshots.Dir = t.TempDir()
	a, err = NewArchive(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &storage.LocalArchive{}, a)
}

func TestNewNotifier_Disabled(t *testing.T) {
	n, err := NewNotifier(config.Default())
	require.NoError(t, err)
	assert.Nil(t, n)
}

func TestLoadCookies(t *testing.T) {
	dir := t.TempDir()

	cookies, err := LoadCookies(filepath.Join(dir, "missing"))
	require.NoError(t, err)
	assert.Empty(t, cookies)

	body := `[{"name":"li_at","value":"v","domain":".linkedin.com"}]`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "linkedin.json"), []byte(body), 0o644))

	cookies, err = LoadCookies(dir)
	require.NoError(t, err)
	require.Len(t, cookies, 1)

	cookies, err = LoadCookies(filepath.Join(dir, "linkedin.json"))
	require.NoError(t, err)
	assert.Equal(t, "li_at", cookies[0].Name)
}

func TestFlowOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Timeouts.Navigation = 15 * time.Second
	cfg.Strictness.RequireResumeUpload = true

	opts := FlowOptions(cfg)
	assert.Equal(t, 15*time.Second, opts.NavigationTimeout)
	assert.Equal(t, time.Second, opts.CandidateTimeout)
	assert.True(t, opts.RequireUpload)
	assert.False(t, opts.StrictConfirmation)
}

func TestQueueRedis(t *testing.T) {
	cfg := config.Default()
	cfg.Queue.RedisURL = "redis://localhost:6379/2"
	_, err := QueueRedis(cfg)
	require.NoError(t, err)

	cfg.Queue.RedisURL = "::bad"
	_, err = QueueRedis(cfg)
	assert.Error(t, err)
}
