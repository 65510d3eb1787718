package applylog

import (
	"errors"
	"testing"
	"time"

	"go-openclaw-applier/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollector_AppendsInOrderToAllConsumers(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	var sunk []models.LogEntry
	sink := SinkFunc(func(e models.LogEntry) error {
		sunk = append(sunk, e)
		return nil
	})

	tick := time.Unix(1000, 0)
	c := New(zap.New(core), sink).WithClock(func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	})

	c.Info("Navigating to https://example.com")
	c.Debug("trying selector")
	c.Warn("Could not find apply button")
	c.Errorf("Error applying to job: %s", "boom")

	entries := c.Entries()
	require.Len(t, entries, 4)
	assert.Equal(t, entries, sunk)
	assert.Equal(t, models.LevelInfo, entries[0].Level)
	assert.Equal(t, models.LevelDebug, entries[1].Level)
	assert.Equal(t, models.LevelWarning, entries[2].Level)
	assert.Equal(t, models.LevelError, entries[3].Level)
	assert.Equal(t, "Error applying to job: boom", entries[3].Message)
	assert.True(t, entries[0].Timestamp.Before(entries[3].Timestamp))

	logs := observed.All()
	require.Len(t, logs, 4)
	assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
	assert.Equal(t, zapcore.DebugLevel, logs[1].Level)
	assert.Equal(t, zapcore.WarnLevel, logs[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, logs[3].Level)
}

func TestCollector_AppendKeepsRelayedTimestamp(t *testing.T) {
	c := New(zap.NewNop())
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	c.Append(models.LogEntry{Timestamp: at, Message: "remote step", Level: models.LevelWarning})
	c.Append(models.LogEntry{Message: "no level"})

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, at, entries[0].Timestamp)
	assert.Equal(t, models.LevelInfo, entries[1].Level)
	assert.False(t, entries[1].Timestamp.IsZero())
}

func TestCollector_SinkErrorDoesNotDropEntry(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	failing := SinkFunc(func(models.LogEntry) error { return errors.New("store down") })
	c := New(zap.New(core), failing)

	c.Info("still recorded")

	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 1, observed.FilterMessage("log sink rejected entry").Len())
}

func TestCollector_EntriesIsACopy(t *testing.T) {
	c := New(zap.NewNop())
	c.Info("one")
	entries := c.Entries()
	entries[0].Message = "mutated"
	assert.Equal(t, "one", c.Entries()[0].Message)
}
