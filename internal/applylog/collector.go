// Package applylog collects the per-run audit trail of an application attempt.
//
// Every entry goes to the process-wide zap stream and to each registered Sink,
// in append order. Entries are never modified or removed once appended.
package applylog

import (
	"fmt"
	"sync"
	"time"

	"go-openclaw-applier/internal/models"

	"go.uber.org/zap"
)

// Sink receives each entry right after it is appended.
type Sink interface {
	Write(entry models.LogEntry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(entry models.LogEntry) error

func (f SinkFunc) Write(entry models.LogEntry) error {
	return f(entry)
}

type Collector struct {
	mu      sync.Mutex
	entries []models.LogEntry
	sinks   []Sink
	stream  *zap.Logger
	now     func() time.Time
}

// New creates a collector writing to stream (zap.L() when nil) and sinks.
func New(stream *zap.Logger, sinks ...Sink) *Collector {
	if stream == nil {
		stream = zap.L()
	}
	return &Collector{
		stream: stream,
		sinks:  sinks,
		now:    time.Now,
	}
}

// WithClock overrides the timestamp source.
func (c *Collector) WithClock(now func() time.Time) *Collector {
	c.now = now
	return c
}

func (c *Collector) Debug(msg string)                  { c.Log(models.LevelDebug, msg) }
func (c *Collector) Info(msg string)                   { c.Log(models.LevelInfo, msg) }
func (c *Collector) Warn(msg string)                   { c.Log(models.LevelWarning, msg) }
func (c *Collector) Error(msg string)                  { c.Log(models.LevelError, msg) }
func (c *Collector) Debugf(format string, args ...any) { c.Log(models.LevelDebug, fmt.Sprintf(format, args...)) }
func (c *Collector) Infof(format string, args ...any)  { c.Log(models.LevelInfo, fmt.Sprintf(format, args...)) }
func (c *Collector) Warnf(format string, args ...any)  { c.Log(models.LevelWarning, fmt.Sprintf(format, args...)) }
func (c *Collector) Errorf(format string, args ...any) { c.Log(models.LevelError, fmt.Sprintf(format, args...)) }

func (c *Collector) Log(level models.LogLevel, msg string) {
	c.Append(models.LogEntry{
		Timestamp: c.now(),
		Message:   msg,
		Level:     level,
	})
}

// Append records an entry that already carries its own timestamp,
// e.g. one relayed from a remote automation service.
func (c *Collector) Append(entry models.LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = c.now()
	}
	if entry.Level == "" {
		entry.Level = models.LevelInfo
	}

	// sinks are written under the lock so every consumer sees the same order
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry)
	c.emit(entry)
	for _, sink := range c.sinks {
		if err := sink.Write(entry); err != nil {
			c.stream.Warn("log sink rejected entry", zap.String("message", entry.Message), zap.Error(err))
		}
	}
}

func (c *Collector) emit(entry models.LogEntry) {
	fields := []zap.Field{zap.Time("at", entry.Timestamp)}
	switch entry.Level {
	case models.LevelDebug:
		c.stream.Debug(entry.Message, fields...)
	case models.LevelWarning:
		c.stream.Warn(entry.Message, fields...)
	case models.LevelError:
		c.stream.Error(entry.Message, fields...)
	default:
		c.stream.Info(entry.Message, fields...)
	}
}

// Entries returns a copy of everything appended so far.
func (c *Collector) Entries() []models.LogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.LogEntry, len(c.entries))
	copy(out, c.entries)
	return out
}

func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
