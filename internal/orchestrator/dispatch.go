package orchestrator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

var ErrAlreadyDispatched = errors.New("task already dispatched")

// Runner is what a dispatcher drives; *Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, taskID string) error
}

// GoroutineDispatcher runs tasks in background goroutines with at most
// limit running at once. A task id is accepted again only after its
// previous run finished.
type GoroutineDispatcher struct {
	base   context.Context
	runner Runner
	sem    *semaphore.Weighted
	logger *zap.Logger

	mu       sync.Mutex
	inflight map[string]struct{}
	wg       sync.WaitGroup
}

// NewGoroutineDispatcher runs tasks under base, which outlives the request
// that submitted them.
func NewGoroutineDispatcher(base context.Context, runner Runner, limit int) *GoroutineDispatcher {
	if limit <= 0 {
		limit = 1
	}
	return &GoroutineDispatcher{
		base:     base,
		runner:   runner,
		sem:      semaphore.NewWeighted(int64(limit)),
		logger:   zap.L(),
		inflight: make(map[string]struct{}),
	}
}

func (d *GoroutineDispatcher) Dispatch(_ context.Context, taskID string) error {
	d.mu.Lock()
	if _, ok := d.inflight[taskID]; ok {
		d.mu.Unlock()
		return ErrAlreadyDispatched
	}
	d.inflight[taskID] = struct{}{}
	d.mu.Unlock()

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			d.mu.Lock()
			delete(d.inflight, taskID)
			d.mu.Unlock()
		}()

		if err := d.sem.Acquire(d.base, 1); err != nil {
			d.logger.Warn("dispatcher stopped before task ran", zap.String("task_id", taskID), zap.Error(err))
			return
		}
		defer d.sem.Release(1)

		if err := d.runner.Run(d.base, taskID); err != nil {
			d.logger.Error("application run failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}()
	return nil
}

// Wait blocks until every dispatched run has returned.
func (d *GoroutineDispatcher) Wait() {
	d.wg.Wait()
}
