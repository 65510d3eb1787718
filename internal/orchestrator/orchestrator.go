// Package orchestrator drives an ApplicationTask through one apply run and
// handles retries.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-openclaw-applier/internal/applylog"
	"go-openclaw-applier/internal/models"
)

// Repository is the slice of the task store the orchestrator needs.
type Repository interface {
	Get(ctx context.Context, id string) (*models.ApplicationTask, error)
	Update(ctx context.Context, task *models.ApplicationTask) error
	AppendLogs(ctx context.Context, id string, entries ...models.LogEntry) error
}

// Engine performs one apply attempt. nil means the application was submitted.
// Implemented in-process by applier.Flow and remotely by remote.Client.
type Engine interface {
	Apply(ctx context.Context, req models.ApplyRequest, log *applylog.Collector) error
}

// Dispatcher schedules Run for a task off the caller's path.
type Dispatcher interface {
	Dispatch(ctx context.Context, taskID string) error
}

// Notifier is told about every task that reached a terminal state.
type Notifier interface {
	Notify(ctx context.Context, task models.ApplicationTask) error
}

var ErrNoDispatcher = errors.New("no dispatcher configured")

type Orchestrator struct {
	repo       Repository
	engine     Engine
	dispatcher Dispatcher
	notifier   Notifier
	deadline   time.Duration
	logger     *zap.Logger
	now        func() time.Time

	notifying sync.WaitGroup
}

type Option func(*Orchestrator)

func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifier = n }
}

// WithDeadline bounds a whole run. Zero means no overall deadline.
func WithDeadline(d time.Duration) Option {
	return func(o *Orchestrator) { o.deadline = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

func New(repo Repository, engine Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		repo:   repo,
		engine: engine,
		logger: zap.L(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// UseDispatcher sets the dispatcher after construction, since dispatchers
// usually need the orchestrator themselves.
func (o *Orchestrator) UseDispatcher(d Dispatcher) {
	o.dispatcher = d
}

// Submit hands a Pending task to the dispatcher and returns immediately.
func (o *Orchestrator) Submit(ctx context.Context, taskID string) error {
	if o.dispatcher == nil {
		return ErrNoDispatcher
	}
	return o.dispatcher.Dispatch(ctx, taskID)
}

// Run drives a Pending task to Succeeded or Failed. Apply failures end up
// on the task, not in the returned error; Run only errors when the task
// cannot be loaded, is not Pending, or cannot be saved.
func (o *Orchestrator) Run(ctx context.Context, taskID string) error {
	task, err := o.repo.Get(ctx, taskID)
	if err != nil {
		return fmt.Errorf("load task %s: %w", taskID, err)
	}
	if err := task.Start(o.now()); err != nil {
		return fmt.Errorf("start task %s: %w", taskID, err)
	}
	if err := o.repo.Update(ctx, task); err != nil {
		return fmt.Errorf("save task %s: %w", taskID, err)
	}

	log := o.collector(ctx, task)
	log.Info("Starting job application process")

	req := models.ApplyRequest{
		TaskID:     task.ID,
		JobURL:     task.JobURL,
		ResumePath: task.Resume.FilePath,
		Profile:    task.Resume.Profile.Clone(),
	}
	runErr := o.apply(ctx, req, log)

	if runErr != nil {
		log.Errorf("Error applying to job: %v", runErr)
		err = task.Fail(runErr.Error(), o.now())
	} else {
		log.Info("Successfully applied to job")
		err = task.Succeed(o.now())
	}
	if err != nil {
		return fmt.Errorf("finish task %s: %w", taskID, err)
	}

	// the terminal state is saved even when the caller's ctx is done
	saveCtx := context.WithoutCancel(ctx)
	if err := o.repo.Update(saveCtx, task); err != nil {
		return fmt.Errorf("save task %s: %w", taskID, err)
	}

	o.logger.Info("application finished",
		zap.String("task_id", task.ID),
		zap.String("status", string(task.Status)),
		zap.String("error_kind", string(kindOrEmpty(runErr))),
	)
	o.notify(saveCtx, task.Clone())
	return nil
}

// Retry moves a Failed task back to Pending, keeps its log, and dispatches it
// again under the same id. Any other status yields models.ErrNotRetryable.
// When the dispatcher refuses the task it is saved back as Failed and
// returned with the dispatch error.
func (o *Orchestrator) Retry(ctx context.Context, taskID string) (*models.ApplicationTask, error) {
	task, err := o.repo.Get(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}
	failed := task.Clone()
	if err := task.Retry(o.now()); err != nil {
		return nil, err
	}
	if err := o.repo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("save task %s: %w", taskID, err)
	}
	log := o.collector(ctx, task)
	log.Info("retrying application")

	if o.dispatcher == nil {
		return task, nil
	}
	if err := o.dispatcher.Dispatch(ctx, taskID); err != nil {
		// a Pending task nobody runs can never be retried again, so put
		// the failure back as it was
		log.Warnf("Could not restart application: %v", err)
		failed.Logs = task.Logs
		failed.UpdatedAt = o.now()
		if uerr := o.repo.Update(context.WithoutCancel(ctx), failed); uerr != nil {
			return task, fmt.Errorf("dispatch task %s: %w (restoring failed state: %v)", taskID, err, uerr)
		}
		return failed, fmt.Errorf("dispatch task %s: %w", taskID, err)
	}
	return task, nil
}

// WaitNotifications blocks until every pending notification was sent.
func (o *Orchestrator) WaitNotifications() {
	o.notifying.Wait()
}

// collector writes every entry to the zap stream, the in-memory task and
// the repository, in that order.
func (o *Orchestrator) collector(ctx context.Context, task *models.ApplicationTask) *applylog.Collector {
	stream := o.logger.With(zap.String("task_id", task.ID))
	persist := context.WithoutCancel(ctx)
	sink := applylog.SinkFunc(func(e models.LogEntry) error {
		task.AppendLog(e, o.now())
		return o.repo.AppendLogs(persist, task.ID, e)
	})
	return applylog.New(stream, sink).WithClock(o.now)
}

func (o *Orchestrator) apply(ctx context.Context, req models.ApplyRequest, log *applylog.Collector) (err error) {
	runCtx := ctx
	if o.deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.deadline)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("apply run panicked",
				zap.String("task_id", req.TaskID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			err = models.NewApplyError(models.KindUnknown, fmt.Sprintf("unexpected failure: %v", r), nil)
		}
	}()

	err = o.engine.Apply(runCtx, req, log)
	if err != nil && ctx.Err() == nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return models.NewApplyError(models.KindUnknown, fmt.Sprintf("application exceeded deadline of %s", o.deadline), err)
	}
	return err
}

// notify runs in the background so the dispatcher slot for the task is
// freed as soon as the terminal state is saved.
func (o *Orchestrator) notify(ctx context.Context, task *models.ApplicationTask) {
	if o.notifier == nil {
		return
	}
	o.notifying.Add(1)
	go func() {
		defer o.notifying.Done()
		if err := o.notifier.Notify(ctx, *task); err != nil {
			o.logger.Warn("failed to send notification", zap.String("task_id", task.ID), zap.Error(err))
		}
	}()
}

func kindOrEmpty(err error) models.ErrorKind {
	if err == nil {
		return ""
	}
	return models.KindOf(err)
}
