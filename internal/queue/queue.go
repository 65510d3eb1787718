// Package queue dispatches apply runs through asynq so they execute in a
// worker process, off the request path.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/orchestrator"
)

const (
	TypeApply    = "application:apply"
	DefaultQueue = "applications"
)

type ApplyPayload struct {
	TaskID string `json:"taskId"`
}

func NewApplyTask(taskID string) (*asynq.Task, error) {
	if taskID == "" {
		return nil, fmt.Errorf("taskID is required")
	}
	body, err := json.Marshal(ApplyPayload{TaskID: taskID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeApply, body), nil
}

// Dispatcher enqueues apply runs. The application id doubles as the asynq
// task id, so a task that is still queued or running cannot be enqueued twice.
type Dispatcher struct {
	client  *asynq.Client
	queue   string
	timeout time.Duration
}

// NewDispatcher enqueues onto queue; timeout bounds a run in the worker
// (zero leaves asynq's default).
func NewDispatcher(opt asynq.RedisConnOpt, queue string, timeout time.Duration) *Dispatcher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &Dispatcher{client: asynq.NewClient(opt), queue: queue, timeout: timeout}
}

func (d *Dispatcher) Dispatch(ctx context.Context, taskID string) error {
	task, err := NewApplyTask(taskID)
	if err != nil {
		return err
	}

	opts := []asynq.Option{
		asynq.Queue(d.queue),
		asynq.TaskID(taskID),
		// retries are an explicit user action, never automatic
		asynq.MaxRetry(0),
	}
	if d.timeout > 0 {
		opts = append(opts, asynq.Timeout(d.timeout))
	}

	info, err := d.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return fmt.Errorf("%w: %s", orchestrator.ErrAlreadyDispatched, taskID)
		}
		return fmt.Errorf("failed to enqueue application %s: %w", taskID, err)
	}
	zap.L().Debug("application enqueued", zap.String("task_id", taskID), zap.String("queue", info.Queue))
	return nil
}

func (d *Dispatcher) Close() error {
	return d.client.Close()
}

// Worker consumes apply tasks and hands them to a Runner.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner orchestrator.Runner
	logger *zap.Logger
}

func NewWorker(opt asynq.RedisConnOpt, runner orchestrator.Runner, queue string, concurrency int) *Worker {
	if queue == "" {
		queue = DefaultQueue
	}
	if concurrency <= 0 {
		concurrency = 4
	}

	w := &Worker{
		server: asynq.NewServer(opt, asynq.Config{
			Concurrency: concurrency,
			Queues:      map[string]int{queue: 1},
			Logger:      newAsynqLogger(zap.L()),
		}),
		mux:    asynq.NewServeMux(),
		runner: runner,
		logger: zap.L(),
	}
	w.mux.HandleFunc(TypeApply, w.HandleApply)
	return w
}

// Start begins processing in the background.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// HandleApply runs one application. Run failures are already recorded on
// the task, so they are logged here rather than returned: a returned error
// would archive the asynq task and block a later retry under the same id.
func (w *Worker) HandleApply(ctx context.Context, task *asynq.Task) error {
	var payload ApplyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("bad payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.TaskID == "" {
		return fmt.Errorf("missing taskId in payload: %w", asynq.SkipRetry)
	}

	w.logger.Info("▶️ processing application", zap.String("task_id", payload.TaskID))
	if err := w.runner.Run(ctx, payload.TaskID); err != nil {
		w.logger.Error("❌ application run failed", zap.String("task_id", payload.TaskID), zap.Error(err))
	}
	return nil
}

// asynqLogger routes asynq's own logging into zap.
type asynqLogger struct {
	s *zap.SugaredLogger
}

func newAsynqLogger(l *zap.Logger) asynqLogger {
	return asynqLogger{s: l.Named("asynq").Sugar()}
}

func (l asynqLogger) Debug(args ...any) { l.s.Debug(args...) }
func (l asynqLogger) Info(args ...any)  { l.s.Info(args...) }
func (l asynqLogger) Warn(args ...any)  { l.s.Warn(args...) }
func (l asynqLogger) Error(args ...any) { l.s.Error(args...) }
func (l asynqLogger) Fatal(args ...any) { l.s.Fatal(args...) }
