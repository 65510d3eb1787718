package queue

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-openclaw-applier/internal/orchestrator"
)

type fakeRunner struct {
	ids []string
	err error
}

func (r *fakeRunner) Run(ctx context.Context, taskID string) error {
	r.ids = append(r.ids, taskID)
	return r.err
}

func newTestWorker(runner orchestrator.Runner) *Worker {
	return &Worker{runner: runner, logger: zap.NewNop()}
}

func TestNewApplyTask(t *testing.T) {
	task, err := NewApplyTask("abc")
	require.NoError(t, err)
	assert.Equal(t, TypeApply, task.Type())

	var p ApplyPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &p))
	assert.Equal(t, "abc", p.TaskID)

	_, err = NewApplyTask("")
	assert.Error(t, err)
}

func TestHandleApply(t *testing.T) {
	runner := &fakeRunner{}
	w := newTestWorker(runner)

	task, err := NewApplyTask("abc")
	require.NoError(t, err)
	require.NoError(t, w.HandleApply(context.Background(), task))
	assert.Equal(t, []string{"abc"}, runner.ids)
}

func TestHandleApply_RunErrorIsNotReturned(t *testing.T) {
	w := newTestWorker(&fakeRunner{err: errors.New("task not pending")})

	task, err := NewApplyTask("abc")
	require.NoError(t, err)
	assert.NoError(t, w.HandleApply(context.Background(), task))
}

func TestHandleApply_BadPayloadSkipsRetry(t *testing.T) {
	w := newTestWorker(&fakeRunner{})

	err := w.HandleApply(context.Background(), asynq.NewTask(TypeApply, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	err = w.HandleApply(context.Background(), asynq.NewTask(TypeApply, []byte(`{}`)))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestDispatcher_RejectsDuplicate(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if testing.Short() || url == "" {
		t.Skip("Skipping asynq integration test (set TEST_REDIS_URL)")
	}
	opt, err := asynq.ParseRedisURI(url)
	require.NoError(t, err)

	d := NewDispatcher(opt, "applications-test", 0)
	defer d.Close()

	id := "dup-" + t.Name()
	inspector := asynq.NewInspector(opt)
	defer inspector.Close()
	defer func() { _ = inspector.DeleteTask("applications-test", id) }()

	require.NoError(t, d.Dispatch(context.Background(), id))
	assert.ErrorIs(t, d.Dispatch(context.Background(), id), orchestrator.ErrAlreadyDispatched)
}
