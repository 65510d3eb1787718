package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask() *ApplicationTask {
	return NewApplicationTask("task-1", "https://www.linkedin.com/jobs/1", ResumeRef{FilePath: "/tmp/cv.pdf"}, time.Unix(100, 0))
}

func TestApplicationTask_HappyPath(t *testing.T) {
	task := newTask()
	assert.Equal(t, StatusPending, task.Status)
	assert.Nil(t, task.CompletedAt)

	require.NoError(t, task.Start(time.Unix(101, 0)))
	assert.Equal(t, StatusProcessing, task.Status)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, time.Unix(101, 0), task.UpdatedAt)

	require.NoError(t, task.Succeed(time.Unix(102, 0)))
	assert.Equal(t, StatusSucceeded, task.Status)
	require.NotNil(t, task.CompletedAt)
	assert.Equal(t, time.Unix(102, 0), *task.CompletedAt)
	assert.Nil(t, task.ErrorMessage)
}

func TestApplicationTask_IllegalTransitions(t *testing.T) {
	tests := []struct {
		name string
		prep func(*ApplicationTask)
		try  func(*ApplicationTask) error
	}{
		{"pending to succeeded", func(*ApplicationTask) {}, func(a *ApplicationTask) error { return a.Succeed(time.Now()) }},
		{"pending to failed", func(*ApplicationTask) {}, func(a *ApplicationTask) error { return a.Fail("x", time.Now()) }},
		{"processing to processing", func(a *ApplicationTask) { _ = a.Start(time.Now()) }, func(a *ApplicationTask) error { return a.Start(time.Now()) }},
		{"succeeded to failed", func(a *ApplicationTask) { _ = a.Start(time.Now()); _ = a.Succeed(time.Now()) }, func(a *ApplicationTask) error { return a.Fail("x", time.Now()) }},
		{"succeeded to processing", func(a *ApplicationTask) { _ = a.Start(time.Now()); _ = a.Succeed(time.Now()) }, func(a *ApplicationTask) error { return a.Start(time.Now()) }},
		{"failed to processing", func(a *ApplicationTask) { _ = a.Start(time.Now()); _ = a.Fail("x", time.Now()) }, func(a *ApplicationTask) error { return a.Start(time.Now()) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := newTask()
			tt.prep(task)
			before := task.Status
			err := tt.try(task)
			assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
			assert.Equal(t, before, task.Status)
		})
	}
}

func TestApplicationTask_Retry(t *testing.T) {
	task := newTask()
	require.NoError(t, task.Start(time.Unix(101, 0)))
	task.AppendLog(LogEntry{Timestamp: time.Unix(101, 0), Message: "first attempt", Level: LevelInfo}, time.Unix(101, 0))
	require.NoError(t, task.Fail("could not find apply button", time.Unix(102, 0)))
	require.NotNil(t, task.ErrorMessage)
	require.NotNil(t, task.CompletedAt)

	require.NoError(t, task.Retry(time.Unix(103, 0)))
	assert.Equal(t, StatusPending, task.Status)
	assert.Nil(t, task.ErrorMessage)
	assert.Nil(t, task.CompletedAt)
	assert.Equal(t, time.Unix(103, 0), task.UpdatedAt)
	assert.Len(t, task.Logs, 1, "retry keeps prior logs")
}

func TestApplicationTask_RetryRejected(t *testing.T) {
	pending := newTask()
	assert.ErrorIs(t, pending.Retry(time.Now()), ErrNotRetryable)

	succeeded := newTask()
	require.NoError(t, succeeded.Start(time.Now()))
	require.NoError(t, succeeded.Succeed(time.Now()))
	snapshot := succeeded.Clone()

	assert.ErrorIs(t, succeeded.Retry(time.Now()), ErrNotRetryable)
	assert.Equal(t, snapshot, succeeded)
}

func TestApplicationTask_CloneIsDeep(t *testing.T) {
	task := newTask()
	task.Resume.Profile.ContactInfo = map[string]string{"email": "a@b.c"}
	task.AppendLog(LogEntry{Message: "one"}, time.Now())

	cp := task.Clone()
	cp.Logs[0].Message = "changed"
	cp.Resume.Profile.ContactInfo["email"] = "x@y.z"

	assert.Equal(t, "one", task.Logs[0].Message)
	assert.Equal(t, "a@b.c", task.Resume.Profile.Email())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUpload, KindOf(NewApplyError(KindUpload, "resume upload failed", errors.New("boom"))))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, "resume upload failed: boom", NewApplyError(KindUpload, "resume upload failed", errors.New("boom")).Error())
}

func TestResume_Profile(t *testing.T) {
	r := Resume{
		PersonalInformation: PersonalInformation{
			FullName: "John Doe",
			JobTitle: "Backend Developer",
			Email:    "john@example.com",
			Phone:    "+1 555 0100",
			Links:    Link{LinkedIn: "https://linkedin.com/in/jd"},
		},
		Summary: "Go engineer",
		Skills: Skills{
			Languages: []string{"Go", "Python"},
			Backend:   []string{"gRPC", "go"},
		},
	}

	p := r.Profile()
	assert.Equal(t, "John Doe", p.Name)
	assert.Equal(t, "john@example.com", p.Email())
	assert.Equal(t, "+1 555 0100", p.Phone())
	assert.Equal(t, []string{"Go", "Python", "gRPC"}, p.Skills)
	assert.Equal(t, "https://linkedin.com/in/jd", p.Portfolio["linkedin"])
}
