package models

import (
	"errors"
	"fmt"
	"time"
)

type ApplicationStatus string

const (
	StatusPending    ApplicationStatus = "pending"
	StatusProcessing ApplicationStatus = "processing"
	StatusSucceeded  ApplicationStatus = "succeeded"
	StatusFailed     ApplicationStatus = "failed"
)

// IsTerminal reports whether no run is in flight for the status.
func (s ApplicationStatus) IsTerminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotRetryable      = errors.New("only failed applications can be retried")
)

// forward transitions; Failed -> Pending is only reachable through Retry
var allowedTransitions = map[ApplicationStatus][]ApplicationStatus{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusSucceeded, StatusFailed},
}

type LogLevel string

const (
	LevelDebug   LogLevel = "debug"
	LevelInfo    LogLevel = "info"
	LevelWarning LogLevel = "warning"
	LevelError   LogLevel = "error"
)

type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     LogLevel  `json:"level"`
}

// ResumeRef points at a resume owned by the resume-management layer.
type ResumeRef struct {
	ID       string        `json:"id,omitempty"`
	FilePath string        `json:"file_path"`
	Profile  ResumeProfile `json:"profile"`
}

// ApplicationTask is one attempt to apply to one job.
type ApplicationTask struct {
	ID           string            `json:"id"`
	JobURL       string            `json:"job_url"`
	Resume       ResumeRef         `json:"resume"`
	Status       ApplicationStatus `json:"status"`
	Logs         []LogEntry        `json:"logs"`
	ErrorMessage *string           `json:"error_message,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
}

// NewApplicationTask creates a Pending task.
func NewApplicationTask(id, jobURL string, resume ResumeRef, now time.Time) *ApplicationTask {
	return &ApplicationTask{
		ID:        id,
		JobURL:    jobURL,
		Resume:    resume,
		Status:    StatusPending,
		Logs:      []LogEntry{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *ApplicationTask) transition(to ApplicationStatus, now time.Time) error {
	for _, next := range allowedTransitions[t.Status] {
		if next == to {
			t.Status = to
			t.UpdatedAt = now
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, t.Status, to)
}

// Start moves a Pending task to Processing.
func (t *ApplicationTask) Start(now time.Time) error {
	return t.transition(StatusProcessing, now)
}

func (t *ApplicationTask) Succeed(now time.Time) error {
	if err := t.transition(StatusSucceeded, now); err != nil {
		return err
	}
	t.ErrorMessage = nil
	t.CompletedAt = &now
	return nil
}

func (t *ApplicationTask) Fail(message string, now time.Time) error {
	if err := t.transition(StatusFailed, now); err != nil {
		return err
	}
	t.ErrorMessage = &message
	t.CompletedAt = &now
	return nil
}

// Retry resets a Failed task to Pending. Logs are kept.
func (t *ApplicationTask) Retry(now time.Time) error {
	if t.Status != StatusFailed {
		return fmt.Errorf("%w (status %s)", ErrNotRetryable, t.Status)
	}
	t.Status = StatusPending
	t.ErrorMessage = nil
	t.CompletedAt = nil
	t.UpdatedAt = now
	return nil
}

func (t *ApplicationTask) AppendLog(entry LogEntry, now time.Time) {
	t.Logs = append(t.Logs, entry)
	t.UpdatedAt = now
}

// Clone returns a deep copy so stores never hand out shared slices.
func (t *ApplicationTask) Clone() *ApplicationTask {
	if t == nil {
		return nil
	}
	cp := *t
	if t.Logs != nil {
		cp.Logs = make([]LogEntry, len(t.Logs))
		copy(cp.Logs, t.Logs)
	}
	if t.ErrorMessage != nil {
		msg := *t.ErrorMessage
		cp.ErrorMessage = &msg
	}
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		cp.CompletedAt = &at
	}
	cp.Resume.Profile = t.Resume.Profile.Clone()
	return &cp
}

// ApplyRequest is everything an automation backend needs for one run.
type ApplyRequest struct {
	TaskID     string
	JobURL     string
	ResumePath string
	Profile    ResumeProfile
}
