// Package database persists application tasks.
//
// Update writes a task's status fields only. Log entries are written solely
// through AppendLogs, so a log is never rewritten or reordered once stored.
package database

import (
	"context"
	"errors"

	"go-openclaw-applier/internal/models"
)

var ErrNotFound = errors.New("application not found")

type Store interface {
	Create(ctx context.Context, task *models.ApplicationTask) error
	Get(ctx context.Context, id string) (*models.ApplicationTask, error)
	Update(ctx context.Context, task *models.ApplicationTask) error
	AppendLogs(ctx context.Context, id string, entries ...models.LogEntry) error
	Delete(ctx context.Context, id string) error
}
