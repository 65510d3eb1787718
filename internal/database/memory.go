package database

import (
	"context"
	"fmt"
	"sync"

	"go-openclaw-applier/internal/models"
)

// MemoryStore keeps tasks in process. Values are cloned on the way in and
// out so callers never share a task with the store.
type MemoryStore struct {
	mu    sync.RWMutex
	tasks map[string]*models.ApplicationTask
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tasks: make(map[string]*models.ApplicationTask)}
}

func (s *MemoryStore) Create(ctx context.Context, task *models.ApplicationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("application %s already exists", task.ID)
	}
	s.tasks[task.ID] = task.Clone()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.ApplicationTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	return task.Clone(), nil
}

func (s *MemoryStore) Update(ctx context.Context, task *models.ApplicationTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[task.ID]
	if !ok {
		return ErrNotFound
	}
	next := task.Clone()
	next.Logs = stored.Logs
	s.tasks[task.ID] = next
	return nil
}

func (s *MemoryStore) AppendLogs(ctx context.Context, id string, entries ...models.LogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.tasks[id]
	if !ok {
		return ErrNotFound
	}
	stored.Logs = append(stored.Logs, entries...)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
