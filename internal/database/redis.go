package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"go-openclaw-applier/internal/models"
)

const applicationKeyPrefix = "application:"

// RedisStore keeps the task record as JSON under application:<id> and its
// log as a list under application:<id>:logs, so appends never rewrite the
// record.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func (s *RedisStore) Create(ctx context.Context, task *models.ApplicationTask) error {
	record := task.Clone()
	record.Logs = nil
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	ok, err := s.rdb.SetNX(ctx, recordKey(task.ID), payload, s.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("application %s already exists", task.ID)
	}
	return s.pushLogs(ctx, task.ID, task.Logs)
}

func (s *RedisStore) Get(ctx context.Context, id string) (*models.ApplicationTask, error) {
	data, err := s.rdb.Get(ctx, recordKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var task models.ApplicationTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, err
	}

	raw, err := s.rdb.LRange(ctx, logsKey(id), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	task.Logs = make([]models.LogEntry, 0, len(raw))
	for _, item := range raw {
		var e models.LogEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("corrupt log entry for %s: %w", id, err)
		}
		task.Logs = append(task.Logs, e)
	}
	return &task, nil
}

func (s *RedisStore) Update(ctx context.Context, task *models.ApplicationTask) error {
	key := recordKey(task.ID)
	record := task.Clone()
	record.Logs = nil
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	// XX: only overwrite an existing record
	res, err := s.rdb.SetArgs(ctx, key, payload, redis.SetArgs{Mode: "XX", TTL: s.ttl}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return err
	}
	if res != "OK" {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) AppendLogs(ctx context.Context, id string, entries ...models.LogEntry) error {
	n, err := s.rdb.Exists(ctx, recordKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return s.pushLogs(ctx, id, entries)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, recordKey(id), logsKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) pushLogs(ctx context.Context, id string, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	values := make([]any, 0, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		values = append(values, payload)
	}

	pipe := s.rdb.TxPipeline()
	pipe.RPush(ctx, logsKey(id), values...)
	if s.ttl > 0 {
		pipe.Expire(ctx, logsKey(id), s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func recordKey(id string) string {
	return applicationKeyPrefix + id
}

func logsKey(id string) string {
	return applicationKeyPrefix + id + ":logs"
}
