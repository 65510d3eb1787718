package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go-openclaw-applier/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS applications (
	id             TEXT PRIMARY KEY,
	job_url        TEXT NOT NULL,
	resume_id      TEXT NOT NULL DEFAULT '',
	resume_path    TEXT NOT NULL,
	resume_profile JSONB NOT NULL DEFAULT '{}',
	status         TEXT NOT NULL,
	error_message  TEXT,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	completed_at   TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS application_logs (
	seq            BIGSERIAL PRIMARY KEY,
	application_id TEXT NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
	logged_at      TIMESTAMPTZ NOT NULL,
	level          TEXT NOT NULL,
	message        TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS application_logs_app_idx ON application_logs (application_id, seq);
`

type PostgresStore struct {
	db *pgxpool.Pool
}

func ConnectPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = time.Hour

	// transaction-mode poolers (PgBouncer) cannot keep prepared statements
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PostgresStore{db: pool}, nil
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() {
	if s.db != nil {
		s.db.Close()
	}
}

func (s *PostgresStore) Create(ctx context.Context, task *models.ApplicationTask) error {
	profile, err := json.Marshal(task.Resume.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode resume profile: %w", err)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO applications (id, job_url, resume_id, resume_path, resume_profile, status, error_message, created_at, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		task.ID, task.JobURL, task.Resume.ID, task.Resume.FilePath, profile,
		task.Status, task.ErrorMessage, task.CreatedAt, task.UpdatedAt, task.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	if err := insertLogs(ctx, tx, task.ID, task.Logs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ApplicationTask, error) {
	var (
		task    models.ApplicationTask
		profile []byte
	)
	err := s.db.QueryRow(ctx, `
		SELECT id, job_url, resume_id, resume_path, resume_profile, status, error_message, created_at, updated_at, completed_at
		FROM applications WHERE id = $1`, id).
		Scan(&task.ID, &task.JobURL, &task.Resume.ID, &task.Resume.FilePath, &profile,
			&task.Status, &task.ErrorMessage, &task.CreatedAt, &task.UpdatedAt, &task.CompletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	if err := json.Unmarshal(profile, &task.Resume.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode resume profile: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT logged_at, level, message FROM application_logs
		WHERE application_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get application logs: %w", err)
	}
	task.Logs, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.LogEntry, error) {
		var e models.LogEntry
		err := row.Scan(&e.Timestamp, &e.Level, &e.Message)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read application logs: %w", err)
	}
	if task.Logs == nil {
		task.Logs = []models.LogEntry{}
	}
	return &task, nil
}

func (s *PostgresStore) Update(ctx context.Context, task *models.ApplicationTask) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE applications SET status = $1, error_message = $2, updated_at = $3, completed_at = $4
		WHERE id = $5`,
		task.Status, task.ErrorMessage, task.UpdatedAt, task.CompletedAt, task.ID)
	if err != nil {
		return fmt.Errorf("failed to update application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AppendLogs(ctx context.Context, id string, entries ...models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return insertLogs(ctx, tx, id, entries)
	})
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, "DELETE FROM applications WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// insertLogs batches the inserts so entries keep their order in seq.
func insertLogs(ctx context.Context, tx pgx.Tx, id string, entries []models.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`INSERT INTO application_logs (application_id, logged_at, level, message) VALUES ($1, $2, $3, $4)`,
			id, e.Timestamp, e.Level, e.Message)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23503" {
			return ErrNotFound
		}
		return fmt.Errorf("failed to append application logs: %w", err)
	}
	return nil
}
