// Package postgres implements the document store over PostgreSQL: task
// configs, knowledge entries and the activity log.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cvforge/cvforge/internal/apperr"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// Store wraps the database connection pool.
type Store struct {
	db *sql.DB
}

// Open connects to the database, tunes the pool and ensures the schema
// exists.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS task_configs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		task_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		model_name TEXT NOT NULL,
		system_instruction TEXT NOT NULL DEFAULT '',
		generation_config JSONB NOT NULL DEFAULT '{}',
		safety_settings JSONB NOT NULL DEFAULT '[]',
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_task_configs_task_name ON task_configs(task_name);
	-- The single-active-config-per-task invariant, enforced by the store
	-- itself so it holds across concurrent writers from multiple processes.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_task_configs_one_active
		ON task_configs(task_name) WHERE is_active;

	CREATE TABLE IF NOT EXISTS knowledge_entries (
		id TEXT PRIMARY KEY,
		task_name TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_knowledge_task ON knowledge_entries(task_name);

	CREATE TABLE IF NOT EXISTS activity_logs (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		success BOOLEAN NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_activity_created ON activity_logs(created_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// classifyError maps database errors onto the shared taxonomy.
func classifyError(err error, notFoundFormat string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.New(apperr.KindNotFound, notFoundFormat, args...)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return apperr.Wrap(apperr.KindDuplicate, err, "uniqueness violation on %s", pqErr.Constraint)
	}

	return err
}
