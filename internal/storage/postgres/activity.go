package postgres

import (
	"context"

	"github.com/cvforge/cvforge/internal/activity"

	"github.com/google/uuid"
)

// InsertActivity persists one activity-log entry.
func (s *Store) InsertActivity(ctx context.Context, entry *activity.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, action, detail, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.Action, entry.Detail, entry.Success, entry.Error, entry.CreatedAt)
	return err
}

// ListActivity returns the most recent entries, newest first.
func (s *Store) ListActivity(ctx context.Context, limit int) ([]activity.Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, detail, success, error, created_at
		FROM activity_logs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []activity.Entry
	for rows.Next() {
		var entry activity.Entry
		if err := rows.Scan(&entry.ID, &entry.Action, &entry.Detail,
			&entry.Success, &entry.Error, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
