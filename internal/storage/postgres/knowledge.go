package postgres

import (
	"context"
	"time"

	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"github.com/google/uuid"
)

const knowledgeColumns = `id, task_name, type, title, content, priority, is_active, created_at`

// ActiveForTask returns active knowledge for the task plus GENERAL entries,
// sorted by priority descending then recency descending.
func (s *Store) ActiveForTask(ctx context.Context, taskName string) ([]taskconfig.KnowledgeEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+knowledgeColumns+` FROM knowledge_entries
		WHERE is_active AND (task_name = $1 OR task_name = $2)
		ORDER BY priority DESC, created_at DESC`,
		taskName, taskconfig.TaskGeneral)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectKnowledge(rows)
}

// CreateKnowledge inserts a knowledge entry after validating the
// type/taskName pairing invariant.
func (s *Store) CreateKnowledge(ctx context.Context, entry *taskconfig.KnowledgeEntry) (*taskconfig.KnowledgeEntry, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	entry.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO knowledge_entries (`+knowledgeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.TaskName, entry.Type, entry.Title, entry.Content,
		entry.Priority, entry.IsActive, entry.CreatedAt)
	if err != nil {
		return nil, classifyError(err, "knowledge entry %q", entry.ID)
	}

	return entry, nil
}

// ListKnowledge returns all entries, optionally filtered by task name.
func (s *Store) ListKnowledge(ctx context.Context, taskName string) ([]taskconfig.KnowledgeEntry, error) {
	query := `SELECT ` + knowledgeColumns + ` FROM knowledge_entries`
	args := []any{}
	if taskName != "" {
		query += ` WHERE task_name = $1`
		args = append(args, taskName)
	}
	query += ` ORDER BY priority DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectKnowledge(rows)
}

// DeleteKnowledge removes an entry by id.
func (s *Store) DeleteKnowledge(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_entries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperr.New(apperr.KindNotFound, "knowledge entry %q not found", id)
	}
	return nil
}

type knowledgeRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collectKnowledge(rows knowledgeRows) ([]taskconfig.KnowledgeEntry, error) {
	var entries []taskconfig.KnowledgeEntry
	for rows.Next() {
		var entry taskconfig.KnowledgeEntry
		if err := rows.Scan(&entry.ID, &entry.TaskName, &entry.Type, &entry.Title,
			&entry.Content, &entry.Priority, &entry.IsActive, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
