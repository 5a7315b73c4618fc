package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cvforge/cvforge/internal/ai"
	"github.com/cvforge/cvforge/internal/apperr"
	"github.com/cvforge/cvforge/internal/taskconfig"

	"github.com/google/uuid"
)

const taskConfigColumns = `id, name, task_name, description, model_name,
	system_instruction, generation_config, safety_settings, is_active,
	created_at, updated_at`

// FindActiveByTaskName returns the single active config for the task.
func (s *Store) FindActiveByTaskName(ctx context.Context, taskName string) (*taskconfig.TaskConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskConfigColumns+` FROM task_configs WHERE task_name = $1 AND is_active`, taskName)

	cfg, err := scanTaskConfig(row)
	if err != nil {
		return nil, classifyError(err, "no active config for task %q", taskName)
	}
	return cfg, nil
}

// ActiveTaskNames lists task names that currently have an active config.
func (s *Store) ActiveTaskNames(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT task_name FROM task_configs WHERE is_active ORDER BY task_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// CreateConfig inserts a new config. When the config is created active, all
// other configs for the same task are deactivated in the same transaction.
func (s *Store) CreateConfig(ctx context.Context, cfg *taskconfig.TaskConfig) (*taskconfig.TaskConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	generation, safety, err := marshalConfigJSON(cfg)
	if err != nil {
		return nil, err
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if cfg.IsActive {
			if _, err := tx.ExecContext(ctx,
				`UPDATE task_configs SET is_active = FALSE, updated_at = $1 WHERE task_name = $2 AND is_active`,
				now, cfg.TaskName); err != nil {
				return err
			}
		}

		_, err := tx.ExecContext(ctx, `
			INSERT INTO task_configs (`+taskConfigColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			cfg.ID, cfg.Name, cfg.TaskName, cfg.Description, cfg.ModelName,
			cfg.SystemInstruction, generation, safety, cfg.IsActive,
			cfg.CreatedAt, cfg.UpdatedAt)
		return err
	})
	if err != nil {
		return nil, classifyError(err, "config %q", cfg.ID)
	}

	return cfg, nil
}

// GetConfig fetches one config by id.
func (s *Store) GetConfig(ctx context.Context, id string) (*taskconfig.TaskConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+taskConfigColumns+` FROM task_configs WHERE id = $1`, id)

	cfg, err := scanTaskConfig(row)
	if err != nil {
		return nil, classifyError(err, "config %q not found", id)
	}
	return cfg, nil
}

// ListConfigs returns every stored config, actives first within each task.
func (s *Store) ListConfigs(ctx context.Context) ([]*taskconfig.TaskConfig, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskConfigColumns+` FROM task_configs ORDER BY task_name, is_active DESC, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*taskconfig.TaskConfig
	for rows.Next() {
		cfg, err := scanTaskConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, cfg)
	}
	return configs, rows.Err()
}

// UpdateConfig rewrites a config's mutable fields. The active flag is not
// touched here: activation is its own atomic operation.
func (s *Store) UpdateConfig(ctx context.Context, cfg *taskconfig.TaskConfig) (*taskconfig.TaskConfig, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	generation, safety, err := marshalConfigJSON(cfg)
	if err != nil {
		return nil, err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE task_configs
		SET name = $2, task_name = $3, description = $4, model_name = $5,
			system_instruction = $6, generation_config = $7, safety_settings = $8,
			updated_at = $9
		WHERE id = $1`,
		cfg.ID, cfg.Name, cfg.TaskName, cfg.Description, cfg.ModelName,
		cfg.SystemInstruction, generation, safety, time.Now().UTC())
	if err != nil {
		return nil, classifyError(err, "config %q", cfg.ID)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, apperr.New(apperr.KindNotFound, "config %q not found", cfg.ID)
	}

	return s.GetConfig(ctx, cfg.ID)
}

// DeleteConfig removes a config by id.
func (s *Store) DeleteConfig(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM task_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return apperr.New(apperr.KindNotFound, "config %q not found", id)
	}
	return nil
}

// Activate marks one config active and, within the same transaction,
// deactivates every other config sharing its task name. Under concurrent
// activations the last writer wins but exactly one config stays active; the
// partial unique index backstops the invariant.
func (s *Store) Activate(ctx context.Context, id string) (*taskconfig.TaskConfig, error) {
	now := time.Now().UTC()

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var taskName string
		err := tx.QueryRowContext(ctx,
			`SELECT task_name FROM task_configs WHERE id = $1 FOR UPDATE`, id).Scan(&taskName)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE task_configs SET is_active = FALSE, updated_at = $1
			 WHERE task_name = $2 AND id <> $3 AND is_active`,
			now, taskName, id); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`UPDATE task_configs SET is_active = TRUE, updated_at = $1 WHERE id = $2`,
			now, id)
		return err
	})
	if err != nil {
		return nil, classifyError(err, "config %q not found", id)
	}

	return s.GetConfig(ctx, id)
}

// Deactivate clears a config's active flag without activating a sibling.
func (s *Store) Deactivate(ctx context.Context, id string) (*taskconfig.TaskConfig, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE task_configs SET is_active = FALSE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, apperr.New(apperr.KindNotFound, "config %q not found", id)
	}
	return s.GetConfig(ctx, id)
}

func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskConfig(row rowScanner) (*taskconfig.TaskConfig, error) {
	var (
		cfg        taskconfig.TaskConfig
		generation []byte
		safety     []byte
	)

	err := row.Scan(&cfg.ID, &cfg.Name, &cfg.TaskName, &cfg.Description,
		&cfg.ModelName, &cfg.SystemInstruction, &generation, &safety,
		&cfg.IsActive, &cfg.CreatedAt, &cfg.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if len(generation) > 0 {
		if err := json.Unmarshal(generation, &cfg.Generation); err != nil {
			return nil, fmt.Errorf("decode generation config for %q: %w", cfg.ID, err)
		}
	}
	if len(safety) > 0 {
		if err := json.Unmarshal(safety, &cfg.Safety); err != nil {
			return nil, fmt.Errorf("decode safety settings for %q: %w", cfg.ID, err)
		}
	}

	return &cfg, nil
}

func marshalConfigJSON(cfg *taskconfig.TaskConfig) (generation, safety []byte, err error) {
	generation, err = json.Marshal(cfg.Generation)
	if err != nil {
		return nil, nil, fmt.Errorf("encode generation config: %w", err)
	}

	if cfg.Safety == nil {
		cfg.Safety = []ai.SafetySetting{}
	}
	safety, err = json.Marshal(cfg.Safety)
	if err != nil {
		return nil, nil, fmt.Errorf("encode safety settings: %w", err)
	}

	return generation, safety, nil
}
