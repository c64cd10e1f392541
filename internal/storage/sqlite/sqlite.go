package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/storage"
	"github.com/slok/drake/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.Repository.
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository opens (creating it if required) the journal database and applies the
// schema migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateRun stores a new run.
func (r *Repository) CreateRun(ctx context.Context, run model.Run) error {
	targets, err := json.Marshal(run.Targets)
	if err != nil {
		return fmt.Errorf("could not encode targets: %w", err)
	}

	var finishedAt *int64
	if run.FinishedAt != nil {
		u := run.FinishedAt.UnixNano()
		finishedAt = &u
	}

	query := `
		INSERT INTO runs (id, targets, status, dry_run, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		run.ID,
		string(targets),
		run.Status,
		run.DryRun,
		run.Error,
		run.StartedAt.UnixNano(),
		finishedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: runs.") {
			return fmt.Errorf("run already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert run: %w", err)
	}

	r.logger.Debugf("Created run in repository: %s", run.ID)
	return nil
}

// FinishRun sets the final state of a run.
func (r *Repository) FinishRun(ctx context.Context, id string, status model.RunStatus, runErr string, finishedAt time.Time) error {
	query := `UPDATE runs SET status = ?, error = ?, finished_at = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, status, runErr, finishedAt.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("could not update run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	r.logger.Debugf("Finished run in repository: %s", id)
	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `
		SELECT id, targets, status, dry_run, error, started_at, finished_at
		FROM runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query run: %w", err)
	}

	return run, nil
}

// ListRuns returns the latest runs first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	query := `
		SELECT id, targets, status, dry_run, error, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC, id DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query runs: %w", err)
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate runs: %w", err)
	}

	return runs, nil
}

// AddExecution stores an execution of a run.
func (r *Repository) AddExecution(ctx context.Context, e model.Execution) error {
	query := `
		INSERT INTO executions (id, run_id, sequence, task_name, task_kind, status, error, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		e.RunID,
		e.Sequence,
		e.TaskName,
		e.TaskKind,
		e.Status,
		e.Error,
		e.StartedAt.UnixNano(),
		int64(e.Duration),
	)
	if err != nil {
		switch {
		case strings.Contains(err.Error(), "UNIQUE constraint failed: executions."):
			return fmt.Errorf("execution already exists: %w", model.ErrAlreadyExists)
		case strings.Contains(err.Error(), "FOREIGN KEY constraint failed"):
			return fmt.Errorf("run %s: %w", e.RunID, model.ErrNotFound)
		}
		return fmt.Errorf("could not insert execution: %w", err)
	}

	r.logger.Debugf("Added execution %s of task %s to run %s", e.ID, e.TaskName, e.RunID)
	return nil
}

// ListExecutions returns the executions of a run in sequence order.
func (r *Repository) ListExecutions(ctx context.Context, runID string) ([]model.Execution, error) {
	if _, err := r.GetRun(ctx, runID); err != nil {
		return nil, err
	}

	query := `
		SELECT id, run_id, sequence, task_name, task_kind, status, error, started_at, duration_ns
		FROM executions
		WHERE run_id = ?
		ORDER BY sequence ASC
	`

	rows, err := r.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("could not query executions: %w", err)
	}
	defer rows.Close()

	execs := []model.Execution{}
	for rows.Next() {
		var e model.Execution
		var startedAt, duration int64
		err := rows.Scan(
			&e.ID,
			&e.RunID,
			&e.Sequence,
			&e.TaskName,
			&e.TaskKind,
			&e.Status,
			&e.Error,
			&startedAt,
			&duration,
		)
		if err != nil {
			return nil, fmt.Errorf("could not scan execution: %w", err)
		}
		e.StartedAt = time.Unix(0, startedAt).UTC()
		e.Duration = time.Duration(duration)
		execs = append(execs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("could not iterate executions: %w", err)
	}

	return execs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*model.Run, error) {
	var run model.Run
	var targets string
	var startedAt int64
	var finishedAt sql.NullInt64

	err := s.Scan(
		&run.ID,
		&targets,
		&run.Status,
		&run.DryRun,
		&run.Error,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(targets), &run.Targets); err != nil {
		return nil, fmt.Errorf("could not decode targets: %w", err)
	}
	run.StartedAt = time.Unix(0, startedAt).UTC()
	if finishedAt.Valid {
		t := time.Unix(0, finishedAt.Int64).UTC()
		run.FinishedAt = &t
	}

	return &run, nil
}
