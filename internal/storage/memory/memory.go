package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	runs       map[string]model.Run
	executions map[string][]model.Execution
	mu         sync.RWMutex
	logger     log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		runs:       make(map[string]model.Run),
		executions: make(map[string][]model.Execution),
		logger:     cfg.Logger,
	}, nil
}

// CreateRun stores a new run.
func (r *Repository) CreateRun(ctx context.Context, run model.Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[run.ID]; ok {
		return fmt.Errorf("run with id %s: %w", run.ID, model.ErrAlreadyExists)
	}

	run.Targets = append([]string(nil), run.Targets...)
	r.runs[run.ID] = run
	r.logger.Debugf("Created run in repository: %s", run.ID)

	return nil
}

// FinishRun sets the final state of a run.
func (r *Repository) FinishRun(ctx context.Context, id string, status model.RunStatus, runErr string, finishedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	run.Status = status
	run.Error = runErr
	run.FinishedAt = &finishedAt
	r.runs[id] = run
	r.logger.Debugf("Finished run in repository: %s", id)

	return nil
}

// GetRun retrieves a run by ID.
func (r *Repository) GetRun(ctx context.Context, id string) (*model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, fmt.Errorf("run %s: %w", id, model.ErrNotFound)
	}

	// Return a copy
	runCopy := run
	runCopy.Targets = append([]string(nil), run.Targets...)
	return &runCopy, nil
}

// ListRuns returns the latest runs first.
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runs := make([]model.Run, 0, len(r.runs))
	for _, run := range r.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].StartedAt.Equal(runs[j].StartedAt) {
			return runs[i].StartedAt.After(runs[j].StartedAt)
		}
		return runs[i].ID > runs[j].ID
	})

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	return runs, nil
}

// AddExecution stores an execution of a run.
func (r *Repository) AddExecution(ctx context.Context, e model.Execution) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.runs[e.RunID]; !ok {
		return fmt.Errorf("run %s: %w", e.RunID, model.ErrNotFound)
	}
	for _, existing := range r.executions[e.RunID] {
		if existing.ID == e.ID || existing.Sequence == e.Sequence {
			return fmt.Errorf("execution %s: %w", e.ID, model.ErrAlreadyExists)
		}
	}

	r.executions[e.RunID] = append(r.executions[e.RunID], e)
	r.logger.Debugf("Added execution %s of task %s to run %s", e.ID, e.TaskName, e.RunID)

	return nil
}

// ListExecutions returns the executions of a run in sequence order.
func (r *Repository) ListExecutions(ctx context.Context, runID string) ([]model.Execution, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.runs[runID]; !ok {
		return nil, fmt.Errorf("run %s: %w", runID, model.ErrNotFound)
	}

	execs := append([]model.Execution{}, r.executions[runID]...)
	sort.Slice(execs, func(i, j int) bool { return execs[i].Sequence < execs[j].Sequence })

	return execs, nil
}
