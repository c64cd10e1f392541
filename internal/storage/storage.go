package storage

import (
	"context"
	"time"

	"github.com/slok/drake/internal/model"
)

// Repository is the interface for the run journal persistence.
//
// The journal is an audit log, the engine never reads it to decide if a task is needed.
type Repository interface {
	CreateRun(ctx context.Context, r model.Run) error
	FinishRun(ctx context.Context, id string, status model.RunStatus, runErr string, finishedAt time.Time) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns the latest runs first, limit <= 0 returns all of them.
	ListRuns(ctx context.Context, limit int) ([]model.Run, error)
	AddExecution(ctx context.Context, e model.Execution) error
	// ListExecutions returns the executions of a run in sequence order.
	ListExecutions(ctx context.Context, runID string) ([]model.Execution, error)
}

// DrakefileRepository knows how to get task declarations.
type DrakefileRepository interface {
	GetDrakefile(ctx context.Context, path string) (model.Drakefile, error)
}
