package model

import "fmt"

// TaskKind tells how the freshness of a task is measured.
type TaskKind string

const (
	// TaskKindPlain is a task without a backing file, it is always needed once per run.
	TaskKindPlain TaskKind = "task"
	// TaskKindFile is a task backed by a filesystem path with the same name.
	TaskKindFile TaskKind = "file"
)

// Validate checks the kind is a known one.
func (k TaskKind) Validate() error {
	switch k {
	case TaskKindPlain, TaskKindFile:
		return nil
	}
	return fmt.Errorf("unknown task kind %q: %w", k, ErrNotValid)
}

// TaskSummary is the read only view of a declared task.
type TaskSummary struct {
	Name          string
	Kind          TaskKind
	Comment       string
	Prerequisites []string
}
