package model

import "time"

// RunStatus represents the state of a run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

// Run is a single invocation of one or more targets.
type Run struct {
	ID         string
	Targets    []string
	Status     RunStatus
	DryRun     bool
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// ExecutionStatus represents the result of running the actions of a task.
type ExecutionStatus string

const (
	ExecutionStatusSucceeded ExecutionStatus = "succeeded"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusSkipped   ExecutionStatus = "skipped"
)

// Execution records a task whose actions were executed (or skipped on dry runs) in a run.
type Execution struct {
	ID        string
	RunID     string
	Sequence  int
	TaskName  string
	TaskKind  TaskKind
	Status    ExecutionStatus
	Error     string
	StartedAt time.Time
	Duration  time.Duration
}
