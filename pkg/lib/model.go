package lib

import (
	"context"
	"time"

	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/task"
)

// TaskKind identifies the freshness rules of a task.
type TaskKind string

const (
	// TaskKindPlain tasks are always executed when invoked.
	TaskKindPlain TaskKind = "task"
	// TaskKindFile tasks are executed only when their path is missing or older than
	// any of their prerequisites.
	TaskKindFile TaskKind = "file"
)

// FailurePolicy tells what to do with the output of a file task whose action failed.
type FailurePolicy string

const (
	// FailurePolicyKeep leaves the output untouched (default).
	FailurePolicyKeep FailurePolicy = "keep"
	// FailurePolicyRemoveOutput removes the path of the failed file task.
	FailurePolicyRemoveOutput FailurePolicy = "remove-output"
)

// EarlyTime is the timestamp of a file task whose path does not exist.
var EarlyTime = task.EarlyTime

// Task is a read-only view of a registered task at the time of the call.
type Task struct {
	// Name of the task, for file tasks it's also the path.
	Name string
	Kind TaskKind
	// Comment is the description set with [Engine.Describe].
	Comment string
	// Prerequisites in declaration order.
	Prerequisites []string
}

// Action is executed when a needed task is invoked, it receives the executing task.
type Action func(ctx context.Context, t Task) error

var (
	// ErrNotFound is returned when a task is not registered.
	ErrNotFound = model.ErrNotFound
	// ErrNotValid is returned on invalid input.
	ErrNotValid = model.ErrNotValid
	// ErrCycle is returned when a task depends on itself.
	ErrCycle = model.ErrCycle
	// ErrActionFailed is returned when a task action fails, the action error is wrapped.
	ErrActionFailed = model.ErrActionFailed
)

func fromInternalTask(t *task.Task) Task {
	s := t.Summary()
	return Task{
		Name:          s.Name,
		Kind:          TaskKind(s.Kind),
		Comment:       s.Comment,
		Prerequisites: s.Prerequisites,
	}
}

func toInternalAction(a Action) task.Action {
	if a == nil {
		return nil
	}
	return func(ctx context.Context, t *task.Task) error {
		return a(ctx, fromInternalTask(t))
	}
}

func toInternalClock(now func() time.Time) task.Clock {
	if now == nil {
		return nil
	}
	return task.ClockFunc(now)
}
