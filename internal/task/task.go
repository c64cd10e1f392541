package task

import (
	"context"
	"fmt"
	"time"

	"github.com/slok/drake/internal/model"
)

// EarlyTime is the timestamp of a file task whose path does not exist, it is before
// any real modification time and any clock value.
var EarlyTime = time.Time{}

// Action is a unit of work of a task, it receives the task that is executing it.
type Action func(ctx context.Context, t *Task) error

// Task is a named unit of work with ordered prerequisites and actions.
//
// Plain tasks are always needed and their timestamp derives from their prerequisites.
// File tasks are backed by the path with the same name and are only needed when the
// path is missing or older than any of their prerequisites.
type Task struct {
	name     string
	kind     model.TaskKind
	registry *Registry

	// Guarded by registry.mu.
	prerequisites []string
	actions       []Action
	comment       string
	invoked       bool
	invoking      bool
}

// Name returns the task name, for file tasks it is also the path.
func (t *Task) Name() string { return t.name }

// Kind returns the kind of the task.
func (t *Task) Kind() model.TaskKind { return t.kind }

// Prerequisites returns the prerequisite names in declaration order.
func (t *Task) Prerequisites() []string {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return append([]string(nil), t.prerequisites...)
}

// Comment returns the description attached when the task was defined.
func (t *Task) Comment() string {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return t.comment
}

// Invoked returns true once the task has been traversed by an invocation.
func (t *Task) Invoked() bool {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return t.invoked
}

// Enhance appends prerequisites after the existing ones.
func (t *Task) Enhance(prerequisites ...string) *Task {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	t.prerequisites = append(t.prerequisites, prerequisites...)
	return t
}

// AddAction appends an action after the existing ones, nil actions are ignored.
func (t *Task) AddAction(a Action) *Task {
	if a == nil {
		return t
	}

	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	t.actions = append(t.actions, a)
	return t
}

// Summary returns a read only view of the task.
func (t *Task) Summary() model.TaskSummary {
	t.registry.mu.Lock()
	defer t.registry.mu.Unlock()
	return model.TaskSummary{
		Name:          t.name,
		Kind:          t.kind,
		Comment:       t.comment,
		Prerequisites: append([]string(nil), t.prerequisites...),
	}
}

// Timestamp returns the effective time the task was last produced.
//
//   - File tasks: the modification time of the path, or EarlyTime if it's missing.
//   - Plain tasks without prerequisites: the current clock time.
//   - Plain tasks with prerequisites: the latest timestamp of its prerequisites.
func (t *Task) Timestamp() (time.Time, error) {
	return t.timestamp([]string{})
}

// PrerequisitesTimestamp returns the latest timestamp of the prerequisites, false if
// the task has no prerequisites.
func (t *Task) PrerequisitesTimestamp() (time.Time, bool, error) {
	return t.prerequisitesTimestamp([]string{t.name})
}

// Needed returns true if the actions of the task must be executed.
func (t *Task) Needed() (bool, error) {
	if t.kind != model.TaskKindFile {
		return true, nil
	}

	exists, err := t.registry.fs.Exists(t.name)
	if err != nil {
		return false, err
	}
	if !exists {
		return true, nil
	}

	prereqTS, ok, err := t.PrerequisitesTimestamp()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	ts, err := t.registry.fs.ModTime(t.name)
	if err != nil {
		return false, err
	}

	return ts.Before(prereqTS), nil
}

// timestamp resolves the timestamp tracking the plain tasks being resolved, so a
// cycle of plain tasks is reported instead of recursing forever.
func (t *Task) timestamp(path []string) (time.Time, error) {
	if t.kind == model.TaskKindFile {
		return t.fileTimestamp()
	}

	for i, p := range path {
		if p == t.name {
			return time.Time{}, newCycleError(append(path[i:], t.name))
		}
	}

	ts, ok, err := t.prerequisitesTimestamp(append(path, t.name))
	if err != nil {
		return time.Time{}, err
	}
	if !ok {
		return t.registry.clock.Now(), nil
	}

	return ts, nil
}

func (t *Task) prerequisitesTimestamp(path []string) (time.Time, bool, error) {
	prereqs := t.Prerequisites()
	if len(prereqs) == 0 {
		return time.Time{}, false, nil
	}

	latest := EarlyTime
	for _, name := range prereqs {
		pt, err := t.registry.resolvePrerequisite(t.name, name)
		if err != nil {
			return time.Time{}, false, err
		}

		// Copy so sibling branches don't share the backing array.
		ts, err := pt.timestamp(append([]string(nil), path...))
		if err != nil {
			return time.Time{}, false, err
		}

		if ts.After(latest) {
			latest = ts
		}
	}

	return latest, true, nil
}

func (t *Task) fileTimestamp() (time.Time, error) {
	exists, err := t.registry.fs.Exists(t.name)
	if err != nil {
		return time.Time{}, err
	}
	if !exists {
		return EarlyTime, nil
	}

	ts, err := t.registry.fs.ModTime(t.name)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not get %q timestamp: %w", t.name, err)
	}

	return ts, nil
}
