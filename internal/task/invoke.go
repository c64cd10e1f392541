package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
)

// ActionError is returned when an action of a task fails.
type ActionError struct {
	Task  string
	Index int
	Err   error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("task %q action %d failed: %s", e.Task, e.Index, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

func (e *ActionError) Is(target error) bool { return target == model.ErrActionFailed }

// CycleError is returned when a task is reached again through its own prerequisites.
type CycleError struct {
	Path []string
}

func newCycleError(path []string) *CycleError {
	return &CycleError{Path: append([]string(nil), path...)}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", model.ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Is(target error) bool { return target == model.ErrCycle }

// Event describes the execution of the actions of a task.
type Event struct {
	Task      string
	Kind      model.TaskKind
	DryRun    bool
	StartedAt time.Time
	Duration  time.Duration
	// Err is only set on finish events.
	Err error
}

// HookFunc is called on task execution events.
type HookFunc func(ctx context.Context, e Event)

// Hooks are optional callbacks around the execution of needed tasks. Tasks that are
// up to date don't trigger hooks.
type Hooks struct {
	OnExecuteStart  HookFunc
	OnExecuteFinish HookFunc
}

// Merge combines two hook sets, running the receiver first.
func (h Hooks) Merge(other Hooks) Hooks {
	return Hooks{
		OnExecuteStart:  chainHooks(h.OnExecuteStart, other.OnExecuteStart),
		OnExecuteFinish: chainHooks(h.OnExecuteFinish, other.OnExecuteFinish),
	}
}

func chainHooks(a, b HookFunc) HookFunc {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e Event) {
		a(ctx, e)
		b(ctx, e)
	}
}

func (h Hooks) start(ctx context.Context, e Event) {
	if h.OnExecuteStart != nil {
		h.OnExecuteStart(ctx, e)
	}
}

func (h Hooks) finish(ctx context.Context, e Event) {
	if h.OnExecuteFinish != nil {
		h.OnExecuteFinish(ctx, e)
	}
}

// Invoke invokes the prerequisites in declaration order and then, if the task is
// needed, executes its actions in order.
//
// A task is traversed at most once per registry: later invocations are no-ops even if
// the first one failed, failed tasks are not retried. Any error aborts the remaining
// traversal and is returned to the caller. Recursion depth is bounded by the number of
// registered tasks because reaching a task that is still being invoked returns a
// CycleError.
func (t *Task) Invoke(ctx context.Context) error {
	return t.invoke(ctx, nil)
}

func (t *Task) invoke(ctx context.Context, chain []string) error {
	r := t.registry

	r.mu.Lock()
	if t.invoked {
		r.mu.Unlock()
		return nil
	}
	if t.invoking {
		r.mu.Unlock()
		return newCycleError(cycleFrom(chain, t.name))
	}
	t.invoking = true
	prereqs := append([]string(nil), t.prerequisites...)
	r.mu.Unlock()

	defer func() {
		r.mu.Lock()
		t.invoking = false
		t.invoked = true
		r.mu.Unlock()
	}()

	ctx = r.logger.SetValuesOnCtx(ctx, log.Kv{"task": t.name})
	logger := r.logger.WithCtxValues(ctx)
	logger.Debugf("Invoke %s", t.name)

	chain = append(append([]string(nil), chain...), t.name)
	for _, name := range prereqs {
		pt, err := r.resolvePrerequisite(t.name, name)
		if err != nil {
			return err
		}
		if err := pt.invoke(ctx, chain); err != nil {
			return err
		}
	}

	needed, err := t.Needed()
	if err != nil {
		return fmt.Errorf("could not check if %q is needed: %w", t.name, err)
	}
	if !needed {
		logger.Debugf("Skip %s (up to date)", t.name)
		return nil
	}

	return t.execute(ctx, logger)
}

func (t *Task) execute(ctx context.Context, logger log.Logger) error {
	r := t.registry

	r.mu.Lock()
	actions := append([]Action(nil), t.actions...)
	r.mu.Unlock()

	ev := Event{Task: t.name, Kind: t.kind, DryRun: r.dryRun, StartedAt: r.clock.Now()}
	r.hooks.start(ctx, ev)

	if r.dryRun {
		logger.Infof("Execute (dry run) %s", t.name)
		ev.Duration = r.clock.Now().Sub(ev.StartedAt)
		r.hooks.finish(ctx, ev)
		return nil
	}

	logger.Debugf("Execute %s", t.name)
	var err error
	for i, a := range actions {
		if cerr := ctx.Err(); cerr != nil {
			err = fmt.Errorf("task %q interrupted: %w", t.name, cerr)
			break
		}
		if aerr := a(ctx, t); aerr != nil {
			err = &ActionError{Task: t.name, Index: i, Err: aerr}
			break
		}
	}

	if err != nil && t.kind == model.TaskKindFile && r.failurePolicy == FailurePolicyRemoveOutput {
		err = t.removeOutput(logger, err)
	}

	ev.Duration = r.clock.Now().Sub(ev.StartedAt)
	ev.Err = err
	r.hooks.finish(ctx, ev)

	return err
}

func (t *Task) removeOutput(logger log.Logger, actionErr error) error {
	exists, err := t.registry.fs.Exists(t.name)
	if err != nil {
		return errors.Join(actionErr, err)
	}
	if !exists {
		return actionErr
	}

	logger.Warningf("Removing %s output after failure", t.name)
	if err := t.registry.fs.Remove(t.name); err != nil {
		return errors.Join(actionErr, err)
	}

	return actionErr
}

func cycleFrom(chain []string, name string) []string {
	for i, n := range chain {
		if n == name {
			return append(append([]string(nil), chain[i:]...), name)
		}
	}
	return append(append([]string(nil), chain...), name)
}
