package task

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/slok/drake/internal/filesystem"
	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
)

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc is a Clock implemented by a function.
type ClockFunc func() time.Time

func (c ClockFunc) Now() time.Time { return c() }

// FailurePolicy tells what to do with the output of a file task whose action failed.
type FailurePolicy string

const (
	// FailurePolicyKeep leaves the output untouched.
	FailurePolicyKeep FailurePolicy = "keep"
	// FailurePolicyRemoveOutput removes the path of the failed file task.
	FailurePolicyRemoveOutput FailurePolicy = "remove-output"
)

// RegistryConfig is the configuration of the Registry.
type RegistryConfig struct {
	// Filesystem is used for file task freshness and directory creation, the OS by default.
	Filesystem filesystem.Provider
	// Clock is used for plain task timestamps, time.Now by default.
	Clock Clock
	// FailurePolicy is applied when a file task action fails, FailurePolicyKeep by default.
	FailurePolicy FailurePolicy
	// ImplicitFiles makes undeclared prerequisites that exist on the filesystem
	// resolve to file tasks without actions.
	ImplicitFiles bool
	// DryRun reports the tasks that would be executed without running their actions.
	DryRun bool
	// Hooks are called around each task execution.
	Hooks  Hooks
	Logger log.Logger
}

func (c *RegistryConfig) defaults() error {
	if c.Filesystem == nil {
		c.Filesystem = filesystem.OS{}
	}

	if c.Clock == nil {
		c.Clock = ClockFunc(time.Now)
	}

	switch c.FailurePolicy {
	case "":
		c.FailurePolicy = FailurePolicyKeep
	case FailurePolicyKeep, FailurePolicyRemoveOutput:
	default:
		return fmt.Errorf("unknown failure policy %q", c.FailurePolicy)
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "task.Registry"})

	return nil
}

// Registry is the namespace of tasks of a run.
//
// Declarations are safe to make from multiple goroutines, invocations are not: a
// registry is meant to be invoked by a single goroutine at a time.
type Registry struct {
	fs            filesystem.Provider
	clock         Clock
	failurePolicy FailurePolicy
	implicitFiles bool
	dryRun        bool
	hooks         Hooks
	logger        log.Logger

	mu             sync.Mutex
	tasks          map[string]*Task
	pendingComment string
}

// NewRegistry returns an empty registry.
func NewRegistry(cfg RegistryConfig) (*Registry, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Registry{
		fs:            cfg.Filesystem,
		clock:         cfg.Clock,
		failurePolicy: cfg.FailurePolicy,
		implicitFiles: cfg.ImplicitFiles,
		dryRun:        cfg.DryRun,
		hooks:         cfg.Hooks,
		logger:        cfg.Logger,
		tasks:         map[string]*Task{},
	}, nil
}

// Lookup returns the task registered with the name.
func (r *Registry) Lookup(name string) (*Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[name]
	if !ok {
		return nil, fmt.Errorf("don't know how to build task %q: %w", name, model.ErrNotFound)
	}

	return t, nil
}

// LookupOrCreateFile returns the task registered with the name, if missing a file task
// without prerequisites or actions is registered.
func (r *Registry) LookupOrCreateFile(name string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolve(name, model.TaskKindFile)
}

// Define resolves or creates the task and accumulates the prerequisites and the action
// on it. The pending description, if any, is attached to the task and cleared.
//
// An already registered task keeps its kind.
func (r *Registry) Define(name string, prerequisites []string, action Action, kind model.TaskKind) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := r.resolve(name, kind)
	t.prerequisites = append(t.prerequisites, prerequisites...)
	if action != nil {
		t.actions = append(t.actions, action)
	}
	if r.pendingComment != "" {
		t.comment = r.pendingComment
		r.pendingComment = ""
	}

	return t
}

// Task defines a plain task.
func (r *Registry) Task(name string, prerequisites []string, action Action) *Task {
	return r.Define(name, prerequisites, action, model.TaskKindPlain)
}

// File defines a file task.
func (r *Registry) File(name string, prerequisites []string, action Action) *Task {
	return r.Define(name, prerequisites, action, model.TaskKindFile)
}

// Directory defines a file task for the path and one for each of its ancestors, each one
// depending on its parent and creating only its own directory level. The pending
// description is attached only to the task of the path, which is returned.
func (r *Registry) Directory(path string) *Task {
	r.mu.Lock()
	comment := r.pendingComment
	r.pendingComment = ""
	r.mu.Unlock()

	chain := filesystem.Ancestors(r.fs, path)
	var leaf *Task
	for i, dir := range chain {
		var prereqs []string
		if i > 0 {
			prereqs = []string{chain[i-1]}
		}
		leaf = r.File(dir, prereqs, r.mkdir)
	}

	if comment != "" {
		r.mu.Lock()
		leaf.comment = comment
		r.mu.Unlock()
	}

	return leaf
}

// Describe sets the description of the next defined task. A description that is not
// consumed is replaced by the next one.
func (r *Registry) Describe(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pendingComment = text
}

// Clear removes all the tasks and the pending description.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = map[string]*Task{}
	r.pendingComment = ""
}

// Tasks returns the registered tasks sorted by name.
func (r *Registry) Tasks() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]*Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		tasks = append(tasks, t)
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].name < tasks[j].name })

	return tasks
}

// Invoke looks up the task and invokes it.
func (r *Registry) Invoke(ctx context.Context, name string) error {
	t, err := r.Lookup(name)
	if err != nil {
		return err
	}

	return t.Invoke(ctx)
}

// resolve must be called with the lock held.
func (r *Registry) resolve(name string, kind model.TaskKind) *Task {
	if t, ok := r.tasks[name]; ok {
		return t
	}

	t := &Task{name: name, kind: kind, registry: r}
	r.tasks[name] = t
	return t
}

func (r *Registry) resolvePrerequisite(dependent, name string) (*Task, error) {
	t, err := r.Lookup(name)
	if err == nil {
		return t, nil
	}

	if r.implicitFiles {
		exists, ferr := r.fs.Exists(name)
		if ferr != nil {
			return nil, ferr
		}
		if exists {
			return r.LookupOrCreateFile(name), nil
		}
	}

	return nil, fmt.Errorf("%w, needed by %q", err, dependent)
}

func (r *Registry) mkdir(ctx context.Context, t *Task) error {
	exists, err := r.fs.Exists(t.name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	r.logger.WithCtxValues(ctx).Debugf("mkdir %s", t.name)
	return r.fs.Mkdir(t.name)
}
