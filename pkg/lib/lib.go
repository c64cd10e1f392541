package lib

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/slok/drake/internal/drakefile"
	"github.com/slok/drake/internal/filesystem"
	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/shell"
	storageio "github.com/slok/drake/internal/storage/io"
	"github.com/slok/drake/internal/task"
	utilsenv "github.com/slok/drake/internal/utils/env"
)

// Config configures the SDK engine.
//
// All fields are optional, an empty Config{} resolves file tasks from the
// current working directory and keeps the outputs of failed file tasks.
type Config struct {
	// Dir is the directory relative file task paths are resolved from and where
	// Drakefile commands run.
	// Default: the current working directory.
	Dir string

	// FailurePolicy is applied when a file task action fails.
	// Default: [FailurePolicyKeep].
	FailurePolicy FailurePolicy

	// ImplicitFiles makes undeclared prerequisites that exist on disk resolve
	// to file tasks without actions.
	ImplicitFiles bool

	// DryRun reports the needed tasks without running their actions.
	DryRun bool

	// Now is the clock used for plain task timestamps.
	// Default: time.Now.
	Now func() time.Time

	// Stdout and Stderr receive the output of Drakefile commands.
	// Default: discarded.
	Stdout io.Writer
	Stderr io.Writer

	// Logger receives structured log output from the SDK.
	// Default: noop (silent). See the log sub-package for the interface.
	Logger log.Logger
}

func (c *Config) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}

	switch c.FailurePolicy {
	case "", FailurePolicyKeep, FailurePolicyRemoveOutput:
	default:
		return fmt.Errorf("unknown failure policy %q: %w", c.FailurePolicy, ErrNotValid)
	}

	return nil
}

// Engine is the SDK entry point to declare and invoke tasks programmatically.
//
// Declarations are safe for concurrent use, invocations must be made from a
// single goroutine at a time.
type Engine struct {
	reg    *task.Registry
	dir    string
	stdout io.Writer
	stderr io.Writer
	logger log.Logger
}

// New creates a new engine without tasks.
func New(cfg Config) (*Engine, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	reg, err := task.NewRegistry(task.RegistryConfig{
		Filesystem:    filesystem.OS{Root: cfg.Dir},
		Clock:         toInternalClock(cfg.Now),
		FailurePolicy: task.FailurePolicy(cfg.FailurePolicy),
		ImplicitFiles: cfg.ImplicitFiles,
		DryRun:        cfg.DryRun,
		Logger:        cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create task registry: %w", err)
	}

	return &Engine{
		reg:    reg,
		dir:    cfg.Dir,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		logger: cfg.Logger,
	}, nil
}

// Describe sets the description of the next defined task.
func (e *Engine) Describe(text string) { e.reg.Describe(text) }

// Task defines a plain task, or adds prerequisites and the action to an existing one.
func (e *Engine) Task(name string, prerequisites []string, action Action) Task {
	return fromInternalTask(e.reg.Task(name, prerequisites, toInternalAction(action)))
}

// File defines a file task, or adds prerequisites and the action to an existing one.
func (e *Engine) File(name string, prerequisites []string, action Action) Task {
	return fromInternalTask(e.reg.File(name, prerequisites, toInternalAction(action)))
}

// Directory defines a file task for the path and each of its ancestors that
// creates the missing directories.
func (e *Engine) Directory(path string) Task {
	return fromInternalTask(e.reg.Directory(path))
}

// Enhance appends prerequisites and the action to a registered task.
func (e *Engine) Enhance(name string, prerequisites []string, action Action) (Task, error) {
	t, err := e.reg.Lookup(name)
	if err != nil {
		return Task{}, err
	}

	t.Enhance(prerequisites...).AddAction(toInternalAction(action))
	return fromInternalTask(t), nil
}

// Lookup returns the registered task.
func (e *Engine) Lookup(name string) (Task, error) {
	t, err := e.reg.Lookup(name)
	if err != nil {
		return Task{}, err
	}
	return fromInternalTask(t), nil
}

// Tasks returns the registered tasks sorted by name.
func (e *Engine) Tasks() []Task {
	tasks := e.reg.Tasks()
	result := make([]Task, len(tasks))
	for i, t := range tasks {
		result[i] = fromInternalTask(t)
	}
	return result
}

// Timestamp returns the effective timestamp of the task.
func (e *Engine) Timestamp(name string) (time.Time, error) {
	t, err := e.reg.Lookup(name)
	if err != nil {
		return time.Time{}, err
	}
	return t.Timestamp()
}

// Needed returns true if the actions of the task would be executed.
func (e *Engine) Needed(name string) (bool, error) {
	t, err := e.reg.Lookup(name)
	if err != nil {
		return false, err
	}
	return t.Needed()
}

// Invoke invokes the prerequisites of the task and executes it if needed. Each task
// is invoked at most once per engine, use [Engine.Clear] to start over.
func (e *Engine) Invoke(ctx context.Context, name string) error {
	return e.reg.Invoke(ctx, name)
}

// Clear removes all the tasks.
func (e *Engine) Clear() { e.reg.Clear() }

// LoadDrakefileOpts are the options to load a Drakefile.
type LoadDrakefileOpts struct {
	// Env is added to the Drakefile environment of the commands.
	Env map[string]string
	// Shell runs the commands, `sh` by default.
	Shell string
}

// LoadDrakefile declares the tasks of a YAML Drakefile, their commands run as
// shell actions from the engine directory. It returns the Drakefile default target.
func (e *Engine) LoadDrakefile(ctx context.Context, fsys fs.FS, path string, opts *LoadDrakefileOpts) (string, error) {
	if opts == nil {
		opts = &LoadDrakefileOpts{}
	}

	df, err := storageio.NewDrakefileYAMLRepository(fsys).GetDrakefile(ctx, path)
	if err != nil {
		return "", fmt.Errorf("could not load drakefile: %w", err)
	}

	runner, err := shell.NewRunner(shell.RunnerConfig{
		Shell:  opts.Shell,
		Dir:    e.dir,
		Env:    utilsenv.MergeMaps(df.Env, opts.Env),
		Stdout: e.stdout,
		Stderr: e.stderr,
		Logger: e.logger,
	})
	if err != nil {
		return "", fmt.Errorf("could not create shell runner: %w: %w", err, ErrNotValid)
	}

	if err := drakefile.Declare(e.reg, df, runner.Action); err != nil {
		return "", err
	}

	return df.Default, nil
}
