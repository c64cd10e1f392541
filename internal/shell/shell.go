// Package shell runs Drakefile commands as task actions.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/slok/drake/internal/conventions"
	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/task"
	utilsenv "github.com/slok/drake/internal/utils/env"
)

// ExitError is returned when a command exits with a non zero code.
type ExitError struct {
	Command  string
	ExitCode int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("command %q exited with code %d", e.Command, e.ExitCode)
}

// RunnerConfig is the configuration of the Runner.
type RunnerConfig struct {
	// Shell is the interpreter called with `-c`, `sh` by default.
	Shell string
	// Dir is the working directory of the commands, the current one by default.
	Dir string
	// Env is added to the process environment of every command.
	Env    map[string]string
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

func (c *RunnerConfig) defaults() error {
	if c.Shell == "" {
		c.Shell = "sh"
	}

	for k := range c.Env {
		if !utilsenv.IsValidKey(k) {
			return fmt.Errorf("invalid environment variable key %q", k)
		}
	}

	if c.Stdout == nil {
		c.Stdout = io.Discard
	}
	if c.Stderr == nil {
		c.Stderr = io.Discard
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "shell.Runner"})

	return nil
}

// Runner executes shell commands.
type Runner struct {
	shell  string
	dir    string
	env    map[string]string
	stdout io.Writer
	stderr io.Writer
	logger log.Logger
}

// NewRunner returns a new shell runner.
func NewRunner(cfg RunnerConfig) (*Runner, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Runner{
		shell:  cfg.Shell,
		dir:    cfg.Dir,
		env:    cfg.Env,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		logger: cfg.Logger,
	}, nil
}

// Action returns a task action that runs the commands in order, stopping on the first
// failure. Nil is returned when there are no commands.
func (r *Runner) Action(commands []string) task.Action {
	if len(commands) == 0 {
		return nil
	}

	commands = append([]string(nil), commands...)
	return func(ctx context.Context, t *task.Task) error {
		for _, command := range commands {
			if err := r.Run(ctx, t.Name(), command); err != nil {
				return err
			}
		}
		return nil
	}
}

// Run executes a single command on behalf of the task.
func (r *Runner) Run(ctx context.Context, taskName, command string) error {
	logger := r.logger.WithCtxValues(ctx)
	logger.Debugf("Running %s -c %q", r.shell, command)

	env := utilsenv.MergeMaps(r.env, map[string]string{conventions.EnvTaskName: taskName})

	cmd := exec.CommandContext(ctx, r.shell, "-c", command)
	cmd.Dir = r.dir
	cmd.Env = append(os.Environ(), utilsenv.Environ(env)...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return &ExitError{Command: command, ExitCode: exitErr.ExitCode()}
		}
		return fmt.Errorf("could not run command %q: %w", command, err)
	}

	return nil
}
