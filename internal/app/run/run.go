package run

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/drake/internal/drakefile"
	"github.com/slok/drake/internal/filesystem"
	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/shell"
	"github.com/slok/drake/internal/storage"
	"github.com/slok/drake/internal/task"
	utilsenv "github.com/slok/drake/internal/utils/env"
)

// ServiceConfig is the configuration for the run service.
type ServiceConfig struct {
	DrakefileRepository storage.DrakefileRepository
	// Repository is the run journal, runs are not recorded if missing.
	Repository storage.Repository
	// Dir is where commands run and relative task paths are resolved.
	Dir string
	// Filesystem is the OS rooted at Dir by default.
	Filesystem filesystem.Provider
	Clock      task.Clock
	// Shell is the command interpreter, `sh` by default.
	Shell  string
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.DrakefileRepository == nil {
		return fmt.Errorf("drakefile repository is required")
	}
	if c.Filesystem == nil {
		c.Filesystem = filesystem.OS{Root: c.Dir}
	}
	if c.Clock == nil {
		c.Clock = task.ClockFunc(time.Now)
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Run"})
	return nil
}

// Service loads a Drakefile and invokes its targets.
type Service struct {
	dfRepo storage.DrakefileRepository
	repo   storage.Repository
	dir    string
	fs     filesystem.Provider
	clock  task.Clock
	shell  string
	stdout io.Writer
	stderr io.Writer
	logger log.Logger
}

// NewService creates a new run service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		dfRepo: cfg.DrakefileRepository,
		repo:   cfg.Repository,
		dir:    cfg.Dir,
		fs:     cfg.Filesystem,
		clock:  cfg.Clock,
		shell:  cfg.Shell,
		stdout: cfg.Stdout,
		stderr: cfg.Stderr,
		logger: cfg.Logger,
	}, nil
}

// Request contains the parameters of a run.
type Request struct {
	DrakefilePath string
	// Targets are invoked in order, if empty the Drakefile default is used.
	Targets []string
	// Env overrides the Drakefile environment.
	Env           map[string]string
	DryRun        bool
	FailurePolicy task.FailurePolicy
}

// Result is the outcome of a run.
type Result struct {
	Run        model.Run
	Executions []model.Execution
}

// Run invokes the targets of the Drakefile in order, stopping on the first failure.
//
// Once the run has started the result is returned even if the run failed.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	// 1. Load Drakefile.
	df, err := s.dfRepo.GetDrakefile(ctx, req.DrakefilePath)
	if err != nil {
		return nil, fmt.Errorf("could not load drakefile: %w", err)
	}

	runner, err := shell.NewRunner(shell.RunnerConfig{
		Shell:  s.shell,
		Dir:    s.dir,
		Env:    utilsenv.MergeMaps(df.Env, req.Env),
		Stdout: s.stdout,
		Stderr: s.stderr,
		Logger: s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create shell runner: %w", err)
	}

	// 2. Declare tasks.
	now := s.clock.Now().UTC()
	rec := &recorder{
		repo:   s.repo,
		logger: s.logger,
		result: &Result{Run: model.Run{
			ID:        ulid.Make().String(),
			Targets:   drakefile.Targets(df, req.Targets),
			Status:    model.RunStatusRunning,
			DryRun:    req.DryRun,
			StartedAt: now,
		}},
	}

	reg, err := task.NewRegistry(task.RegistryConfig{
		Filesystem:    s.fs,
		Clock:         s.clock,
		FailurePolicy: req.FailurePolicy,
		ImplicitFiles: true,
		DryRun:        req.DryRun,
		Hooks:         task.Hooks{OnExecuteFinish: rec.onExecuteFinish},
		Logger:        s.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create task registry: %w", err)
	}

	if err := drakefile.Declare(reg, df, runner.Action); err != nil {
		return nil, fmt.Errorf("could not declare tasks: %w", err)
	}

	// 3. Journal the run start.
	result := rec.result
	if s.repo != nil {
		if err := s.repo.CreateRun(ctx, result.Run); err != nil {
			return nil, fmt.Errorf("could not store run: %w", err)
		}
	}

	// 4. Invoke targets.
	ctx = s.logger.SetValuesOnCtx(ctx, log.Kv{"run": result.Run.ID})
	var runErr error
	for _, target := range result.Run.Targets {
		if runErr = reg.Invoke(ctx, target); runErr != nil {
			break
		}
	}

	// 5. Journal the run end.
	finishedAt := s.clock.Now().UTC()
	rec.mu.Lock()
	result.Run.FinishedAt = &finishedAt
	result.Run.Status = model.RunStatusSucceeded
	if runErr != nil {
		result.Run.Status = model.RunStatusFailed
		result.Run.Error = runErr.Error()
	}
	rec.mu.Unlock()

	if s.repo != nil {
		err := s.repo.FinishRun(context.WithoutCancel(ctx), result.Run.ID, result.Run.Status, result.Run.Error, finishedAt)
		if err != nil {
			s.logger.Errorf("Could not store run %s result: %s", result.Run.ID, err)
		}
	}

	if runErr != nil {
		return result, fmt.Errorf("run %s failed: %w", result.Run.ID, runErr)
	}

	s.logger.Debugf("Run %s finished with %d executions", result.Run.ID, len(result.Executions))
	return result, nil
}

// recorder collects the executions of a run and stores them in the journal.
type recorder struct {
	repo   storage.Repository
	logger log.Logger

	mu     sync.Mutex
	result *Result
}

func (r *recorder) onExecuteFinish(ctx context.Context, e task.Event) {
	status := model.ExecutionStatusSucceeded
	errMsg := ""
	switch {
	case e.Err != nil:
		status = model.ExecutionStatusFailed
		errMsg = e.Err.Error()
	case e.DryRun:
		status = model.ExecutionStatusSkipped
	}

	r.mu.Lock()
	exec := model.Execution{
		ID:        ulid.Make().String(),
		RunID:     r.result.Run.ID,
		Sequence:  len(r.result.Executions) + 1,
		TaskName:  e.Task,
		TaskKind:  e.Kind,
		Status:    status,
		Error:     errMsg,
		StartedAt: e.StartedAt.UTC(),
		Duration:  e.Duration,
	}
	r.result.Executions = append(r.result.Executions, exec)
	r.mu.Unlock()

	if r.repo == nil {
		return
	}

	if err := r.repo.AddExecution(context.WithoutCancel(ctx), exec); err != nil {
		r.logger.WithCtxValues(ctx).Errorf("Could not store execution of %s: %s", e.Task, err)
	}
}
