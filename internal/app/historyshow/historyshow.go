package historyshow

import (
	"context"
	"fmt"

	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/storage"
)

// ServiceConfig is the configuration for the history show service.
type ServiceConfig struct {
	Repository storage.Repository
	Logger     log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryShow"})
	return nil
}

// Service shows a journaled run with its executions.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history show service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history show request parameters.
type Request struct {
	// ID of the run, `latest` shows the last run.
	ID string
}

// Result is a run with its executions in order.
type Result struct {
	Run        model.Run
	Executions []model.Execution
}

// LatestID selects the last run.
const LatestID = "latest"

// Run returns the run with its executions.
func (s *Service) Run(ctx context.Context, req Request) (*Result, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("run id is required: %w", model.ErrNotValid)
	}

	run, err := s.getRun(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	execs, err := s.repo.ListExecutions(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("could not list executions: %w", err)
	}

	s.logger.Debugf("run %s has %d executions", run.ID, len(execs))
	return &Result{Run: *run, Executions: execs}, nil
}

func (s *Service) getRun(ctx context.Context, id string) (*model.Run, error) {
	if id != LatestID {
		run, err := s.repo.GetRun(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("could not get run: %w", err)
		}
		return run, nil
	}

	runs, err := s.repo.ListRuns(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs: %w", model.ErrNotFound)
	}

	return &runs[0], nil
}
