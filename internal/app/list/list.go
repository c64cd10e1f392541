package list

import (
	"context"
	"fmt"

	"github.com/slok/drake/internal/drakefile"
	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/storage"
	"github.com/slok/drake/internal/task"
)

// ServiceConfig is the configuration for the list service.
type ServiceConfig struct {
	DrakefileRepository storage.DrakefileRepository
	Logger              log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.DrakefileRepository == nil {
		return fmt.Errorf("drakefile repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.List"})

	return nil
}

// Service lists the tasks of a Drakefile.
type Service struct {
	dfRepo storage.DrakefileRepository
	logger log.Logger
}

// NewService creates a new list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		dfRepo: cfg.DrakefileRepository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the list request parameters.
type Request struct {
	DrakefilePath string
	// All includes the tasks without description.
	All bool
}

// Run lists the tasks sorted by name, by default only the described ones.
func (s *Service) Run(ctx context.Context, req Request) ([]model.TaskSummary, error) {
	df, err := s.dfRepo.GetDrakefile(ctx, req.DrakefilePath)
	if err != nil {
		return nil, fmt.Errorf("could not load drakefile: %w", err)
	}

	reg, err := task.NewRegistry(task.RegistryConfig{Logger: s.logger})
	if err != nil {
		return nil, fmt.Errorf("could not create task registry: %w", err)
	}

	if err := drakefile.Declare(reg, df, nil); err != nil {
		return nil, fmt.Errorf("could not declare tasks: %w", err)
	}

	tasks := []model.TaskSummary{}
	for _, t := range reg.Tasks() {
		summary := t.Summary()
		if !req.All && summary.Comment == "" {
			continue
		}
		tasks = append(tasks, summary)
	}

	s.logger.Debugf("found %d tasks", len(tasks))
	return tasks, nil
}
