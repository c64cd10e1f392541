package historylist

import (
	"context"
	"fmt"

	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/storage"
)

// DefaultLimit is the number of runs listed when no limit is requested.
const DefaultLimit = 20

// ServiceConfig is the configuration for the history list service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.HistoryList"})
	return nil
}

// Service lists the journaled runs.
type Service struct {
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new history list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history list request parameters.
type Request struct {
	// Limit is the max number of runs, DefaultLimit if 0 and unlimited if negative.
	Limit int
	// StatusFilter is an optional filter to only show runs with this status.
	StatusFilter *model.RunStatus
}

// Run lists the latest runs first.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Run, error) {
	limit := req.Limit
	switch {
	case limit == 0:
		limit = DefaultLimit
	case limit < 0:
		limit = 0
	}

	// The status filter must see every run before the limit is applied.
	repoLimit := limit
	if req.StatusFilter != nil {
		repoLimit = 0
	}

	runs, err := s.repo.ListRuns(ctx, repoLimit)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}

	if req.StatusFilter != nil {
		filtered := make([]model.Run, 0, len(runs))
		for _, r := range runs {
			if r.Status == *req.StatusFilter {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}

	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}

	s.logger.Debugf("found %d runs", len(runs))
	return runs, nil
}
