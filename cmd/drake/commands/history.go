package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/drake/internal/app/historylist"
	"github.com/slok/drake/internal/app/historyshow"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/printer"
)

// NewHistoryCommand returns the parent command of the run journal subcommands.
func NewHistoryCommand(app *kingpin.Application) *kingpin.CmdClause {
	return app.Command("history", "Inspect the recorded runs.")
}

type HistoryListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	limit        int
	statusFilter string
	format       string
}

// NewHistoryListCommand returns the history list command.
func NewHistoryListCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *HistoryListCommand {
	c := &HistoryListCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("list", "List the latest runs.").Default()
	c.Cmd.Flag("limit", "Max number of runs, negative for all.").Default("20").IntVar(&c.limit)
	c.Cmd.Flag("status", "Filter by status (running, succeeded, failed).").StringVar(&c.statusFilter)
	c.Cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c HistoryListCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryListCommand) Run(ctx context.Context) error {
	var statusFilter *model.RunStatus
	if c.statusFilter != "" {
		status := model.RunStatus(strings.ToLower(c.statusFilter))
		switch status {
		case model.RunStatusRunning, model.RunStatusSucceeded, model.RunStatusFailed:
			statusFilter = &status
		default:
			return fmt.Errorf("invalid status filter: %s (must be: running, succeeded, failed)", c.statusFilter)
		}
	}

	repo, err := c.rootCmd.journal(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := historylist.NewService(historylist.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	runs, err := svc.Run(ctx, historylist.Request{
		Limit:        c.limit,
		StatusFilter: statusFilter,
	})
	if err != nil {
		return fmt.Errorf("could not list runs: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintRunList(runs); err != nil {
		return fmt.Errorf("could not print runs: %w", err)
	}

	return nil
}

type HistoryShowCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	id     string
	format string
}

// NewHistoryShowCommand returns the history show command.
func NewHistoryShowCommand(rootCmd *RootCommand, parent *kingpin.CmdClause) *HistoryShowCommand {
	c := &HistoryShowCommand{rootCmd: rootCmd}

	c.Cmd = parent.Command("show", "Show a run with its task executions.")
	c.Cmd.Arg("id", "Run ID, `latest` for the last run.").Default(historyshow.LatestID).StringVar(&c.id)
	c.Cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c HistoryShowCommand) Name() string { return c.Cmd.FullCommand() }

func (c HistoryShowCommand) Run(ctx context.Context) error {
	repo, err := c.rootCmd.journal(ctx)
	if err != nil {
		return err
	}
	defer repo.Close()

	svc, err := historyshow.NewService(historyshow.ServiceConfig{
		Repository: repo,
		Logger:     c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	res, err := svc.Run(ctx, historyshow.Request{ID: c.id})
	if err != nil {
		return fmt.Errorf("could not show run: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintRun(res.Run, res.Executions); err != nil {
		return fmt.Errorf("could not print run: %w", err)
	}

	return nil
}
