package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	"github.com/slok/drake/internal/app/list"
	"github.com/slok/drake/internal/printer"
)

type ListCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	all    bool
	format string
}

// NewListCommand returns the list command.
func NewListCommand(rootCmd *RootCommand, app *kingpin.Application) *ListCommand {
	c := &ListCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("list", "List the described Drakefile tasks.")
	c.Cmd.Flag("all", "List also the tasks without description.").Short('A').BoolVar(&c.all)
	c.Cmd.Flag("format", "Output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c ListCommand) Name() string { return c.Cmd.FullCommand() }

func (c ListCommand) Run(ctx context.Context) error {
	dfRepo, _, dfPath, err := c.rootCmd.drakefile()
	if err != nil {
		return err
	}

	svc, err := list.NewService(list.ServiceConfig{
		DrakefileRepository: dfRepo,
		Logger:              c.rootCmd.Logger,
	})
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	tasks, err := svc.Run(ctx, list.Request{
		DrakefilePath: dfPath,
		All:           c.all,
	})
	if err != nil {
		return fmt.Errorf("could not list tasks: %w", err)
	}

	if err := printer.New(c.format, c.rootCmd.Stdout).PrintTaskList(tasks); err != nil {
		return fmt.Errorf("could not print list: %w", err)
	}

	return nil
}
