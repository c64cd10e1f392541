package commands

import (
	"context"
	"fmt"

	"github.com/alecthomas/kingpin/v2"

	apprun "github.com/slok/drake/internal/app/run"
	"github.com/slok/drake/internal/printer"
	"github.com/slok/drake/internal/task"
	utilsenv "github.com/slok/drake/internal/utils/env"
)

type RunCommand struct {
	Cmd     *kingpin.CmdClause
	rootCmd *RootCommand

	targets             []string
	envSpecs            []string
	dryRun              bool
	removeFailedOutputs bool
	noHistory           bool
	shell               string
	summary             bool
	format              string
}

// NewRunCommand returns the run command.
func NewRunCommand(rootCmd *RootCommand, app *kingpin.Application) *RunCommand {
	c := &RunCommand{rootCmd: rootCmd}

	c.Cmd = app.Command("run", "Invoke Drakefile targets, the Drakefile default if none.").Default()
	c.Cmd.Arg("targets", "Targets to invoke in order.").StringsVar(&c.targets)
	c.Cmd.Flag("env", "Environment variables for the commands (KEY=VALUE or KEY from current environment). Can be repeated.").Short('e').StringsVar(&c.envSpecs)
	c.Cmd.Flag("dry-run", "Show the tasks that would be executed without running them.").Short('n').BoolVar(&c.dryRun)
	c.Cmd.Flag("remove-failed-outputs", "Remove the output of file tasks whose commands fail.").BoolVar(&c.removeFailedOutputs)
	c.Cmd.Flag("no-history", "Don't record the run in the journal.").BoolVar(&c.noHistory)
	c.Cmd.Flag("shell", "Shell used to run the commands.").Default("sh").StringVar(&c.shell)
	c.Cmd.Flag("summary", "Print the run summary when finished.").BoolVar(&c.summary)
	c.Cmd.Flag("format", "Summary output format (table, json).").Default(printer.FormatTable).EnumVar(&c.format, printer.FormatTable, printer.FormatJSON)

	return c
}

func (c RunCommand) Name() string { return c.Cmd.FullCommand() }

func (c RunCommand) Run(ctx context.Context) error {
	logger := c.rootCmd.Logger

	cliEnv, err := utilsenv.ParseSpecs(c.envSpecs)
	if err != nil {
		return fmt.Errorf("invalid --env value: %w", err)
	}

	dfRepo, dir, dfPath, err := c.rootCmd.drakefile()
	if err != nil {
		return err
	}

	cfg := apprun.ServiceConfig{
		DrakefileRepository: dfRepo,
		Dir:                 dir,
		Shell:               c.shell,
		Stdout:              c.rootCmd.Stdout,
		Stderr:              c.rootCmd.Stderr,
		Logger:              logger,
	}

	// Initialize the run journal (SQLite).
	if !c.noHistory {
		repo, err := c.rootCmd.journal(ctx)
		if err != nil {
			return err
		}
		defer repo.Close()
		cfg.Repository = repo
	}

	svc, err := apprun.NewService(cfg)
	if err != nil {
		return fmt.Errorf("could not create service: %w", err)
	}

	policy := task.FailurePolicyKeep
	if c.removeFailedOutputs {
		policy = task.FailurePolicyRemoveOutput
	}

	res, runErr := svc.Run(ctx, apprun.Request{
		DrakefilePath: dfPath,
		Targets:       c.targets,
		Env:           cliEnv,
		DryRun:        c.dryRun,
		FailurePolicy: policy,
	})

	if res != nil {
		if c.dryRun {
			for _, e := range res.Executions {
				logger.Infof("Would execute %s", e.TaskName)
			}
		}
		if c.summary {
			if err := printer.New(c.format, c.rootCmd.Stdout).PrintRun(res.Run, res.Executions); err != nil {
				return fmt.Errorf("could not print run: %w", err)
			}
		}
	}

	if runErr != nil {
		return runErr
	}

	logger.Debugf("Run %s finished: %d tasks executed", res.Run.ID, len(res.Executions))
	return nil
}
