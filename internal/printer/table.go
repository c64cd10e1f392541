package printer

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/slok/drake/internal/model"
)

// TablePrinter prints tasks and runs in a table format.
type TablePrinter struct {
	writer io.Writer
}

var _ Printer = &TablePrinter{}

// NewTablePrinter creates a new table printer.
func NewTablePrinter(w io.Writer) *TablePrinter {
	return &TablePrinter{writer: w}
}

// PrintTaskList prints tasks in a table format.
func (t *TablePrinter) PrintTaskList(tasks []model.TaskSummary) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "NAME\tKIND\tDESCRIPTION")
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", task.Name, task.Kind, task.Comment)
	}

	return nil
}

// PrintRunList prints runs in a table format.
func (t *TablePrinter) PrintRunList(runs []model.Run) error {
	if len(runs) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "ID\tTARGETS\tSTATUS\tDURATION\tSTARTED")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			strings.Join(r.Targets, ","),
			runStatus(r),
			runDuration(r),
			TimeAgo(r.StartedAt),
		)
	}

	return nil
}

// PrintRun prints a run detail followed by its executions.
func (t *TablePrinter) PrintRun(run model.Run, executions []model.Execution) error {
	fmt.Fprintf(t.writer, "ID:        %s\n", run.ID)
	fmt.Fprintf(t.writer, "Targets:   %s\n", strings.Join(run.Targets, ", "))
	fmt.Fprintf(t.writer, "Status:    %s\n", runStatus(run))
	fmt.Fprintf(t.writer, "Started:   %s\n", FormatTimestamp(run.StartedAt))
	if run.FinishedAt != nil {
		fmt.Fprintf(t.writer, "Finished:  %s\n", FormatTimestamp(*run.FinishedAt))
		fmt.Fprintf(t.writer, "Duration:  %s\n", runDuration(run))
	}
	if run.Error != "" {
		fmt.Fprintf(t.writer, "Error:     %s\n", run.Error)
	}

	if len(executions) == 0 {
		return nil
	}

	fmt.Fprintln(t.writer)
	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintln(tw, "#\tTASK\tKIND\tSTATUS\tDURATION")
	for _, e := range executions {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Sequence, e.TaskName, e.TaskKind, e.Status, FormatDuration(e.Duration))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func runStatus(r model.Run) string {
	if r.DryRun {
		return string(r.Status) + " (dry run)"
	}
	return string(r.Status)
}

func runDuration(r model.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return FormatDuration(r.FinishedAt.Sub(r.StartedAt))
}
