package printer

import (
	"io"

	"github.com/slok/drake/internal/model"
)

// Printer knows how to print tasks and runs in different formats.
type Printer interface {
	PrintTaskList(tasks []model.TaskSummary) error
	PrintRunList(runs []model.Run) error
	PrintRun(run model.Run, executions []model.Execution) error
	PrintMessage(msg string) error
}

// New returns the printer of the format, table if unknown.
func New(format string, w io.Writer) Printer {
	if format == FormatJSON {
		return NewJSONPrinter(w)
	}
	return NewTablePrinter(w)
}

const (
	// FormatTable prints human readable tables.
	FormatTable = "table"
	// FormatJSON prints indented JSON.
	FormatJSON = "json"
)
