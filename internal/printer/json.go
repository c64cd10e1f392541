package printer

import (
	"encoding/json"
	"io"
	"time"

	"github.com/slok/drake/internal/model"
)

// JSONPrinter prints tasks and runs in JSON format.
type JSONPrinter struct {
	writer io.Writer
}

var _ Printer = &JSONPrinter{}

// NewJSONPrinter creates a new JSON printer.
func NewJSONPrinter(w io.Writer) *JSONPrinter {
	return &JSONPrinter{writer: w}
}

type taskOutput struct {
	Name          string   `json:"name"`
	Kind          string   `json:"kind"`
	Description   string   `json:"description,omitempty"`
	Prerequisites []string `json:"prerequisites"`
}

type runOutput struct {
	ID         string            `json:"id"`
	Targets    []string          `json:"targets"`
	Status     string            `json:"status"`
	DryRun     bool              `json:"dry_run"`
	Error      string            `json:"error,omitempty"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at"`
	Executions []executionOutput `json:"executions,omitempty"`
}

type executionOutput struct {
	Sequence   int       `json:"sequence"`
	Task       string    `json:"task"`
	Kind       string    `json:"kind"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
}

// messageOutput represents a simple message output.
type messageOutput struct {
	Message string `json:"message"`
}

// PrintTaskList prints tasks in JSON format.
func (j *JSONPrinter) PrintTaskList(tasks []model.TaskSummary) error {
	items := make([]taskOutput, len(tasks))
	for i, t := range tasks {
		prereqs := t.Prerequisites
		if prereqs == nil {
			prereqs = []string{}
		}
		items[i] = taskOutput{
			Name:          t.Name,
			Kind:          string(t.Kind),
			Description:   t.Comment,
			Prerequisites: prereqs,
		}
	}

	return j.encode(items)
}

// PrintRunList prints runs in JSON format without their executions.
func (j *JSONPrinter) PrintRunList(runs []model.Run) error {
	items := make([]runOutput, len(runs))
	for i, r := range runs {
		items[i] = newRunOutput(r)
	}

	return j.encode(items)
}

// PrintRun prints a run with its executions in JSON format.
func (j *JSONPrinter) PrintRun(run model.Run, executions []model.Execution) error {
	output := newRunOutput(run)
	for _, e := range executions {
		output.Executions = append(output.Executions, executionOutput{
			Sequence:   e.Sequence,
			Task:       e.TaskName,
			Kind:       string(e.TaskKind),
			Status:     string(e.Status),
			Error:      e.Error,
			StartedAt:  e.StartedAt.UTC(),
			DurationMS: e.Duration.Milliseconds(),
		})
	}

	return j.encode(output)
}

// PrintMessage prints a simple message in JSON format.
func (j *JSONPrinter) PrintMessage(msg string) error {
	return j.encode(messageOutput{Message: msg})
}

func (j *JSONPrinter) encode(v any) error {
	enc := json.NewEncoder(j.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRunOutput(r model.Run) runOutput {
	targets := r.Targets
	if targets == nil {
		targets = []string{}
	}

	output := runOutput{
		ID:        r.ID,
		Targets:   targets,
		Status:    string(r.Status),
		DryRun:    r.DryRun,
		Error:     r.Error,
		StartedAt: r.StartedAt.UTC(),
	}
	if r.FinishedAt != nil {
		utcTime := r.FinishedAt.UTC()
		output.FinishedAt = &utcTime
	}

	return output
}
