package printer_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/printer"
)

func runFixture() (model.Run, []model.Execution) {
	startedAt := time.Date(2026, 1, 30, 10, 0, 0, 0, time.UTC)
	finishedAt := startedAt.Add(1500 * time.Millisecond)
	return model.Run{
			ID:         "01JJRUN",
			Targets:    []string{"build", "test"},
			Status:     model.RunStatusFailed,
			Error:      "boom",
			StartedAt:  startedAt,
			FinishedAt: &finishedAt,
		}, []model.Execution{
			{ID: "e1", RunID: "01JJRUN", Sequence: 1, TaskName: "bin/app", TaskKind: model.TaskKindFile, Status: model.ExecutionStatusSucceeded, StartedAt: startedAt, Duration: 300 * time.Millisecond},
			{ID: "e2", RunID: "01JJRUN", Sequence: 2, TaskName: "test", TaskKind: model.TaskKindPlain, Status: model.ExecutionStatusFailed, Error: "boom", StartedAt: startedAt, Duration: time.Second},
		}
}

func TestTablePrinterPrintTaskList(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskList([]model.TaskSummary{
		{Name: "build", Kind: model.TaskKindPlain, Comment: "Build it"},
		{Name: "bin", Kind: model.TaskKindFile},
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "NAME   KIND  DESCRIPTION", lines[0])
	assert.Equal(t, "build  task  Build it", lines[1])
	assert.Equal(t, "bin    file", strings.TrimSpace(lines[2]))
}

func TestTablePrinterEmptyLists(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	require.NoError(t, p.PrintTaskList(nil))
	require.NoError(t, p.PrintRunList(nil))
	assert.Empty(t, buf.String())
}

func TestTablePrinterPrintRun(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	run, execs := runFixture()
	err := p.PrintRun(run, execs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Targets:   build, test")
	assert.Contains(t, out, "Status:    failed")
	assert.Contains(t, out, "Duration:  1.5s")
	assert.Contains(t, out, "Error:     boom")
	assert.Contains(t, out, "1  bin/app  file  succeeded  300ms")
	assert.Contains(t, out, "2  test     task  failed     1.0s")
}

func TestJSONPrinterPrintRun(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	run, execs := runFixture()
	err := p.PrintRun(run, execs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"id": "01JJRUN"`)
	assert.Contains(t, out, `"status": "failed"`)
	assert.Contains(t, out, `"finished_at": "2026-01-30T10:00:01.5Z"`)
	assert.Contains(t, out, `"task": "bin/app"`)
	assert.Contains(t, out, `"duration_ms": 300`)
}

func TestJSONPrinterPrintTaskList(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTaskList([]model.TaskSummary{{Name: "bin", Kind: model.TaskKindFile}})
	require.NoError(t, err)

	exp := `[
  {
    "name": "bin",
    "kind": "file",
    "prerequisites": []
  }
]
`
	assert.Equal(t, exp, buf.String())
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.New(printer.FormatTable, &buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}

func TestJSONPrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.New(printer.FormatJSON, &buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"message\": \"ok\"\n}\n", buf.String())
}
