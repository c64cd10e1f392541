package task_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/drake/internal/filesystem"
	"github.com/slok/drake/internal/filesystem/memory"
	"github.com/slok/drake/internal/log"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/task"
)

const (
	oldFile = "testdata/old"
	newFile = "testdata/new"
)

var (
	t0  = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	now = t0.Add(2 * time.Hour)
)

func newRegistry(t *testing.T, fsys filesystem.Provider) *task.Registry {
	t.Helper()

	r, err := task.NewRegistry(task.RegistryConfig{
		Filesystem: fsys,
		Clock:      task.ClockFunc(func() time.Time { return now }),
		Logger:     log.Noop,
	})
	require.NoError(t, err)
	return r
}

// createTimedFiles creates the old file and a newer new file.
func createTimedFiles() *memory.Filesystem {
	fsys := memory.NewFilesystem(func() time.Time { return now })
	fsys.AddDir("testdata", t0)
	fsys.Touch(oldFile, t0)
	fsys.Touch(newFile, t0.Add(time.Hour))
	return fsys
}

func TestNewRegistry(t *testing.T) {
	tests := map[string]struct {
		config task.RegistryConfig
		expErr bool
	}{
		"Empty config should use defaults": {
			config: task.RegistryConfig{},
		},

		"A known failure policy should be valid": {
			config: task.RegistryConfig{FailurePolicy: task.FailurePolicyRemoveOutput},
		},

		"An unknown failure policy should fail": {
			config: task.RegistryConfig{FailurePolicy: "explode"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r, err := task.NewRegistry(test.config)

			if test.expErr {
				assert.Error(t, err)
				assert.Nil(t, r)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, r)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r := newRegistry(t, memory.NewFilesystem(nil))

	_, err := r.Lookup("missing")
	assert.True(errors.Is(err, model.ErrNotFound))

	ft := r.LookupOrCreateFile("out.txt")
	assert.Equal(model.TaskKindFile, ft.Kind())
	assert.Empty(ft.Prerequisites())

	got, err := r.Lookup("out.txt")
	require.NoError(err)
	assert.Same(ft, got)

	// Existing tasks are returned as they are.
	pt := r.Task("build", nil, nil)
	assert.Same(pt, r.LookupOrCreateFile("build"))
	assert.Equal(model.TaskKindPlain, pt.Kind())
}

func TestRegistryDefineAccumulates(t *testing.T) {
	assert := assert.New(t)

	r := newRegistry(t, memory.NewFilesystem(nil))
	var runs []string
	rec := func(id string) task.Action {
		return func(_ context.Context, t *task.Task) error {
			runs = append(runs, id+":"+t.Name())
			return nil
		}
	}

	t1 := r.Task("build", []string{"a", "b"}, rec("1"))
	t2 := r.Task("build", []string{"c", "a"}, rec("2"))
	t3 := r.File("build", []string{"d"}, nil)
	r.Task("a", nil, nil)
	r.Task("b", nil, nil)
	r.Task("c", nil, nil)
	r.Task("d", nil, nil)

	assert.Same(t1, t2)
	assert.Same(t1, t3)
	assert.Equal(model.TaskKindPlain, t1.Kind(), "redefinition should keep the kind")
	assert.Equal([]string{"a", "b", "c", "a", "d"}, t1.Prerequisites())

	err := r.Invoke(context.TODO(), "build")
	assert.NoError(err)
	assert.Equal([]string{"1:build", "2:build"}, runs)
}

func TestRegistryDescribe(t *testing.T) {
	tests := map[string]struct {
		declare    func(r *task.Registry)
		expComment map[string]string
	}{
		"A description should be attached to the next task": {
			declare: func(r *task.Registry) {
				r.Describe("Build it")
				r.Task("build", nil, nil)
				r.Task("test", nil, nil)
			},
			expComment: map[string]string{"build": "Build it", "test": ""},
		},

		"A description should be attached to the next file task": {
			declare: func(r *task.Registry) {
				r.Describe("Generated")
				r.File("out.txt", nil, nil)
			},
			expComment: map[string]string{"out.txt": "Generated"},
		},

		"A stale description should be replaced by the next one": {
			declare: func(r *task.Registry) {
				r.Describe("stale")
				r.Describe("fresh")
				r.Task("build", nil, nil)
			},
			expComment: map[string]string{"build": "fresh"},
		},

		"Redefining without description should keep the previous one": {
			declare: func(r *task.Registry) {
				r.Describe("Build it")
				r.Task("build", nil, nil)
				r.Task("build", []string{"x"}, nil)
			},
			expComment: map[string]string{"build": "Build it"},
		},

		"Clear should drop the pending description": {
			declare: func(r *task.Registry) {
				r.Describe("lost")
				r.Clear()
				r.Task("build", nil, nil)
			},
			expComment: map[string]string{"build": ""},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			r := newRegistry(t, memory.NewFilesystem(nil))
			test.declare(r)

			for name, exp := range test.expComment {
				tsk, err := r.Lookup(name)
				require.NoError(err)
				assert.Equal(t, exp, tsk.Comment(), name)
			}
		})
	}
}

func TestRegistryClear(t *testing.T) {
	r := newRegistry(t, memory.NewFilesystem(nil))
	r.Task("a", nil, nil)
	r.File("b", nil, nil)
	require.Len(t, r.Tasks(), 2)

	r.Clear()

	assert.Empty(t, r.Tasks())
	_, err := r.Lookup("a")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestRegistryTasks(t *testing.T) {
	r := newRegistry(t, memory.NewFilesystem(nil))
	r.Task("c", nil, nil)
	r.File("a", nil, nil)
	r.Task("b", nil, nil)

	var names []string
	for _, tsk := range r.Tasks() {
		names = append(names, tsk.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestFileTaskNeeded(t *testing.T) {
	tests := map[string]struct {
		fs        func() *memory.Filesystem
		declare   func(r *task.Registry)
		task      string
		expNeeded bool
		expErr    error
	}{
		"A missing file should be needed": {
			fs:        func() *memory.Filesystem { return memory.NewFilesystem(nil) },
			declare:   func(r *task.Registry) { r.File("testdata/dummy", nil, nil) },
			task:      "testdata/dummy",
			expNeeded: true,
		},

		"An existing file without prerequisites should not be needed": {
			fs: func() *memory.Filesystem {
				f := memory.NewFilesystem(nil)
				f.Touch("testdata/dummy", t0)
				return f
			},
			declare:   func(r *task.Registry) { r.File("testdata/dummy", nil, nil) },
			task:      "testdata/dummy",
			expNeeded: false,
		},

		"A new file depending on an old file should not be needed": {
			fs: createTimedFiles,
			declare: func(r *task.Registry) {
				r.LookupOrCreateFile(newFile).Enhance(oldFile)
				r.LookupOrCreateFile(oldFile)
			},
			task:      newFile,
			expNeeded: false,
		},

		"An old file depending on a new file should be needed": {
			fs: createTimedFiles,
			declare: func(r *task.Registry) {
				r.LookupOrCreateFile(oldFile).Enhance(newFile)
				r.LookupOrCreateFile(newFile)
			},
			task:      oldFile,
			expNeeded: true,
		},

		"A file depending on a file with the same timestamp should not be needed": {
			fs: func() *memory.Filesystem {
				f := createTimedFiles()
				f.Touch(newFile, t0)
				return f
			},
			declare: func(r *task.Registry) {
				r.LookupOrCreateFile(oldFile).Enhance(newFile)
				r.LookupOrCreateFile(newFile)
			},
			task:      oldFile,
			expNeeded: false,
		},

		"A file depending on a missing file should not be needed": {
			fs: createTimedFiles,
			declare: func(r *task.Registry) {
				r.File(newFile, []string{"testdata/missing"}, nil)
				r.File("testdata/missing", nil, nil)
			},
			task:      newFile,
			expNeeded: false,
		},

		"A file depending on an independent plain task should be needed": {
			fs: createTimedFiles,
			declare: func(r *task.Registry) {
				r.File(newFile, []string{"always"}, nil)
				r.Task("always", nil, nil)
			},
			task:      newFile,
			expNeeded: true,
		},

		"A file depending on an undeclared prerequisite should fail": {
			fs:      createTimedFiles,
			declare: func(r *task.Registry) { r.File(newFile, []string{"ghost"}, nil) },
			task:    newFile,
			expErr:  model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			r := newRegistry(t, test.fs())
			test.declare(r)

			tsk, err := r.Lookup(test.task)
			require.NoError(err)

			needed, err := tsk.Needed()
			if test.expErr != nil {
				assert.True(errors.Is(err, test.expErr))
				return
			}
			require.NoError(err)
			assert.Equal(test.expNeeded, needed)
		})
	}
}

func TestFileTaskNeededAfterCreation(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	fsys := memory.NewFilesystem(nil)
	r := newRegistry(t, fsys)
	ftask := r.File("testdata/dummy", nil, nil)
	assert.Equal("testdata/dummy", ftask.Name())

	needed, err := ftask.Needed()
	require.NoError(err)
	assert.True(needed, "file should be needed")

	fsys.Touch("testdata/dummy", t0)
	_, ok, err := ftask.PrerequisitesTimestamp()
	require.NoError(err)
	assert.False(ok)

	needed, err = ftask.Needed()
	require.NoError(err)
	assert.False(needed, "file should not be needed")
}

func TestFileTimesOldDependsOnNew(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r := newRegistry(t, createTimedFiles())
	t1 := r.LookupOrCreateFile(oldFile).Enhance(newFile)
	t2 := r.LookupOrCreateFile(newFile)

	needed, err := t2.Needed()
	require.NoError(err)
	assert.False(needed, "should not need to build new file")

	prereqStamp, ok, err := t1.PrerequisitesTimestamp()
	require.NoError(err)
	require.True(ok)
	t2Stamp, err := t2.Timestamp()
	require.NoError(err)
	assert.Equal(t2Stamp, prereqStamp)

	t1Stamp, err := t1.Timestamp()
	require.NoError(err)
	assert.True(t1Stamp.Before(prereqStamp), "t1 should be older")

	needed, err = t1.Needed()
	require.NoError(err)
	assert.True(needed, "should need to rebuild old file because of new")
}

func TestTaskTimestamp(t *testing.T) {
	tests := map[string]struct {
		declare func(r *task.Registry)
		task    string
		expTS   time.Time
		expErr  error
	}{
		"A plain task without prerequisites should be now": {
			declare: func(r *task.Registry) { r.Task("a", nil, nil) },
			task:    "a",
			expTS:   now,
		},

		"A plain task should be the latest of its prerequisites": {
			declare: func(r *task.Registry) {
				r.Task("a", []string{oldFile, newFile}, nil)
				r.File(oldFile, nil, nil)
				r.File(newFile, nil, nil)
			},
			task:  "a",
			expTS: t0.Add(time.Hour),
		},

		"Timestamps should propagate through plain tasks": {
			declare: func(r *task.Registry) {
				r.Task("a", []string{"b"}, nil)
				r.Task("b", []string{"c"}, nil)
				r.Task("c", []string{oldFile}, nil)
				r.File(oldFile, nil, nil)
			},
			task:  "a",
			expTS: t0,
		},

		"A diamond of plain tasks should not be a cycle": {
			declare: func(r *task.Registry) {
				r.Task("a", []string{"b", "c"}, nil)
				r.Task("b", []string{"d"}, nil)
				r.Task("c", []string{"d"}, nil)
				r.Task("d", []string{oldFile}, nil)
				r.File(oldFile, nil, nil)
			},
			task:  "a",
			expTS: t0,
		},

		"A missing file should be the early time": {
			declare: func(r *task.Registry) { r.File("testdata/missing", nil, nil) },
			task:    "testdata/missing",
			expTS:   task.EarlyTime,
		},

		"An existing file should be its modification time": {
			declare: func(r *task.Registry) { r.File(newFile, []string{"a"}, nil) },
			task:    newFile,
			expTS:   t0.Add(time.Hour),
		},

		"A missing prerequisite should fail": {
			declare: func(r *task.Registry) { r.Task("a", []string{"ghost"}, nil) },
			task:    "a",
			expErr:  model.ErrNotFound,
		},

		"A cycle of plain tasks should fail": {
			declare: func(r *task.Registry) {
				r.Task("a", []string{"b"}, nil)
				r.Task("b", []string{"a"}, nil)
			},
			task:   "a",
			expErr: model.ErrCycle,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			r := newRegistry(t, createTimedFiles())
			test.declare(r)
			tsk, err := r.Lookup(test.task)
			require.NoError(err)

			ts, err := tsk.Timestamp()
			if test.expErr != nil {
				assert.True(errors.Is(err, test.expErr))
				return
			}
			require.NoError(err)
			assert.True(test.expTS.Equal(ts), "expected %s, got %s", test.expTS, ts)
		})
	}
}

func TestEarlyTimeIsBeforeEverything(t *testing.T) {
	assert.True(t, task.EarlyTime.Before(time.Unix(0, 0)))
	assert.True(t, task.EarlyTime.Before(time.Now()))
}

// recorder returns an action that appends the task name to runs.
func recorder(runs *[]string) task.Action {
	return func(_ context.Context, t *task.Task) error {
		*runs = append(*runs, t.Name())
		return nil
	}
}

func TestInvokeOrder(t *testing.T) {
	tests := map[string]struct {
		declare func(r *task.Registry, runs *[]string)
		invoke  []string
		expRuns []string
	}{
		"Prerequisites should run before the task in declaration order": {
			declare: func(r *task.Registry, runs *[]string) {
				r.Task("top", []string{"b", "a"}, recorder(runs))
				r.Task("a", nil, recorder(runs))
				r.Task("b", nil, recorder(runs))
			},
			invoke:  []string{"top"},
			expRuns: []string{"b", "a", "top"},
		},

		"Nested prerequisites should run depth first": {
			declare: func(r *task.Registry, runs *[]string) {
				r.Task("top", []string{"a", "c"}, recorder(runs))
				r.Task("a", []string{"b"}, recorder(runs))
				r.Task("b", nil, recorder(runs))
				r.Task("c", nil, recorder(runs))
			},
			invoke:  []string{"top"},
			expRuns: []string{"b", "a", "c", "top"},
		},

		"A diamond should run the shared prerequisite once": {
			declare: func(r *task.Registry, runs *[]string) {
				r.Task("top", []string{"left", "right"}, recorder(runs))
				r.Task("left", []string{"base"}, recorder(runs))
				r.Task("right", []string{"base"}, recorder(runs))
				r.Task("base", nil, recorder(runs))
			},
			invoke:  []string{"top"},
			expRuns: []string{"base", "left", "right", "top"},
		},

		"Duplicated prerequisites should run once": {
			declare: func(r *task.Registry, runs *[]string) {
				r.Task("top", []string{"a", "a"}, recorder(runs))
				r.Task("a", nil, recorder(runs))
			},
			invoke:  []string{"top"},
			expRuns: []string{"a", "top"},
		},

		"Invoking many times should run once": {
			declare: func(r *task.Registry, runs *[]string) {
				r.Task("top", []string{"a"}, recorder(runs))
				r.Task("a", nil, recorder(runs))
			},
			invoke:  []string{"a", "top", "top", "a"},
			expRuns: []string{"a", "top"},
		},

		"Up to date file tasks should not run": {
			declare: func(r *task.Registry, runs *[]string) {
				r.File(newFile, []string{oldFile}, recorder(runs))
				r.File(oldFile, nil, recorder(runs))
			},
			invoke:  []string{newFile},
			expRuns: nil,
		},

		"Stale file tasks should run": {
			declare: func(r *task.Registry, runs *[]string) {
				r.File(oldFile, []string{newFile}, recorder(runs))
				r.File(newFile, nil, recorder(runs))
			},
			invoke:  []string{oldFile},
			expRuns: []string{oldFile},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			require := require.New(t)

			r := newRegistry(t, createTimedFiles())
			var runs []string
			test.declare(r, &runs)

			for _, name := range test.invoke {
				require.NoError(r.Invoke(context.TODO(), name))
			}

			assert.Equal(t, test.expRuns, runs)
		})
	}
}

func TestInvokeFileDependsOnTaskDependsOnFile(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r := newRegistry(t, createTimedFiles())
	var runs []string
	r.File(newFile, []string{"obj"}, recorder(&runs))
	r.Task("obj", []string{oldFile}, recorder(&runs))
	r.File(oldFile, nil, recorder(&runs))

	require.NoError(r.Invoke(context.TODO(), "obj"))
	require.NoError(r.Invoke(context.TODO(), newFile))

	// The old file exists and has no prerequisites so it's never needed.
	assert.Equal([]string{"obj"}, runs)
	assert.NotContains(runs, newFile)

	for _, name := range []string{"obj", oldFile, newFile} {
		tsk, err := r.Lookup(name)
		require.NoError(err)
		assert.True(tsk.Invoked(), name)
	}
}

func TestInvokeActionFailure(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	r := newRegistry(t, memory.NewFilesystem(nil))
	var runs []string
	failures := 0
	expErr := fmt.Errorf("ooops")

	r.Task("top", []string{"a", "b"}, recorder(&runs))
	r.Task("a", nil, recorder(&runs))
	r.Task("a", nil, func(context.Context, *task.Task) error {
		failures++
		return expErr
	})
	r.Task("a", nil, recorder(&runs))
	r.Task("b", nil, recorder(&runs))

	err := r.Invoke(context.TODO(), "top")
	require.Error(err)

	var actionErr *task.ActionError
	require.True(errors.As(err, &actionErr))
	assert.Equal("a", actionErr.Task)
	assert.Equal(1, actionErr.Index)
	assert.True(errors.Is(err, expErr))
	assert.True(errors.Is(err, model.ErrActionFailed))

	// The remaining actions, siblings and dependents are aborted.
	assert.Equal([]string{"a"}, runs)

	a, err := r.Lookup("a")
	require.NoError(err)
	assert.True(a.Invoked())
	b, err := r.Lookup("b")
	require.NoError(err)
	assert.False(b.Invoked())

	// Failed tasks are not retried.
	require.NoError(r.Invoke(context.TODO(), "a"))
	require.NoError(r.Invoke(context.TODO(), "top"))
	assert.Equal(1, failures)

	// Untraversed tasks can still be invoked.
	require.NoError(r.Invoke(context.TODO(), "b"))
	assert.Equal([]string{"a", "b"}, runs)
}

func TestInvokeFailurePolicy(t *testing.T) {
	tests := map[string]struct {
		policy    task.FailurePolicy
		expExists bool
	}{
		"Keeping outputs should leave the failed file": {
			policy:    task.FailurePolicyKeep,
			expExists: true,
		},

		"Removing outputs should delete the failed file": {
			policy:    task.FailurePolicyRemoveOutput,
			expExists: false,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			fsys := memory.NewFilesystem(nil)
			r, err := task.NewRegistry(task.RegistryConfig{
				Filesystem:    fsys,
				FailurePolicy: test.policy,
			})
			require.NoError(err)

			r.Task("obj", nil, nil)
			r.File(newFile, []string{"obj"}, func(context.Context, *task.Task) error {
				fsys.Touch(newFile, now)
				return fmt.Errorf("ooops")
			})

			err = r.Invoke(context.TODO(), newFile)
			assert.True(errors.Is(err, model.ErrActionFailed))

			exists, err := fsys.Exists(newFile)
			require.NoError(err)
			assert.Equal(test.expExists, exists)
		})
	}
}

func TestInvokeErrors(t *testing.T) {
	tests := map[string]struct {
		declare func(r *task.Registry)
		invoke  string
		expErr  error
	}{
		"Invoking a missing task should fail": {
			declare: func(r *task.Registry) {},
			invoke:  "ghost",
			expErr:  model.ErrNotFound,
		},

		"Invoking a task with a missing prerequisite should fail": {
			declare: func(r *task.Registry) { r.Task("a", []string{"ghost"}, nil) },
			invoke:  "a",
			expErr:  model.ErrNotFound,
		},

		"A self dependency should fail": {
			declare: func(r *task.Registry) { r.Task("a", []string{"a"}, nil) },
			invoke:  "a",
			expErr:  model.ErrCycle,
		},

		"A cycle between tasks should fail": {
			declare: func(r *task.Registry) {
				r.Task("a", []string{"b"}, nil)
				r.File("b", []string{"c"}, nil)
				r.Task("c", []string{"a"}, nil)
			},
			invoke: "a",
			expErr: model.ErrCycle,
		},

		"A filesystem error from an action should be kept": {
			declare: func(r *task.Registry) {
				r.Task("bad", nil, func(context.Context, *task.Task) error {
					return filesystem.OS{}.Mkdir(filepath.Join(os.TempDir(), "drake-missing", "x", "y"))
				})
			},
			invoke: "bad",
			expErr: os.ErrNotExist,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			r := newRegistry(t, memory.NewFilesystem(nil))
			test.declare(r)

			err := r.Invoke(context.TODO(), test.invoke)
			assert.True(t, errors.Is(err, test.expErr), "got %v", err)
		})
	}
}

func TestInvokeCyclePath(t *testing.T) {
	r := newRegistry(t, memory.NewFilesystem(nil))
	r.Task("top", []string{"a"}, nil)
	r.Task("a", []string{"b"}, nil)
	r.Task("b", []string{"a"}, nil)

	err := r.Invoke(context.TODO(), "top")

	var cycleErr *task.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a", "b", "a"}, cycleErr.Path)
}

func TestInvokeImplicitFiles(t *testing.T) {
	tests := map[string]struct {
		implicit bool
		expErr   bool
		expRuns  []string
	}{
		"Without implicit files an undeclared prerequisite should fail": {
			implicit: false,
			expErr:   true,
		},

		"With implicit files an existing undeclared prerequisite should be a file task": {
			implicit: true,
			expRuns:  []string{oldFile},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			r, err := task.NewRegistry(task.RegistryConfig{
				Filesystem:    createTimedFiles(),
				ImplicitFiles: test.implicit,
			})
			require.NoError(err)

			var runs []string
			r.File(oldFile, []string{newFile}, recorder(&runs))

			err = r.Invoke(context.TODO(), oldFile)
			if test.expErr {
				assert.True(errors.Is(err, model.ErrNotFound))
				return
			}
			require.NoError(err)
			assert.Equal(test.expRuns, runs)

			implicit, err := r.Lookup(newFile)
			require.NoError(err)
			assert.Equal(model.TaskKindFile, implicit.Kind())
		})
	}
}

func TestInvokeContextCancelled(t *testing.T) {
	r := newRegistry(t, memory.NewFilesystem(nil))
	var runs []string
	r.Task("a", nil, recorder(&runs))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.Invoke(ctx, "a")
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, runs)
}

func TestInvokeHooksAndDryRun(t *testing.T) {
	tests := map[string]struct {
		dryRun    bool
		expRuns   []string
		expEvents []string
	}{
		"Hooks should be called around executed tasks only": {
			expRuns:   []string{"a", "top"},
			expEvents: []string{"start:a", "finish:a:<nil>", "start:top", "finish:top:<nil>"},
		},

		"A dry run should report the tasks without running them": {
			dryRun:    true,
			expRuns:   nil,
			expEvents: []string{"start:a", "finish:a:<nil>", "start:top", "finish:top:<nil>"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			var events []string
			hooks := task.Hooks{
				OnExecuteStart: func(_ context.Context, e task.Event) {
					assert.Equal(test.dryRun, e.DryRun)
					events = append(events, "start:"+e.Task)
				},
			}.Merge(task.Hooks{
				OnExecuteFinish: func(_ context.Context, e task.Event) {
					events = append(events, fmt.Sprintf("finish:%s:%v", e.Task, e.Err))
				},
			})

			r, err := task.NewRegistry(task.RegistryConfig{
				Filesystem: createTimedFiles(),
				DryRun:     test.dryRun,
				Hooks:      hooks,
			})
			require.NoError(err)

			var runs []string
			r.Task("top", []string{"a", newFile}, recorder(&runs))
			r.Task("a", nil, recorder(&runs))
			r.File(newFile, nil, recorder(&runs))

			require.NoError(r.Invoke(context.TODO(), "top"))
			assert.Equal(test.expRuns, runs)
			assert.Equal(test.expEvents, events)
		})
	}
}

func TestRealFilesystemTimes(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	dir := t.TempDir()
	oldPath := filepath.ToSlash(filepath.Join(dir, "old"))
	newPath := filepath.ToSlash(filepath.Join(dir, "new"))
	for i, p := range []string{oldPath, newPath} {
		require.NoError(os.WriteFile(p, []byte("HI"), 0o644))
		mt := t0.Add(time.Duration(i) * time.Hour)
		require.NoError(os.Chtimes(p, mt, mt))
	}

	r, err := task.NewRegistry(task.RegistryConfig{})
	require.NoError(err)
	t1 := r.LookupOrCreateFile(newPath).Enhance(oldPath)
	t2 := r.LookupOrCreateFile(oldPath)

	needed, err := t2.Needed()
	require.NoError(err)
	assert.False(needed, "should not need to build old file")
	needed, err = t1.Needed()
	require.NoError(err)
	assert.False(needed, "should not need to rebuild new file because of old")

	require.NoError(os.Remove(newPath))
	needed, err = t1.Needed()
	require.NoError(err)
	assert.True(needed, "missing file should be needed")
}
