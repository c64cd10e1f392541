// Package lib provides a Go SDK to declare and invoke dependency based tasks.
//
// Tasks are named units of work with ordered prerequisites and actions. Plain
// tasks always execute when invoked, file tasks execute only when their path is
// missing or older than any of their prerequisites.
//
// # Quick Start
//
//	eng, err := lib.New(lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng.Describe("Build the binary")
//	eng.File("bin/app", []string{"bin", "main.go"}, func(ctx context.Context, t lib.Task) error {
//	    return exec.CommandContext(ctx, "go", "build", "-o", t.Name, ".").Run()
//	})
//	eng.Directory("bin")
//
//	if err := eng.Invoke(ctx, "bin/app"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Drakefiles
//
// Tasks can also be declared from YAML Drakefiles, their commands run with `sh -c`
// from [Config].Dir:
//
//	def, err := eng.LoadDrakefile(ctx, os.DirFS("."), "Drakefile.yaml", nil)
//	...
//	err = eng.Invoke(ctx, def)
//
// # Invocation
//
// Each task is invoked at most once per [Engine], a task that failed is not
// retried. Use [Engine.Clear] to remove all the tasks and start over.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: The task is not registered.
//   - [ErrNotValid]: Invalid input.
//   - [ErrCycle]: A task depends on itself through its prerequisites.
//   - [ErrActionFailed]: An action failed, the action error is wrapped.
package lib
