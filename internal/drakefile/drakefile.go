// Package drakefile declares the tasks of a Drakefile on a task registry.
package drakefile

import (
	"fmt"

	"github.com/slok/drake/internal/conventions"
	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/task"
)

// ActionFactory returns the action that runs the commands of a declaration, nil if
// there is nothing to run.
type ActionFactory func(commands []string) task.Action

// Declare defines every declaration of the Drakefile in order. Declarations of the same
// name accumulate prerequisites and actions.
func Declare(reg *task.Registry, df model.Drakefile, actions ActionFactory) error {
	if actions == nil {
		actions = func([]string) task.Action { return nil }
	}

	for _, decl := range df.Tasks {
		if decl.Description != "" {
			reg.Describe(decl.Description)
		}

		switch decl.Type {
		case model.DeclarationTypeTask, "":
			reg.Task(decl.Name, decl.Prerequisites, actions(decl.Commands))
		case model.DeclarationTypeFile:
			reg.File(decl.Name, decl.Prerequisites, actions(decl.Commands))
		case model.DeclarationTypeDirectory:
			reg.Directory(decl.Name)
		default:
			return fmt.Errorf("unknown declaration type %q for %q: %w", decl.Type, decl.Name, model.ErrNotValid)
		}
	}

	return nil
}

// Targets returns the requested targets, when none are requested the Drakefile
// default, or the conventional default target.
func Targets(df model.Drakefile, requested []string) []string {
	switch {
	case len(requested) > 0:
		return requested
	case df.Default != "":
		return []string{df.Default}
	}
	return []string{conventions.DefaultTarget}
}
