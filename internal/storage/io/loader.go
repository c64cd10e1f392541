package io

import (
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/drake/internal/model"
	"github.com/slok/drake/internal/storage"
)

// DrakefileYAMLRepository loads task declarations from YAML Drakefiles.
type DrakefileYAMLRepository struct {
	fs fs.FS
}

var _ storage.DrakefileRepository = &DrakefileYAMLRepository{}

// NewDrakefileYAMLRepository creates a new YAML Drakefile repository.
func NewDrakefileYAMLRepository(filesystem fs.FS) *DrakefileYAMLRepository {
	return &DrakefileYAMLRepository{fs: filesystem}
}

// GetDrakefile loads a Drakefile and returns a validated domain model.
func (r *DrakefileYAMLRepository) GetDrakefile(ctx context.Context, path string) (model.Drakefile, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.Drakefile{}, fmt.Errorf("reading drakefile: %w", err)
	}

	if ctx.Err() != nil {
		return model.Drakefile{}, ctx.Err()
	}

	var df Drakefile
	if err := yaml.Unmarshal(data, &df); err != nil {
		return model.Drakefile{}, fmt.Errorf("parsing YAML: %w", err)
	}

	if err := df.validate(); err != nil {
		return model.Drakefile{}, fmt.Errorf("invalid drakefile: %w: %w", err, model.ErrNotValid)
	}

	return df.toModel(), nil
}

// Drakefile represents the YAML structure of a Drakefile.
type Drakefile struct {
	Default string            `yaml:"default"`
	Env     map[string]string `yaml:"env"`
	Tasks   []TaskEntry       `yaml:"tasks"`
}

// TaskEntry represents a task declaration, it sets name (with file for file
// tasks) or directory.
type TaskEntry struct {
	Name      string   `yaml:"name,omitempty"`
	File      bool     `yaml:"file,omitempty"`
	Directory string   `yaml:"directory,omitempty"`
	Desc      string   `yaml:"desc,omitempty"`
	Deps      []string `yaml:"deps,omitempty"`
	Run       []string `yaml:"run,omitempty"`
}

func (d Drakefile) validate() error {
	for i, t := range d.Tasks {
		if err := t.validate(); err != nil {
			return fmt.Errorf("task %d: %w", i, err)
		}
	}
	return nil
}

func (t TaskEntry) validate() error {
	switch {
	case t.Name == "" && t.Directory == "":
		return fmt.Errorf("name or directory is required")
	case t.Name != "" && t.Directory != "":
		return fmt.Errorf("name and directory can't be used together")
	case t.Directory != "" && (t.File || len(t.Deps) > 0 || len(t.Run) > 0):
		return fmt.Errorf("directory %q can't have file, deps or run", t.Directory)
	}

	for _, dep := range t.Deps {
		if dep == "" {
			return fmt.Errorf("%q has an empty dependency", t.Name)
		}
	}
	for _, cmd := range t.Run {
		if cmd == "" {
			return fmt.Errorf("%q has an empty command", t.Name)
		}
	}

	return nil
}

func (d Drakefile) toModel() model.Drakefile {
	df := model.Drakefile{
		Default: d.Default,
		Env:     d.Env,
		Tasks:   make([]model.TaskDeclaration, 0, len(d.Tasks)),
	}

	for _, t := range d.Tasks {
		decl := model.TaskDeclaration{
			Type:          model.DeclarationTypeTask,
			Name:          t.Name,
			Description:   t.Desc,
			Prerequisites: t.Deps,
			Commands:      t.Run,
		}
		switch {
		case t.Directory != "":
			decl.Type = model.DeclarationTypeDirectory
			decl.Name = t.Directory
		case t.File:
			decl.Type = model.DeclarationTypeFile
		}
		df.Tasks = append(df.Tasks, decl)
	}

	return df
}
