package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kingpin/v2"
	"k8s.io/client-go/util/homedir"

	"github.com/slok/drake/internal/conventions"
	"github.com/slok/drake/internal/log"
	storageio "github.com/slok/drake/internal/storage/io"
	"github.com/slok/drake/internal/storage/sqlite"
)

const (
	// LoggerTypeDefault is the logger default type.
	LoggerTypeDefault = "default"
	// LoggerTypeJSON is the logger json type.
	LoggerTypeJSON = "json"
)

// Command represents an application command, all commands that want to be executed
// should implement and setup on main.
type Command interface {
	Name() string
	Run(ctx context.Context) error
}

// RootCommand represents the root command configuration and global configuration
// for all the commands.
type RootCommand struct {
	// Global flags.
	Debug         bool
	NoLog         bool
	NoColor       bool
	LoggerType    string
	DBPath        string
	DrakefilePath string

	// Global instances.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Logger log.Logger
}

// NewRootCommand initializes the main root configuration.
func NewRootCommand(app *kingpin.Application) *RootCommand {
	c := &RootCommand{}

	app.Flag("debug", "Enable debug mode.").BoolVar(&c.Debug)
	app.Flag("no-log", "Disable logger.").BoolVar(&c.NoLog)
	app.Flag("no-color", "Disable logger color.").BoolVar(&c.NoColor)
	app.Flag("logger", "Selects the logger type.").Default(LoggerTypeDefault).EnumVar(&c.LoggerType, LoggerTypeDefault, LoggerTypeJSON)

	defaultDBPath := conventions.DBPath(filepath.Join(homedir.HomeDir(), conventions.DefaultDataDir))
	app.Flag("db-path", "Path to the SQLite run journal database file.").Envar(conventions.EnvDBPath).Default(defaultDBPath).StringVar(&c.DBPath)
	app.Flag("drakefile", "Path to the Drakefile, commands run from its directory.").Short('f').Default(conventions.DefaultDrakefile).StringVar(&c.DrakefilePath)

	return c
}

// drakefile returns the Drakefile repository rooted at the Drakefile directory, the
// directory and the Drakefile path inside the repository.
func (c RootCommand) drakefile() (repo *storageio.DrakefileYAMLRepository, dir, path string, err error) {
	abs, err := filepath.Abs(c.DrakefilePath)
	if err != nil {
		return nil, "", "", fmt.Errorf("invalid drakefile path: %w", err)
	}

	dir = filepath.Dir(abs)
	return storageio.NewDrakefileYAMLRepository(os.DirFS(dir)), dir, filepath.Base(abs), nil
}

func (c RootCommand) journal(ctx context.Context) (*sqlite.Repository, error) {
	repo, err := sqlite.NewRepository(ctx, sqlite.RepositoryConfig{
		DBPath: c.DBPath,
		Logger: c.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create repository: %w", err)
	}

	return repo, nil
}
