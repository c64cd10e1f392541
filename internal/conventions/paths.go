package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default drake data directory name (relative to home).
	DefaultDataDir = ".drake"
	// DBFile is the filename of the run journal database.
	DBFile = "drake.db"

	// DefaultDrakefile is the Drakefile loaded when none is set.
	DefaultDrakefile = "Drakefile.yaml"
	// DefaultTarget is invoked when no target is requested and the Drakefile has no default.
	DefaultTarget = "default"

	// EnvTaskName is the environment variable with the name of the task running a command.
	EnvTaskName = "DRAKE_TASK"
	// EnvDBPath overrides the run journal database path.
	EnvDBPath = "DRAKE_DB_PATH"
)

// DBPath returns the path of the run journal database inside the data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}
