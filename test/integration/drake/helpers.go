package drake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/slok/drake/test/integration/testutils"
)

// Config holds integration test configuration loaded from environment variables.
type Config struct {
	Binary string
}

func (c *Config) defaults() error {
	// go test changes the CWD to the test package directory so the binary must be absolute.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("DRAKE_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("drake binary not found at %q: %w", c.Binary, err)
	}

	return nil
}

// NewConfig loads integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "DRAKE_INTEGRATION"
		envBinary     = "DRAKE_INTEGRATION_BINARY"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{Binary: os.Getenv(envBinary)}
	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RunDrakeCmd runs a drake command from dir with an isolated run journal.
func RunDrakeCmd(ctx context.Context, config Config, dir, cmdArgs string) (stdout, stderr []byte, err error) {
	args := fmt.Sprintf("--db-path %s %s", filepath.Join(dir, ".drake", "drake.db"), cmdArgs)
	return testutils.RunDrake(ctx, nil, config.Binary, dir, args, true)
}

// WriteFile writes a file inside dir with the modification time set.
func WriteFile(t *testing.T, dir, name, content string, modTime time.Time) {
	t.Helper()

	p := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("could not create dir: %s", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("could not write file: %s", err)
	}
	if err := os.Chtimes(p, modTime, modTime); err != nil {
		t.Fatalf("could not set file times: %s", err)
	}
}
