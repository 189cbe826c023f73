// Package integration provides CLI integration tests for carthorse.
package integration

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

var (
	// carthorseBin is the path to the built carthorse binary.
	carthorseBin string
	// buildErr captures any build error.
	buildErr error
)

// BuildError wraps a build error with output.
type BuildError struct {
	Err    error
	Output string
}

func (e *BuildError) Error() string {
	return e.Err.Error() + ": " + e.Output
}

// FindProjectRoot finds the project root by walking up and looking for go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}

// SetCarthorseBin sets the path to the carthorse binary (called from TestMain).
func SetCarthorseBin(path string) {
	carthorseBin = path
}

// SetBuildErr sets the build error (called from TestMain).
func SetBuildErr(err error) {
	buildErr = err
}

// requireBinary skips nothing but fails fast when TestMain could not build.
func requireBinary(t *testing.T) {
	t.Helper()
	if buildErr != nil {
		t.Fatalf("carthorse binary not built: %v", buildErr)
	}
}

// cmdResult holds one CLI invocation's output.
type cmdResult struct {
	stdout   string
	stderr   string
	exitCode int
}

// runCarthorse invokes the built binary with isolated config and data
// directories.
func runCarthorse(t *testing.T, configDir, dataDir string, args ...string) cmdResult {
	t.Helper()
	requireBinary(t)

	cmd := exec.Command(carthorseBin, args...)
	cmd.Env = append(os.Environ(),
		"CARTHORSE_CONFIG_DIR="+configDir,
		"CARTHORSE_DATA_DIR="+dataDir,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := cmdResult{stdout: stdout.String(), stderr: stderr.String()}
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			t.Fatalf("run carthorse %v: %v", args, err)
		}
		res.exitCode = exitErr.ExitCode()
	}
	return res
}
