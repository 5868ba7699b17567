package main

// Notes:
// - Helpers shared by the command tests. Every test that reaches the
//   settings database passes --db with a temp path, or --no-store, so the
//   user's real database is never touched.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// fixedNow is the clock used by test environments.
var fixedNow = time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

// cliResult captures one runMain invocation.
type cliResult struct {
	code   int
	stdout string
	stderr string
}

// newTestEnv returns an environment writing to buffers, without color.
func newTestEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdout: &stdout,
		Stderr: &stderr,
	}
	return env, &stdout, &stderr
}

// runCLI runs the CLI with args (without the program name).
func runCLI(t *testing.T, args ...string) cliResult {
	t.Helper()

	env, stdout, stderr := newTestEnv()
	code := runMain(append([]string{"log2html"}, args...), env)
	return cliResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

// mustRun runs the CLI and fails the test on a non-zero exit code.
func mustRun(t *testing.T, args ...string) cliResult {
	t.Helper()

	res := runCLI(t, args...)
	if res.code != ExitSuccess {
		t.Fatalf("log2html %v exited %d\nstdout: %s\nstderr: %s", args, res.code, res.stdout, res.stderr)
	}
	return res
}

// testDB returns a fresh settings database path.
func testDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "settings.db")
}

// writeFile creates dir/name with content, creating parents.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

// readFile returns the content of path.
func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path) // #nosec G304 -- test path
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", path, err)
	}
	return string(data)
}
