package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testEnv is a config file and database in a temporary directory.
type testEnv struct {
	t      *testing.T
	config string
	db     string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte("logging:\n  level: error\n"), 0600))
	return &testEnv{
		t:      t,
		config: config,
		db:     filepath.Join(dir, "data", "bookkeeper.db"),
	}
}

// run executes the root command with input on stdin and returns stdout.
func (e *testEnv) run(input string, args ...string) (string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--config", e.config, "--db", e.db}, args...))
	cmd.SetIn(strings.NewReader(input))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// mustRun is run that fails the test on error.
func (e *testEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, "bookkeeper %s", strings.Join(args, " "))
	return out
}
