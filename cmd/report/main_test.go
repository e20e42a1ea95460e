package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var settingKeys = []string{
	"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
	"REPORT_ENV", "REPORT_LOG_LEVEL", "REPORT_LOG_FORMAT", "REPORT_LOG_FILE",
}

// clearEnv makes every setting absent for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range settingKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

// execute runs the root command and returns what it wrote to stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer

	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	var err error
	require.NotPanics(t, func() {
		err = cmd.ExecuteContext(context.Background())
	})
	return stdout.String(), stderr.String(), err
}

func linesWithPrefix(output, prefix string) []string {
	var found []string
	for _, line := range strings.Split(output, "\n") {
		if strings.HasPrefix(line, prefix) {
			found = append(found, line)
		}
	}
	return found
}

func TestRunInvalidSettingsPrintsDataError(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("REPORT_LOG_LEVEL=loud\n"), 0o600))

	stdout, stderr, err := execute(t, "--env-file", envFile)

	require.NoError(t, err, "failures are reported, not returned")
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "A data error occurred: "), lines[0])
	assert.Empty(t, stderr)
}

func TestRunBadPortPrintsDatabaseError(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "not-a-port")

	stdout, _, err := execute(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	assert.Len(t, linesWithPrefix(stdout, "A database error occurred: "), 1)
	assert.Contains(t, stdout, "connection failed")
}

func TestRunJSONSendsLogsToStderr(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "not-a-port")

	stdout, stderr, err := execute(t, "--json", "--env-file", filepath.Join(t.TempDir(), "missing.env"))

	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 1, "only the error line goes to stdout")
	assert.True(t, strings.HasPrefix(lines[0], "A database error occurred: "), lines[0])
	assert.Contains(t, stderr, "connection failed")
	assert.NotContains(t, stdout, "connection failed")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	clearEnv(t)

	_, _, err := execute(t, "--no-such-flag")
	assert.Error(t, err)
}

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("disk full") }

func TestCloseLogReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf).Level(zerolog.DebugLevel)

	closeLog(&log, failingCloser{})

	assert.Contains(t, buf.String(), "closing log file failed")
	assert.Contains(t, buf.String(), "disk full")
}
