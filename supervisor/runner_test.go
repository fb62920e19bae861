//go:build unix

package supervisor

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRunner(t *testing.T, dir string) (*ExecRunner, *bytes.Buffer) {
	t.Helper()
	var stdout bytes.Buffer
	r := NewExecRunner(dir, zap.NewNop().Sugar())
	r.Stdout = &stdout
	r.Stderr = &bytes.Buffer{}
	return r, &stdout
}

func TestRunSuccess(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	out, err := r.Run(context.Background(), []string{"sh", "-c", "exit 0"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 0, out.ExitCode)
	assert.True(t, out.Succeeded())
}

func TestRunFailureExitCodePreserved(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	out, err := r.Run(context.Background(), []string{"sh", "-c", "exit 3"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StatusFailure, out.Status)
	assert.Equal(t, 3, out.ExitCode)
}

func TestRunTimeout(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	start := time.Now()
	out, err := r.Run(context.Background(), []string{"sh", "-c", "sleep 30"}, 100*time.Millisecond)
	require.NoError(t, err)

	assert.Equal(t, StatusTimedOut, out.Status)
	// SIGKILL to the process group surfaces as 128+9, like a shell reports
	assert.Equal(t, 137, out.ExitCode)
	assert.Less(t, time.Since(start), 10*time.Second, "must not wait out the sleep")
}

func TestRunTimeoutKillsDescendants(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	// The child spawns its own child; the whole group must die
	out, err := r.Run(context.Background(), []string{"sh", "-c", "sleep 30 & wait"}, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, StatusTimedOut, out.Status)
}

func TestRunMissingBinary(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	_, err := r.Run(context.Background(), []string{"definitely-not-a-real-binary-xyz"}, time.Minute)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start")
}

func TestRunEmptyArgv(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	_, err := r.Run(context.Background(), nil, time.Minute)
	assert.Error(t, err)
}

func TestRunArgumentOrder(t *testing.T) {
	r, stdout := newTestRunner(t, t.TempDir())

	out, err := r.Run(context.Background(), []string{"sh", "-c", `echo "$0 $1 $2"`, "a", "b", "c"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "a b c", strings.TrimSpace(stdout.String()))
}

func TestRunWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker"), []byte("hello"), 0o644))

	r, stdout := newTestRunner(t, dir)
	out, err := r.Run(context.Background(), []string{"cat", "marker"}, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "hello", stdout.String())
}

func TestRunNoLimit(t *testing.T) {
	r, _ := newTestRunner(t, t.TempDir())

	out, err := r.Run(context.Background(), []string{"true"}, 0)
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, out.Status)
}
