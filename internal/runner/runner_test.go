package runner

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skipOnWindows(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestExec_CapturesOutput(t *testing.T) {
	skipOnWindows(t)

	result, err := NewExec().Run(context.Background(), "sh", "-c", "echo out; echo err >&2")
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Equal(t, "out\n", result.Stdout)
	assert.Equal(t, "err\n", result.Stderr)
}

func TestExec_NonZeroExitIsNotAnError(t *testing.T) {
	skipOnWindows(t)

	result, err := NewExec().Run(context.Background(), "sh", "-c", "echo broken >&2; exit 3")
	require.NoError(t, err)

	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "broken\n", result.Stderr)
}

func TestExec_MissingBinary(t *testing.T) {
	_, err := NewExec().Run(context.Background(), "/nonexistent/deardayone-tool")
	assert.Error(t, err)
}

func TestExec_CancelledContext(t *testing.T) {
	skipOnWindows(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExec().Run(ctx, "sh", "-c", "sleep 5")
	assert.Error(t, err)
}
