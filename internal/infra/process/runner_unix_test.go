//go:build !windows

package process

import (
	"bytes"
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
	"robobackup/internal/logging"
)

func testRunner(euid int) (*Runner, *bytes.Buffer) {
	var out bytes.Buffer
	r := NewRunner(logging.Logger{})
	r.Stdout = &out
	r.Stderr = &out
	r.geteuid = func() int { return euid }
	return r, &out
}

func TestRunReportsExitCode(t *testing.T) {
	r, _ := testRunner(0)
	c, err := r.Run(context.Background(), domain.Launch{Executable: "exit", ArgumentLine: "3", WaitForExit: true})
	require.NoError(t, err)
	require.True(t, c.Waited)
	require.Equal(t, 3, c.ExitCode)
}

func TestRunVisibleStreamsOutput(t *testing.T) {
	r, out := testRunner(0)
	c, err := r.Run(context.Background(), domain.Launch{Executable: "echo", ArgumentLine: "mirrored", WaitForExit: true, Visible: true})
	require.NoError(t, err)
	require.Equal(t, 0, c.ExitCode)
	require.Contains(t, out.String(), "mirrored")
}

func TestRunHiddenCapturesOutput(t *testing.T) {
	r, out := testRunner(0)
	_, err := r.Run(context.Background(), domain.Launch{Executable: "echo", ArgumentLine: "quiet", WaitForExit: true})
	require.NoError(t, err)
	require.Empty(t, out.String())
}

func TestRunElevationDeniedForNonRoot(t *testing.T) {
	r, _ := testRunner(1000)
	called := false
	r.commandContext = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		called = true
		return exec.CommandContext(ctx, name, arg...)
	}

	_, err := r.Run(context.Background(), domain.Launch{Executable: "true", Elevate: true, WaitForExit: true})
	require.True(t, appErrors.Is(err, appErrors.ElevationDenied))
	require.False(t, called)
}

func TestRunStartFailure(t *testing.T) {
	r, _ := testRunner(0)
	r.commandContext = func(ctx context.Context, name string, arg ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "/definitely/not/a/shell")
	}
	_, err := r.Run(context.Background(), domain.Launch{Executable: "true", WaitForExit: true})
	require.True(t, appErrors.Is(err, appErrors.StartFailed))
}

func TestRunWithoutWait(t *testing.T) {
	r, _ := testRunner(0)
	c, err := r.Run(context.Background(), domain.Launch{Executable: "true"})
	require.NoError(t, err)
	require.False(t, c.Waited)
	require.Equal(t, -1, c.ExitCode)
}

func TestRunCancelledWhileWaiting(t *testing.T) {
	r, _ := testRunner(0)
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := r.Run(ctx, domain.Launch{Executable: "sleep", ArgumentLine: "10", WaitForExit: true})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Less(t, time.Since(start), 5*time.Second)
}
