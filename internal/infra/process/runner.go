// Package process launches the external mirror and scheduler programs.
package process

import (
	"context"
	"io"
	"os"
	"os/exec"

	"robobackup/internal/logging"
)

// Runner implements app.ProcessRunner. On Windows it goes through
// ShellExecuteExW so elevation uses the normal UAC prompt; elsewhere it runs
// the command line through /bin/sh and treats elevation as "must already be
// root".
type Runner struct {
	Logger logging.Logger
	Stdout io.Writer
	Stderr io.Writer

	// commandContext allows mocking os/exec for testing.
	commandContext func(ctx context.Context, name string, arg ...string) *exec.Cmd
	geteuid        func() int
}

func NewRunner(logger logging.Logger) *Runner {
	return &Runner{
		Logger:         logger,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		commandContext: exec.CommandContext,
		geteuid:        os.Geteuid,
	}
}
