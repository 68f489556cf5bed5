//go:build !windows

package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"golang.org/x/sys/unix"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
)

func (r *Runner) Run(ctx context.Context, launch domain.Launch) (domain.Completion, error) {
	notWaited := domain.Completion{ExitCode: -1}

	select {
	case <-ctx.Done():
		return notWaited, ctx.Err()
	default:
	}

	if launch.Elevate && r.geteuid() != 0 {
		return notWaited, appErrors.Wrap(appErrors.ElevationDenied, "launch", launch.Executable, errors.New("elevation requires running as root"))
	}

	cmd := r.createCommand(ctx, launch.String())

	var captured bytes.Buffer
	if launch.Visible {
		cmd.Stdout = r.Stdout
		cmd.Stderr = r.Stderr
	} else {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	}

	r.Logger.Verbosef("Executing %s", launch.String())
	if err := cmd.Start(); err != nil {
		return notWaited, appErrors.Wrap(appErrors.StartFailed, "launch", launch.Executable, err)
	}

	if !launch.WaitForExit {
		go cmd.Wait()
		return notWaited, nil
	}
	if cmd.Process == nil {
		return notWaited, appErrors.Wrap(appErrors.InvalidHandle, "wait", launch.Executable, errors.New("no process handle was returned"))
	}

	err := cmd.Wait()
	if out := strings.TrimSpace(captured.String()); out != "" {
		r.Logger.Verbosef("%s output: %s", launch.Executable, out)
	}
	if err == nil {
		return domain.Completion{ExitCode: 0, Waited: true}, nil
	}
	if ctx.Err() != nil {
		return notWaited, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return domain.Completion{ExitCode: exitErr.ExitCode(), Waited: true}, nil
	}
	return notWaited, appErrors.Wrap(appErrors.InvalidHandle, "wait", launch.Executable, err)
}

// createCommand runs the line through /bin/sh in its own process group so a
// cancelled context takes down the whole tree.
func (r *Runner) createCommand(ctx context.Context, line string) *exec.Cmd {
	cmd := r.commandContext(ctx, "/bin/sh", "-c", line)
	cmd.SysProcAttr = &unix.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	return cmd
}
