package app

import (
	"context"
	"fmt"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
	"robobackup/internal/logging"
)

// robocopy exit codes below 8 mean the copy succeeded; the low bits only
// describe what changed.
const mirrorFailureThreshold = 8

type Executor struct {
	Runner   ProcessRunner
	Notifier Notifier
	Ledger   ScheduleLedger
	Archiver LogArchiver
	// TempDir is where %TEMP% points for the launched shell.
	TempDir string
	DryRun  bool
	Logger  logging.Logger
}

// Execute launches the invocation and reports exactly one outcome through
// the notifier. Failures never escape as panics or exits; the caller is
// back to idle once this returns.
func (e *Executor) Execute(ctx context.Context, inv domain.Invocation) domain.Outcome {
	outcome := e.execute(ctx, inv)
	e.notify(ctx, outcome)
	return outcome
}

// Fail reports an error that happened before anything could be launched.
func (e *Executor) Fail(ctx context.Context, mode domain.Mode, err error) domain.Outcome {
	outcome := failure(mode, err)
	e.notify(ctx, outcome)
	return outcome
}

func (e *Executor) execute(ctx context.Context, inv domain.Invocation) domain.Outcome {
	if e.DryRun {
		return domain.Outcome{
			Mode:     inv.Mode,
			Status:   domain.StatusSuccess,
			Title:    "Dry run",
			Message:  "Nothing was started.",
			Command:  inv.Launch.String(),
			ExitCode: -1,
		}
	}
	if e.Runner == nil {
		return failure(inv.Mode, appErrors.New(appErrors.Internal, "execute", "executor requires a process runner"))
	}

	stop := e.Logger.Measure("Running " + inv.Launch.Executable)
	completion, err := e.Runner.Run(ctx, inv.Launch)
	stop()
	e.Logger.With(map[string]any{
		"mode":      inv.Mode.String(),
		"exit_code": completion.ExitCode,
		"waited":    completion.Waited,
	}).Debug("process finished")
	if err != nil {
		e.Logger.Warnf("Launch of %s failed: %v", inv.Launch.Executable, err)
		out := failure(inv.Mode, err)
		out.Command = inv.Launch.String()
		return out
	}

	switch inv.Mode {
	case domain.ModeImmediate:
		return e.finishMirror(ctx, inv, completion)
	case domain.ModeDeferred:
		return e.finishSchedule(inv, completion)
	default:
		return e.finishUnregister(inv, completion)
	}
}

func (e *Executor) finishMirror(ctx context.Context, inv domain.Invocation, c domain.Completion) domain.Outcome {
	out := domain.Outcome{
		Mode:     inv.Mode,
		Command:  inv.Launch.String(),
		ExitCode: c.ExitCode,
	}
	if e.TempDir != "" {
		out.LogPath = inv.Mirror.LogPath(e.TempDir)
	}

	if c.Waited && c.ExitCode >= mirrorFailureThreshold {
		err := appErrors.Wrap(appErrors.MirrorFailed, "robocopy", inv.Request.Destination, fmt.Errorf("exit code %d", c.ExitCode))
		out.Status = domain.StatusFailure
		out.Title = "Backup failed"
		out.Message = appErrors.UserMessage(err)
		out.Err = err
		return out
	}

	out.Status = domain.StatusSuccess
	out.Title = "Backup complete"
	out.Message = describeMirrorExit(c)

	if e.Archiver != nil && out.LogPath != "" {
		location, err := e.Archiver.Archive(ctx, out.LogPath)
		if err != nil {
			e.Logger.Warnf("Archiving %s failed: %v", out.LogPath, err)
		} else if location != "" {
			e.Logger.Infof("Archived log to %s", location)
		}
	}
	return out
}

func (e *Executor) finishSchedule(inv domain.Invocation, c domain.Completion) domain.Outcome {
	out := domain.Outcome{
		Mode:     inv.Mode,
		Command:  inv.Launch.String(),
		ExitCode: c.ExitCode,
	}
	if c.Waited && c.ExitCode != 0 {
		err := appErrors.Wrap(appErrors.Registration, "schtasks", inv.TaskName, fmt.Errorf("exit code %d", c.ExitCode))
		return failureWith(out, err)
	}

	out.Status = domain.StatusSuccess
	out.Title = "Task scheduled"
	out.Message = fmt.Sprintf("%s registered for %s %s.", inv.TaskName, inv.Schedule.TriggerDate, inv.Schedule.TriggerTime)

	if e.Ledger != nil {
		replaced, err := e.Ledger.Record(*inv.Schedule, inv.Request)
		if err != nil {
			e.Logger.Warnf("Recording %s in the ledger failed: %v", inv.TaskName, err)
		}
		if replaced {
			out.Message += " An earlier task with the same name was overwritten."
		}
	}
	return out
}

func (e *Executor) finishUnregister(inv domain.Invocation, c domain.Completion) domain.Outcome {
	out := domain.Outcome{
		Mode:     inv.Mode,
		Command:  inv.Launch.String(),
		ExitCode: c.ExitCode,
	}
	if c.Waited && c.ExitCode != 0 {
		err := appErrors.Wrap(appErrors.Registration, "schtasks", inv.TaskName, fmt.Errorf("exit code %d", c.ExitCode))
		return failureWith(out, err)
	}
	out.Status = domain.StatusSuccess
	out.Title = "Task removed"
	out.Message = fmt.Sprintf("%s was deleted from the scheduler.", inv.TaskName)

	if e.Ledger != nil {
		if _, err := e.Ledger.Remove(inv.TaskName); err != nil {
			e.Logger.Warnf("Removing %s from the ledger failed: %v", inv.TaskName, err)
		}
	}
	return out
}

func (e *Executor) notify(ctx context.Context, outcome domain.Outcome) {
	if e.Notifier == nil {
		return
	}
	if err := e.Notifier.Notify(ctx, outcome); err != nil {
		e.Logger.Warnf("Notification failed: %v", err)
	}
}

func failure(mode domain.Mode, err error) domain.Outcome {
	return failureWith(domain.Outcome{Mode: mode, ExitCode: -1}, err)
}

func failureWith(out domain.Outcome, err error) domain.Outcome {
	out.Status = domain.StatusFailure
	out.Err = err
	out.Message = appErrors.UserMessage(err)
	switch appErrors.KindOf(err) {
	case appErrors.Validation:
		out.Title = "Missing input"
	case appErrors.ElevationDenied:
		out.Title = "Permission declined"
	case appErrors.InvalidHandle:
		out.Title = "Invalid process handle"
	case appErrors.Registration:
		out.Title = "Scheduling failed"
	default:
		out.Title = "Could not start"
	}
	return out
}

func describeMirrorExit(c domain.Completion) string {
	if !c.Waited {
		return "The backup was started."
	}
	switch {
	case c.ExitCode == 0:
		return "Source and target were already in sync."
	case c.ExitCode&1 != 0:
		return "Files were copied to the target."
	case c.ExitCode&2 != 0:
		return "Extra files in the target were purged."
	default:
		return fmt.Sprintf("Completed with robocopy code %d.", c.ExitCode)
	}
}
