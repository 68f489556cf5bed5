package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
	"robobackup/internal/logging"
)

const ShellExecutable = "cmd.exe"

// Planner validates a request and decides exactly what will be launched.
// It never starts anything itself.
type Planner struct {
	// FS is optional. When set, both paths must be existing directories.
	FS        FileSystem
	Builder   CommandBuilder
	Registrar ScheduleRegistrar
	Logger    logging.Logger
}

func (p *Planner) Validate(req domain.CopyRequest) error {
	if req.Empty() {
		return appErrors.New(appErrors.Validation, "validate", "source and target are required")
	}
	for _, path := range []string{req.Source, req.Destination} {
		if strings.Contains(path, `"`) {
			return appErrors.Wrap(appErrors.Validation, "validate", path, errors.New("path must not contain a double quote"))
		}
		if p.FS == nil {
			continue
		}
		info, err := p.FS.Stat(path)
		if err != nil {
			return appErrors.Wrap(appErrors.Validation, "stat", path, err)
		}
		if !info.IsDir() {
			return appErrors.Wrap(appErrors.Validation, "stat", path, fmt.Errorf("%s is not a directory", path))
		}
	}
	return nil
}

// PlanImmediate runs robocopy through cmd.exe so %TEMP% in the log argument
// is expanded. The launch is elevated, visible and waited on.
func (p *Planner) PlanImmediate(req domain.CopyRequest, now time.Time) (domain.Invocation, error) {
	req = normalizeRequest(req)
	if err := p.Validate(req); err != nil {
		return domain.Invocation{}, err
	}

	mirror := p.Builder.Build(req.Source, req.Destination, domain.TimestampOf(now))
	p.Logger.Verbosef("Planned mirror %s", mirror.CommandLine())

	return domain.Invocation{
		Mode:    domain.ModeImmediate,
		Request: req,
		Mirror:  mirror,
		Launch: domain.Launch{
			Executable:   ShellExecutable,
			ArgumentLine: "/c " + mirror.CommandLine(),
			Elevate:      true,
			WaitForExit:  true,
			Visible:      true,
		},
	}, nil
}

// PlanDeferred registers a one-shot task at the given moment. Only the
// registration is waited on, never the scheduled run.
func (p *Planner) PlanDeferred(req domain.CopyRequest, at, now time.Time) (domain.Invocation, error) {
	req = normalizeRequest(req)
	if err := p.Validate(req); err != nil {
		return domain.Invocation{}, err
	}
	if at.IsZero() {
		return domain.Invocation{}, appErrors.New(appErrors.Validation, "schedule", "a trigger time is required")
	}
	if !at.After(now) {
		return domain.Invocation{}, appErrors.Wrap(appErrors.Validation, "schedule", "", fmt.Errorf("trigger %s is not in the future", at.Format("2006-01-02 15:04")))
	}

	registrar := p.Registrar
	registrar.Builder = p.Builder
	entry := registrar.RegisterDeferred(req.Source, req.Destination, domain.TimestampOf(at))
	p.Logger.Verbosef("Planned schedule %s at %s %s", entry.TaskName, entry.TriggerDate, entry.TriggerTime)

	return domain.Invocation{
		Mode:     domain.ModeDeferred,
		Request:  req,
		Mirror:   entry.Mirror,
		Schedule: &entry,
		TaskName: entry.TaskName,
		Launch: domain.Launch{
			Executable:   SchedulerExecutable,
			ArgumentLine: entry.CommandLine,
			Elevate:      true,
			WaitForExit:  true,
			Visible:      false,
		},
	}, nil
}

func (p *Planner) PlanUnregister(taskName string) (domain.Invocation, error) {
	taskName = strings.TrimSpace(taskName)
	if taskName == "" {
		return domain.Invocation{}, appErrors.New(appErrors.Validation, "unschedule", "task name is required")
	}
	if strings.Contains(taskName, `"`) {
		return domain.Invocation{}, appErrors.Wrap(appErrors.Validation, "unschedule", taskName, errors.New("task name must not contain a double quote"))
	}
	return domain.Invocation{
		Mode:     domain.ModeUnregister,
		TaskName: taskName,
		Launch: domain.Launch{
			Executable:   SchedulerExecutable,
			ArgumentLine: p.Registrar.UnregisterLine(taskName),
			Elevate:      true,
			WaitForExit:  true,
			Visible:      false,
		},
	}, nil
}

func normalizeRequest(req domain.CopyRequest) domain.CopyRequest {
	return domain.CopyRequest{Source: normalizePath(req.Source), Destination: normalizePath(req.Destination)}
}

// normalizePath drops trailing separators, because a quoted argument ending
// in a backslash swallows its closing quote. Drive roots become `X:\.`.
func normalizePath(path string) string {
	path = strings.TrimSpace(path)
	trimmed := strings.TrimRight(path, `\/`)
	switch {
	case trimmed == path:
		return path
	case trimmed == "":
		if path[0] == '\\' {
			return `\.`
		}
		return "/"
	case len(trimmed) == 2 && trimmed[1] == ':':
		return trimmed + `\.`
	default:
		return trimmed
	}
}
