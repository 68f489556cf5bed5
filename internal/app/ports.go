package app

import (
	"context"
	"io/fs"

	"robobackup/internal/domain"
)

type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
}

// ProcessRunner starts an external program, optionally elevated, and
// optionally waits for it to exit.
type ProcessRunner interface {
	Run(ctx context.Context, launch domain.Launch) (domain.Completion, error)
}

type Notifier interface {
	Notify(ctx context.Context, outcome domain.Outcome) error
}

// ScheduleLedger remembers the registrations this tool made. Record reports
// whether an entry with the same task name was replaced.
type ScheduleLedger interface {
	Record(entry domain.ScheduleEntry, req domain.CopyRequest) (bool, error)
	Remove(taskName string) (bool, error)
}

// LogArchiver stores a finished run's log file somewhere durable and returns
// where it went.
type LogArchiver interface {
	Archive(ctx context.Context, logPath string) (string, error)
}
