package app

import (
	"fmt"
	"strings"

	"robobackup/internal/domain"
)

const (
	SchedulerExecutable = "schtasks.exe"
	DefaultTaskPrefix   = "RobocopyBackup_"
)

// ScheduleRegistrar builds schtasks command lines for one-shot mirror runs.
//
// The /TR value embeds the whole robocopy command line, which itself holds
// quoted paths. By default those inner quotes are escaped as \" (doubling any
// backslashes right before them) so schtasks keeps the paths intact.
// LegacyQuoting leaves them unescaped, which breaks on paths with spaces but
// matches command lines produced by older builds.
type ScheduleRegistrar struct {
	Builder       CommandBuilder
	TaskPrefix    string
	LegacyQuoting bool
}

// RegisterDeferred is pure. The mirror log is named after the trigger, not
// after the moment the task actually runs.
func (r ScheduleRegistrar) RegisterDeferred(source, destination string, trigger domain.Timestamp) domain.ScheduleEntry {
	mirror := r.Builder.Build(source, destination, trigger)
	name := r.TaskName(trigger)
	date := trigger.SchedulerDate()
	clock := trigger.SchedulerTime()

	taskRun := mirror.CommandLine()
	if !r.LegacyQuoting {
		taskRun = escapeNestedQuotes(taskRun)
	}

	line := fmt.Sprintf(`/Create /SC ONCE /TN "%s" /TR "%s" /ST %s /SD %s /F`, name, taskRun, clock, date)

	return domain.ScheduleEntry{
		TaskName:    name,
		TriggerDate: date,
		TriggerTime: clock,
		CommandLine: line,
		Mirror:      mirror,
	}
}

// TaskName is <prefix>YYYYMMDD_HHMMSS. Two registrations in the same second
// share a name.
func (r ScheduleRegistrar) TaskName(ts domain.Timestamp) string {
	prefix := r.TaskPrefix
	if prefix == "" {
		prefix = DefaultTaskPrefix
	}
	return prefix + ts.Compact()
}

func (r ScheduleRegistrar) UnregisterLine(taskName string) string {
	return fmt.Sprintf(`/Delete /TN "%s" /F`, taskName)
}

// escapeNestedQuotes escapes s for use inside one quoted Windows argument:
// a run of n backslashes before a quote becomes 2n+1 backslashes and the
// quote, and a trailing run is doubled so it cannot eat the closing quote.
func escapeNestedQuotes(s string) string {
	var b strings.Builder
	backslashes := 0
	for _, r := range s {
		switch r {
		case '\\':
			backslashes++
			b.WriteRune(r)
			continue
		case '"':
			b.WriteString(strings.Repeat(`\`, backslashes+1))
		}
		b.WriteRune(r)
		backslashes = 0
	}
	b.WriteString(strings.Repeat(`\`, backslashes))
	return b.String()
}
