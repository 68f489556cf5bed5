package domain

// ScheduleEntry is a one-shot scheduler registration for a MirrorCommand.
type ScheduleEntry struct {
	TaskName    string
	TriggerDate string
	TriggerTime string
	CommandLine string
	Mirror      MirrorCommand
}
