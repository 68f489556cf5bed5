package domain

import (
	"fmt"
	"time"
)

// Timestamp is a calendar moment to second precision. It is formatted with
// fixed-width numeric fields only, so output never depends on locale.
type Timestamp struct {
	Year   int
	Month  int
	Day    int
	Hour   int
	Minute int
	Second int
}

func TimestampOf(t time.Time) Timestamp {
	return Timestamp{
		Year:   t.Year(),
		Month:  int(t.Month()),
		Day:    t.Day(),
		Hour:   t.Hour(),
		Minute: t.Minute(),
		Second: t.Second(),
	}
}

// Compact renders YYYYMMDD_HHMMSS.
func (ts Timestamp) Compact() string {
	return fmt.Sprintf("%04d%02d%02d_%02d%02d%02d", ts.Year, ts.Month, ts.Day, ts.Hour, ts.Minute, ts.Second)
}

// SchedulerDate renders MM/DD/YYYY, the only date layout schtasks accepts.
func (ts Timestamp) SchedulerDate() string {
	return fmt.Sprintf("%02d/%02d/%04d", ts.Month, ts.Day, ts.Year)
}

// SchedulerTime renders HH:MM. Seconds are dropped.
func (ts Timestamp) SchedulerTime() string {
	return fmt.Sprintf("%02d:%02d", ts.Hour, ts.Minute)
}
