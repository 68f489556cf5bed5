package logging

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger provides optional verbose logging and lightweight timing helpers.
// The zero value discards everything.
type Logger struct {
	base    *logrus.Logger
	Verbose bool
}

func New(writer io.Writer, verbose bool) Logger {
	base := logrus.New()
	base.SetOutput(writer)
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	base.SetLevel(logrus.InfoLevel)
	if verbose {
		base.SetLevel(logrus.DebugLevel)
	}
	return Logger{base: base, Verbose: verbose}
}

func (l Logger) Infof(format string, args ...any) {
	if l.base == nil {
		return
	}
	l.base.Infof(format, args...)
}

func (l Logger) Warnf(format string, args ...any) {
	if l.base == nil {
		return
	}
	l.base.Warnf(format, args...)
}

func (l Logger) Verbosef(format string, args ...any) {
	if !l.Verbose || l.base == nil {
		return
	}
	l.base.Debugf(format, args...)
}

// With returns a logrus entry carrying the given fields. It is nil-safe so
// callers can chain on a zero Logger.
func (l Logger) With(fields map[string]any) *logrus.Entry {
	if l.base == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		return logrus.NewEntry(discard)
	}
	return l.base.WithFields(logrus.Fields(fields))
}

// Measure returns a stop function that logs the elapsed time when called.
func (l Logger) Measure(label string) func() {
	if !l.Verbose {
		return func() {}
	}
	start := time.Now()
	return func() {
		elapsed := time.Since(start).Round(time.Millisecond)
		l.Verbosef("%s took %s", label, elapsed)
	}
}
