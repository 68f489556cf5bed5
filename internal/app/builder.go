package app

import (
	"robobackup/internal/domain"
)

const (
	DefaultMirrorExecutable = "robocopy"
	DefaultLogPrefix        = "ROBOCOPY"
	logDirectory            = `%TEMP%\`
)

// mirrorFlags are passed to robocopy verbatim, in this order:
//
//	/XO        copy only when the source is newer
//	/COPY:DAT  data, attributes, timestamps
//	/PURGE     delete destination entries missing from the source
//	/V         verbose
//	/E         recurse, including empty directories
//	/NJH /NJS  no job header, no job summary
//	/TEE       echo to the console as well as the log
var mirrorFlags = []string{"/XO", "/COPY:DAT", "/PURGE", "/V", "/E", "/NJH", "/NJS", "/TEE"}

// CommandBuilder turns a folder pair and a moment into a robocopy command.
// The zero value uses robocopy and the ROBOCOPY log prefix.
type CommandBuilder struct {
	Executable string
	LogPrefix  string
}

// Build is pure: the same inputs always yield the same command. Paths are
// wrapped in double quotes as given; embedded quotes are not escaped.
func (b CommandBuilder) Build(source, destination string, now domain.Timestamp) domain.MirrorCommand {
	logName := b.LogFileName(now)

	args := make([]string, 0, len(mirrorFlags)+3)
	args = append(args, quote(source), quote(destination))
	args = append(args, mirrorFlags...)
	args = append(args, "/LOG+:"+logDirectory+logName)

	return domain.MirrorCommand{
		Executable:  b.executable(),
		Arguments:   args,
		LogFileName: logName,
	}
}

// LogFileName is <prefix>YYYYMMDD_HHMMSS.log.
func (b CommandBuilder) LogFileName(ts domain.Timestamp) string {
	return b.logPrefix() + ts.Compact() + ".log"
}

func (b CommandBuilder) executable() string {
	if b.Executable == "" {
		return DefaultMirrorExecutable
	}
	return b.Executable
}

func (b CommandBuilder) logPrefix() string {
	if b.LogPrefix == "" {
		return DefaultLogPrefix
	}
	return b.LogPrefix
}

func quote(s string) string {
	return `"` + s + `"`
}
