package domain

import (
	"path/filepath"
	"strings"
)

// MirrorCommand is one robocopy invocation. It is built fresh per run and
// never mutated.
type MirrorCommand struct {
	Executable  string
	Arguments   []string
	LogFileName string
}

func (c MirrorCommand) ArgumentLine() string {
	return strings.Join(c.Arguments, " ")
}

func (c MirrorCommand) CommandLine() string {
	if len(c.Arguments) == 0 {
		return c.Executable
	}
	return c.Executable + " " + c.ArgumentLine()
}

// LogPath resolves the log file against a concrete temp directory.
func (c MirrorCommand) LogPath(tempDir string) string {
	return filepath.Join(tempDir, c.LogFileName)
}
