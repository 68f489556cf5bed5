package app

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"robobackup/internal/domain"
)

type mockFS struct {
	dirs  map[string]bool
	files map[string]bool
}

func (m mockFS) Stat(path string) (fs.FileInfo, error) {
	if m.dirs[path] {
		return mockFileInfo{name: filepath.Base(path), isDir: true}, nil
	}
	if m.files[path] {
		return mockFileInfo{name: filepath.Base(path)}, nil
	}
	return nil, fs.ErrNotExist
}

type mockFileInfo struct {
	name  string
	isDir bool
}

func (m mockFileInfo) Name() string       { return m.name }
func (m mockFileInfo) Size() int64        { return 0 }
func (m mockFileInfo) Mode() fs.FileMode  { return 0 }
func (m mockFileInfo) ModTime() time.Time { return time.Time{} }
func (m mockFileInfo) IsDir() bool        { return m.isDir }
func (m mockFileInfo) Sys() interface{}   { return nil }

type mockRunner struct {
	completion domain.Completion
	err        error
	launches   []domain.Launch
}

func (m *mockRunner) Run(ctx context.Context, launch domain.Launch) (domain.Completion, error) {
	m.launches = append(m.launches, launch)
	if m.err != nil {
		return domain.Completion{ExitCode: -1}, m.err
	}
	return m.completion, nil
}

type mockNotifier struct {
	outcomes []domain.Outcome
}

func (m *mockNotifier) Notify(ctx context.Context, outcome domain.Outcome) error {
	m.outcomes = append(m.outcomes, outcome)
	return nil
}

type mockLedger struct {
	names   map[string]bool
	removed []string
}

func (m *mockLedger) Record(entry domain.ScheduleEntry, req domain.CopyRequest) (bool, error) {
	if m.names == nil {
		m.names = map[string]bool{}
	}
	existed := m.names[entry.TaskName]
	m.names[entry.TaskName] = true
	return existed, nil
}

func (m *mockLedger) Remove(taskName string) (bool, error) {
	m.removed = append(m.removed, taskName)
	existed := m.names[taskName]
	delete(m.names, taskName)
	return existed, nil
}

type mockArchiver struct {
	paths []string
	err   error
}

func (m *mockArchiver) Archive(ctx context.Context, logPath string) (string, error) {
	m.paths = append(m.paths, logPath)
	if m.err != nil {
		return "", m.err
	}
	return logPath + ".gz", nil
}
