// Package ledger keeps a YAML record of the scheduler tasks this tool
// registered, so they can be listed and removed later.
package ledger

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/goccy/go-yaml"

	"robobackup/internal/domain"
	osfs "robobackup/internal/infra/fs"
)

type Record struct {
	TaskName     string    `yaml:"task_name"`
	TriggerDate  string    `yaml:"trigger_date"`
	TriggerTime  string    `yaml:"trigger_time"`
	Source       string    `yaml:"source"`
	Destination  string    `yaml:"destination"`
	LogFile      string    `yaml:"log_file"`
	CommandLine  string    `yaml:"command_line"`
	RegisteredAt time.Time `yaml:"registered_at"`
}

type document struct {
	Schedules []Record `yaml:"schedules"`
}

type Ledger struct {
	path string
	fs   osfs.OSFS
	now  func() time.Time
	mu   sync.Mutex
}

func Open(path string) *Ledger {
	return &Ledger{path: path, now: time.Now}
}

// DefaultPath is <user config dir>/robobackup/schedules.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "robobackup", "schedules.yaml"), nil
}

func (l *Ledger) Path() string {
	return l.path
}

func (l *Ledger) List() ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.load()
	if err != nil {
		return nil, err
	}
	return doc.Schedules, nil
}

// Record stores entry, replacing any record with the same task name. The
// scheduler itself overwrites silently, so the returned flag is the only
// signal that an earlier registration was lost.
func (l *Ledger) Record(entry domain.ScheduleEntry, req domain.CopyRequest) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.load()
	if err != nil {
		return false, err
	}

	rec := Record{
		TaskName:     entry.TaskName,
		TriggerDate:  entry.TriggerDate,
		TriggerTime:  entry.TriggerTime,
		Source:       req.Source,
		Destination:  req.Destination,
		LogFile:      entry.Mirror.LogFileName,
		CommandLine:  entry.CommandLine,
		RegisteredAt: l.now().UTC().Truncate(time.Second),
	}

	replaced := false
	for i := range doc.Schedules {
		if doc.Schedules[i].TaskName == entry.TaskName {
			doc.Schedules[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		doc.Schedules = append(doc.Schedules, rec)
	}
	return replaced, l.save(doc)
}

func (l *Ledger) Remove(taskName string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	doc, err := l.load()
	if err != nil {
		return false, err
	}

	kept := doc.Schedules[:0]
	removed := false
	for _, rec := range doc.Schedules {
		if rec.TaskName == taskName {
			removed = true
			continue
		}
		kept = append(kept, rec)
	}
	if !removed {
		return false, nil
	}
	doc.Schedules = kept
	return true, l.save(doc)
}

func (l *Ledger) load() (document, error) {
	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return document{}, nil
	}
	if err != nil {
		return document{}, fmt.Errorf("read ledger: %w", err)
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return document{}, fmt.Errorf("parse ledger %s: %w", l.path, err)
	}
	return doc, nil
}

func (l *Ledger) save(doc document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := l.fs.WriteFileAtomic(l.path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
