package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"robobackup/internal/app"
	appErrors "robobackup/internal/errors"
)

var testNow = time.Date(2024, 1, 5, 9, 0, 0, 0, time.Local)

func newTestModel(cfg Config) Model {
	cfg.Session = &app.Session{
		Planner:  &app.Planner{},
		Executor: &app.Executor{DryRun: true},
		Now:      func() time.Time { return testNow },
	}
	cfg.DryRun = true
	return NewModel(cfg)
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestConfirmRunsImmediateBackup(t *testing.T) {
	m := newTestModel(Config{Source: `C:\Data`, Target: `D:\Backup`})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Phase != PhaseRunning {
		t.Fatalf("expected running phase, got %v", m.Phase)
	}
	if cmd == nil {
		t.Fatalf("expected a command to run the backup")
	}

	msg := confirmCmd(context.Background(), m.config.Session)()
	outcome, ok := msg.(OutcomeMsg)
	if !ok {
		t.Fatalf("expected OutcomeMsg, got %T", msg)
	}
	if !strings.Contains(outcome.Outcome.Command, `cmd.exe /c robocopy "C:\Data" "D:\Backup"`) {
		t.Fatalf("unexpected command %q", outcome.Outcome.Command)
	}

	next, _ := m.Update(outcome)
	m = next.(Model)
	if m.Phase != PhaseDone {
		t.Fatalf("expected done phase, got %v", m.Phase)
	}
	if !strings.Contains(m.View(), "Dry run") {
		t.Fatalf("expected dry run outcome in view")
	}
}

func TestConfirmScheduledBackup(t *testing.T) {
	at := time.Date(2024, 1, 5, 9, 30, 0, 0, time.Local)
	m := newTestModel(Config{Source: `C:\Data`, Target: `D:\Backup`, At: &at})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Phase != PhaseRunning {
		t.Fatalf("expected running phase, got %v", m.Phase)
	}
	if !m.config.Session.State.Schedule || !m.config.Session.State.At.Equal(at) {
		t.Fatalf("expected schedule state for %v, got %+v", at, m.config.Session.State)
	}

	outcome := confirmCmd(context.Background(), m.config.Session)().(OutcomeMsg).Outcome
	if !strings.HasPrefix(outcome.Command, "schtasks.exe /Create /SC ONCE /TN \"RobocopyBackup_20240105_093000\"") {
		t.Fatalf("unexpected command %q", outcome.Command)
	}
	if !strings.Contains(outcome.Command, "/ST 09:30 /SD 01/05/2024 /F") {
		t.Fatalf("expected trigger in command %q", outcome.Command)
	}
}

func TestConfirmWithMissingInputReportsFailure(t *testing.T) {
	m := newTestModel(Config{})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	outcome := confirmCmd(context.Background(), m.config.Session)().(OutcomeMsg).Outcome
	if outcome.Succeeded() {
		t.Fatalf("expected failure outcome")
	}
	if outcome.Title != "Missing input" {
		t.Fatalf("unexpected title %q", outcome.Title)
	}
}

func TestInvalidTriggerTimeShowsError(t *testing.T) {
	m := newTestModel(Config{Source: `C:\Data`, Target: `D:\Backup`})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if !m.schedule {
		t.Fatalf("expected schedule toggled on")
	}
	m.inputs[fieldAt].SetValue("tomorrow")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Phase != PhaseError {
		t.Fatalf("expected error phase, got %v", m.Phase)
	}
	if !appErrors.Is(m.Err, appErrors.InvalidConfig) {
		t.Fatalf("expected invalid config error, got %v", m.Err)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Phase != PhaseEditing {
		t.Fatalf("expected to return to editing, got %v", m.Phase)
	}
}

func TestTypingAndFocus(t *testing.T) {
	m := newTestModel(Config{})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(`C:\Data`)})
	if got := m.inputs[fieldSource].Value(); got != `C:\Data` {
		t.Fatalf("expected typed source, got %q", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != fieldTarget {
		t.Fatalf("expected target focus, got %v", m.focus)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.focus != fieldSource {
		t.Fatalf("time field should be skipped while scheduling is off, got %v", m.focus)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.focus != fieldAt {
		t.Fatalf("expected time field focus, got %v", m.focus)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})
	if m.focus == fieldAt {
		t.Fatalf("focus should leave the hidden time field")
	}
}

func TestBrowseDismissKeepsField(t *testing.T) {
	m := newTestModel(Config{Source: `C:\Data`})

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.Phase != PhaseBrowsing {
		t.Fatalf("expected browsing phase, got %v", m.Phase)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Phase != PhaseEditing {
		t.Fatalf("expected editing phase, got %v", m.Phase)
	}
	if got := m.inputs[fieldSource].Value(); got != `C:\Data` {
		t.Fatalf("expected source unchanged, got %q", got)
	}
}

func TestCtrlCWhileRunningCancelsBeforeQuitting(t *testing.T) {
	m := newTestModel(Config{Source: `C:\Data`, Target: `D:\Backup`})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.Phase != PhaseRunning {
		t.Fatalf("expected running phase, got %v", m.Phase)
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlC})
	if m.ctx.Err() != context.Canceled {
		t.Fatalf("expected the invocation context to be cancelled, got %v", m.ctx.Err())
	}
	if m.Quitting || cmd != nil {
		t.Fatalf("expected to wait for the outcome before quitting")
	}
	if !strings.Contains(m.View(), "Cancelling...") {
		t.Fatalf("expected cancelling hint in view")
	}

	outcome := confirmCmd(m.ctx, m.config.Session)().(OutcomeMsg)
	next, cmd := m.Update(outcome)
	m = next.(Model)
	if !m.Quitting || cmd == nil {
		t.Fatalf("expected quit after the outcome arrived")
	}
	if m.Outcome.Title == "" {
		t.Fatalf("expected the outcome to be kept for the caller")
	}
}

func TestQuitCancelsContext(t *testing.T) {
	m := newTestModel(Config{})

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.Quitting || cmd == nil {
		t.Fatalf("expected esc to quit")
	}
	if m.ctx.Err() != context.Canceled {
		t.Fatalf("expected context to be cancelled on quit, got %v", m.ctx.Err())
	}
}
