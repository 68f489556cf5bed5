package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"robobackup/internal/app"
	"robobackup/internal/config"
	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
)

// Phase represents the current state of the TUI
type Phase int

const (
	PhaseEditing Phase = iota
	PhaseBrowsing
	PhaseRunning
	PhaseDone
	PhaseError
)

type field int

const (
	fieldSource field = iota
	fieldTarget
	fieldAt
	fieldCount
)

// OutcomeMsg carries the result of a confirmed invocation back to the model.
type OutcomeMsg struct {
	Outcome domain.Outcome
}

// Config for the TUI. Session must be wired with a planner and executor.
type Config struct {
	Session *app.Session
	Context context.Context
	Source  string
	Target  string
	At      *time.Time
	DryRun  bool
	Verbose bool
}

// Model is the main TUI model
type Model struct {
	config   Config
	Phase    Phase
	inputs   [fieldCount]textinput.Model
	focus    field
	schedule bool
	picker   filepicker.Model
	browsing field
	spinner  spinner.Model
	Outcome  domain.Outcome
	Err      error
	Quitting bool
	width    int
	height   int

	ctx        context.Context
	cancel     context.CancelFunc
	cancelling bool
}

// NewModel creates a new TUI model
func NewModel(cfg Config) Model {
	if cfg.Context == nil {
		cfg.Context = context.Background()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	var inputs [fieldCount]textinput.Model
	placeholders := [fieldCount]string{`C:\Users\me\Documents`, `E:\Backup\Documents`, config.AtLayout}
	for i := range inputs {
		in := textinput.New()
		in.Placeholder = placeholders[i]
		in.Prompt = ""
		in.CharLimit = 260
		in.Width = 60
		inputs[i] = in
	}
	inputs[fieldSource].SetValue(cfg.Source)
	inputs[fieldTarget].SetValue(cfg.Target)

	ctx, cancel := context.WithCancel(cfg.Context)

	m := Model{
		ctx:     ctx,
		cancel:  cancel,
		config:  cfg,
		Phase:   PhaseEditing,
		inputs:  inputs,
		picker:  newPicker(),
		spinner: s,
		width:   80,
		height:  24,
	}
	if cfg.At != nil {
		m.schedule = true
		m.inputs[fieldAt].SetValue(cfg.At.Format(config.AtLayout))
	} else {
		m.inputs[fieldAt].SetValue(time.Now().Add(time.Hour).Truncate(time.Minute).Format(config.AtLayout))
	}
	m.inputs[fieldSource].Focus()
	return m
}

func newPicker() filepicker.Model {
	fp := filepicker.New()
	fp.DirAllowed = true
	fp.FileAllowed = false
	return fp
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.Phase == PhaseBrowsing {
			var cmd tea.Cmd
			m.picker, cmd = m.picker.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.Phase == PhaseRunning {
				// The running invocation still reports its outcome; quit once it does.
				m.cancelling = true
				m.cancel()
				return m, nil
			}
			return m.quit()
		}
		switch m.Phase {
		case PhaseEditing:
			return m.updateEditing(msg)
		case PhaseBrowsing:
			return m.updateBrowsing(msg)
		case PhaseDone, PhaseError:
			switch msg.String() {
			case "q", "esc":
				return m.quit()
			case "enter":
				m.Phase = PhaseEditing
				m.Err = nil
				cmd := m.inputs[m.focus].Focus()
				return m, cmd
			}
		}
		return m, nil

	case OutcomeMsg:
		m.Outcome = msg.Outcome
		m.Phase = PhaseDone
		if m.cancelling {
			return m.quit()
		}
		return m, nil

	case spinner.TickMsg:
		if m.Phase == PhaseRunning {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	// Directory listings and cursor blinks belong to whichever child is active.
	if m.Phase == PhaseBrowsing {
		return m.updateBrowsing(msg)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		return m.quit()
	case "tab", "down":
		cmd := m.moveFocus(1)
		return m, cmd
	case "shift+tab", "up":
		cmd := m.moveFocus(-1)
		return m, cmd
	case "ctrl+s":
		m.schedule = !m.schedule
		if !m.schedule && m.focus == fieldAt {
			cmd := m.moveFocus(-1)
			return m, cmd
		}
		return m, nil
	case "ctrl+o":
		if m.focus == fieldAt {
			return m, nil
		}
		return m.startBrowsing()
	case "enter":
		return m.confirm()
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	m.Quitting = true
	m.cancel()
	return m, tea.Quit
}

// moveFocus cycles through the visible fields. The time field is only
// reachable while scheduling is on.
func (m *Model) moveFocus(delta int) tea.Cmd {
	count := int(fieldAt)
	if m.schedule {
		count = int(fieldCount)
	}
	m.inputs[m.focus].Blur()
	m.focus = field((int(m.focus) + delta + count) % count)
	return m.inputs[m.focus].Focus()
}

func (m Model) startBrowsing() (tea.Model, tea.Cmd) {
	m.browsing = m.focus
	m.picker = newPicker()
	m.picker.CurrentDirectory = m.browseStart()
	m.Phase = PhaseBrowsing
	return m, m.picker.Init()
}

func (m Model) browseStart() string {
	current := strings.TrimSpace(m.inputs[m.browsing].Value())
	if current != "" {
		if info, err := os.Stat(current); err == nil && info.IsDir() {
			return current
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func (m Model) updateBrowsing(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		// Dismissed: an empty path leaves the field untouched.
		return m.finishBrowsing("")
	}

	// The picker is fresh per browse, so a non-empty Path is this selection.
	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)
	if m.picker.Path != "" {
		return m.finishBrowsing(m.picker.Path)
	}
	return m, cmd
}

func (m Model) finishBrowsing(path string) (tea.Model, tea.Cmd) {
	var action app.Action = app.BrowseSource{Path: path}
	if m.browsing == fieldTarget {
		action = app.BrowseTarget{Path: path}
	}

	session := m.config.Session
	session.State.Source = strings.TrimSpace(m.inputs[fieldSource].Value())
	session.State.Target = strings.TrimSpace(m.inputs[fieldTarget].Value())
	if _, err := session.Dispatch(m.ctx, action); err != nil {
		m.Phase = PhaseError
		m.Err = err
		return m, nil
	}

	m.inputs[fieldSource].SetValue(session.State.Source)
	m.inputs[fieldTarget].SetValue(session.State.Target)
	m.Phase = PhaseEditing
	cmd := m.inputs[m.focus].Focus()
	return m, cmd
}

func (m Model) confirm() (tea.Model, tea.Cmd) {
	session := m.config.Session
	session.State.Source = strings.TrimSpace(m.inputs[fieldSource].Value())
	session.State.Target = strings.TrimSpace(m.inputs[fieldTarget].Value())

	var at time.Time
	if m.schedule {
		parsed, err := config.ParseAt(m.inputs[fieldAt].Value())
		if err != nil {
			m.Phase = PhaseError
			m.Err = err
			return m, nil
		}
		at = parsed
	}
	if _, err := session.Dispatch(m.ctx, app.ToggleSchedule{On: m.schedule, At: at}); err != nil {
		m.Phase = PhaseError
		m.Err = err
		return m, nil
	}

	m.inputs[m.focus].Blur()
	m.Phase = PhaseRunning
	return m, tea.Batch(m.spinner.Tick, confirmCmd(m.ctx, session))
}

// confirmCmd runs the invocation off the UI goroutine. The session reports
// the outcome through its notifier; the model only renders it.
func confirmCmd(ctx context.Context, session *app.Session) tea.Cmd {
	return func() tea.Msg {
		outcome, _ := session.Dispatch(ctx, app.Confirm{})
		return OutcomeMsg{Outcome: outcome}
	}
}

func (m Model) View() string {
	if m.Quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n\n")

	switch m.Phase {
	case PhaseEditing:
		b.WriteString(m.renderForm())
	case PhaseBrowsing:
		b.WriteString(m.renderBrowser())
	case PhaseRunning:
		b.WriteString(m.renderForm())
		b.WriteString("\n")
		b.WriteString(m.renderRunning())
	case PhaseDone:
		b.WriteString(m.renderOutcome())
	case PhaseError:
		b.WriteString(m.renderError())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderHeader() string {
	title := titleStyle.Render(iconFolder + " RoboBackup")
	subtitle := subtitleStyle.Render("Mirror a folder now, or schedule it for later")
	if m.config.DryRun {
		subtitle += "  " + warningStyle.Render("(dry run)")
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, subtitle)
}

func (m Model) renderForm() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render("Backup"))
	b.WriteString("\n\n")

	b.WriteString(m.renderField(fieldSource, "Source"))
	b.WriteString(m.renderField(fieldTarget, "Target"))

	toggle := iconOff
	if m.schedule {
		toggle = iconOn
	}
	b.WriteString(fmt.Sprintf("\n  %s Schedule for later\n", toggle))
	if m.schedule {
		b.WriteString(m.renderField(fieldAt, iconClock+" At"))
	}
	return b.String()
}

func (m Model) renderField(f field, label string) string {
	style := labelStyle
	if m.focus == f && m.Phase == PhaseEditing {
		style = focusedLabelStyle
	}
	return fmt.Sprintf("  %s %s\n", style.Render(label), m.inputs[f].View())
}

func (m Model) renderBrowser() string {
	var b strings.Builder
	which := "source"
	if m.browsing == fieldTarget {
		which = "target"
	}
	b.WriteString(sectionStyle.Render("Pick the " + which + " folder"))
	b.WriteString("\n\n")
	b.WriteString(pathStyle.Render(shortenPath(m.picker.CurrentDirectory)))
	b.WriteString("\n\n")
	b.WriteString(m.picker.View())
	return b.String()
}

func (m Model) renderRunning() string {
	what := "Running backup..."
	if m.schedule {
		what = "Registering scheduled task..."
	}
	return fmt.Sprintf("  %s %s\n", m.spinner.View(), what)
}

func (m Model) renderOutcome() string {
	o := m.Outcome

	var b strings.Builder
	icon, style := iconSuccess, successStyle
	if !o.Succeeded() {
		icon, style = iconError, errorStyle
	}
	b.WriteString(style.Render(icon + " " + o.Title))
	if o.Message != "" {
		b.WriteString("\n\n")
		b.WriteString(o.Message)
	}
	if o.LogPath != "" {
		b.WriteString("\n")
		b.WriteString(pathStyle.Render("Log: " + shortenPath(o.LogPath)))
	}
	if o.Command != "" && (m.config.Verbose || m.config.DryRun || !o.Succeeded()) {
		b.WriteString("\n\n")
		b.WriteString(commandStyle.Render(iconArrow + " " + o.Command))
	}

	box := highlightBoxStyle
	if !o.Succeeded() {
		box = box.BorderForeground(errorColor)
	}
	return box.Render(b.String())
}

func (m Model) renderError() string {
	icon := errorStyle.Render(iconError)
	msg := errorStyle.Render(fmt.Sprintf("Error: %s", appErrors.UserMessage(m.Err)))

	return highlightBoxStyle.
		BorderForeground(errorColor).
		Render(fmt.Sprintf("%s %s", icon, msg))
}

func (m Model) renderHelp() string {
	var help string
	switch m.Phase {
	case PhaseEditing:
		help = "Tab to move • Ctrl+O browse • Ctrl+S schedule • Enter to start • Esc to quit"
	case PhaseBrowsing:
		help = "↑ ↓ to move • → to open • Enter to choose • Esc to cancel"
	case PhaseRunning:
		help = "Waiting for the elevated process... Please confirm the permission prompt • Ctrl+C to cancel"
		if m.cancelling {
			help = "Cancelling..."
		}
	case PhaseDone:
		help = "Press Enter for another backup • q to quit"
	case PhaseError:
		help = "Press Enter to go back • q to quit"
	}
	return helpStyle.Render(help)
}

// shortenPath replaces the home directory prefix with ~ for display
func shortenPath(path string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	if strings.HasPrefix(path, home) {
		return "~" + path[len(home):]
	}
	return path
}
