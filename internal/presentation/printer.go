package presentation

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"robobackup/internal/domain"
	"robobackup/internal/infra/ledger"
)

type Printer struct {
	Writer  io.Writer
	Verbose bool
}

type palette struct {
	title   lipgloss.Style
	ok      lipgloss.Style
	failed  lipgloss.Style
	label   lipgloss.Style
	command lipgloss.Style
	muted   lipgloss.Style
}

// styles are rendered for the printer's own writer so redirected output
// stays free of escape codes.
func (p Printer) styles() palette {
	r := lipgloss.NewRenderer(p.Writer)
	return palette{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("#4FA3D1")),
		ok:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("#85DCB0")),
		failed:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("#E85D75")),
		label:   r.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		command: r.NewStyle().Foreground(lipgloss.Color("#F3F4F6")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
	}
}

// Notify implements app.Notifier for the console.
func (p Printer) Notify(_ context.Context, o domain.Outcome) error {
	s := p.styles()

	icon, style := "✓", s.ok
	if !o.Succeeded() {
		icon, style = "✗", s.failed
	}
	if _, err := fmt.Fprintln(p.Writer, style.Render(icon+" "+o.Title)); err != nil {
		return err
	}
	if o.Message != "" {
		fmt.Fprintln(p.Writer, "  "+o.Message)
	}
	if o.LogPath != "" {
		fmt.Fprintln(p.Writer, "  "+s.label.Render("Log:")+" "+o.LogPath)
	}
	if o.Command != "" && (p.Verbose || !o.Succeeded() || o.ExitCode < 0) {
		fmt.Fprintln(p.Writer, "  "+s.label.Render("Command:")+" "+s.command.Render(o.Command))
	}
	if p.Verbose && o.Err != nil {
		fmt.Fprintln(p.Writer, "  "+s.muted.Render(o.Err.Error()))
	}
	return nil
}

// PrintInvocation shows what would be launched without launching it.
func (p Printer) PrintInvocation(inv domain.Invocation) {
	s := p.styles()

	fmt.Fprintln(p.Writer, s.title.Render("Mode: "+inv.Mode.String()))
	fmt.Fprintln(p.Writer)

	if inv.Mirror.Executable != "" {
		fmt.Fprintln(p.Writer, s.label.Render("Mirror command:"))
		fmt.Fprintln(p.Writer, s.command.Render(inv.Mirror.CommandLine()))
		fmt.Fprintln(p.Writer)
	}

	if inv.Schedule != nil {
		fmt.Fprintln(p.Writer, s.label.Render("Task:")+" "+inv.Schedule.TaskName)
		fmt.Fprintln(p.Writer, s.label.Render("Runs at:")+" "+inv.Schedule.TriggerDate+" "+inv.Schedule.TriggerTime)
		fmt.Fprintln(p.Writer)
	}

	fmt.Fprintln(p.Writer, s.label.Render("Launch:"))
	fmt.Fprintln(p.Writer, s.command.Render(inv.Launch.String()))
	fmt.Fprintln(p.Writer, s.muted.Render(launchTraits(inv.Launch)))
}

func (p Printer) PrintSchedules(records []ledger.Record) {
	s := p.styles()

	if len(records) == 0 {
		fmt.Fprintln(p.Writer, s.muted.Render("No scheduled backups recorded."))
		return
	}

	fmt.Fprintln(p.Writer, s.title.Render(fmt.Sprintf("Scheduled backups (%d)", len(records))))
	fmt.Fprintln(p.Writer)
	for _, line := range formatScheduleLines(records, p.Verbose) {
		fmt.Fprintln(p.Writer, line)
	}
}

func formatScheduleLines(records []ledger.Record, verbose bool) []string {
	lines := make([]string, 0, len(records))
	for _, r := range records {
		line := fmt.Sprintf("%s  %s %s  %s → %s", r.TaskName, r.TriggerDate, r.TriggerTime, r.Source, r.Destination)
		lines = append(lines, line)
		if verbose {
			lines = append(lines, "    "+r.CommandLine)
		}
	}
	return lines
}

func launchTraits(l domain.Launch) string {
	traits := make([]string, 0, 3)
	if l.Elevate {
		traits = append(traits, "elevated")
	}
	if l.WaitForExit {
		traits = append(traits, "waits for exit")
	}
	if l.Visible {
		traits = append(traits, "visible window")
	} else {
		traits = append(traits, "hidden window")
	}
	return "(" + strings.Join(traits, ", ") + ")"
}
