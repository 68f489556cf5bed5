package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"robobackup/internal/app"
	"robobackup/internal/config"
	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
	"robobackup/internal/presentation"
	"robobackup/internal/tui"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Mirror source into target now (elevated, waits for robocopy)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			w, err := opts.wire(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}

			if cfg.At != nil {
				err := appErrors.New(appErrors.Validation, "run", "--at only applies to the schedule command")
				return reported(w.executor.Fail(cmd.Context(), domain.ModeImmediate, err))
			}

			req := domain.CopyRequest{Source: cfg.Source, Destination: cfg.Target}
			inv, err := w.planner.PlanImmediate(req, time.Now())
			if err != nil {
				return reported(w.executor.Fail(cmd.Context(), domain.ModeImmediate, err))
			}
			return reported(w.executor.Execute(cmd.Context(), inv))
		},
	}
}

func newScheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Register a one-shot scheduled task that mirrors at --at",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			w, err := opts.wire(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}

			var at time.Time
			if cfg.At != nil {
				at = *cfg.At
			}
			req := domain.CopyRequest{Source: cfg.Source, Destination: cfg.Target}
			inv, err := w.planner.PlanDeferred(req, at, time.Now())
			if err != nil {
				return reported(w.executor.Fail(cmd.Context(), domain.ModeDeferred, err))
			}
			return reported(w.executor.Execute(cmd.Context(), inv))
		},
	}
}

func newPrintCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "print",
		Short: "Print the commands that run or schedule would launch",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			w, err := opts.wire(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}

			// Printing only shows command lines, so the folders need not exist here.
			planner := *w.planner
			planner.FS = nil

			req := domain.CopyRequest{Source: cfg.Source, Destination: cfg.Target}
			var inv domain.Invocation
			if cfg.At != nil {
				inv, err = planner.PlanDeferred(req, *cfg.At, time.Now())
			} else {
				inv, err = planner.PlanImmediate(req, time.Now())
			}
			if err != nil {
				return err
			}
			w.printer.PrintInvocation(inv)
			return nil
		},
	}
}

func newTasksCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List the scheduled backups this tool registered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			l, err := openLedger(cfg)
			if err != nil {
				return err
			}
			records, err := l.List()
			if err != nil {
				return err
			}
			if cfg.Verbose {
				fmt.Fprintf(opts.stdout, "Ledger: %s\n\n", l.Path())
			}
			printer := opts.printerFor(cfg)
			printer.PrintSchedules(records)
			return nil
		},
	}
}

func newUnscheduleCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unschedule NAME",
		Short: "Delete a scheduled backup task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			w, err := opts.wire(cmd.Context(), cfg, true)
			if err != nil {
				return err
			}

			inv, err := w.planner.PlanUnregister(args[0])
			if err != nil {
				return reported(w.executor.Fail(cmd.Context(), domain.ModeUnregister, err))
			}
			return reported(w.executor.Execute(cmd.Context(), inv))
		},
	}
}

func newUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive form (default)",
		Args:  cobra.NoArgs,
		RunE:  runUI(opts),
	}
}

func runUI(opts *rootOptions) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := opts.load()
		if err != nil {
			return err
		}
		w, err := opts.wire(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}

		session := &app.Session{
			State:    app.State{Source: cfg.Source, Target: cfg.Target},
			FS:       w.planner.FS,
			Planner:  w.planner,
			Executor: w.executor,
			Now:      time.Now,
		}
		model := tui.NewModel(tui.Config{
			Session: session,
			Context: cmd.Context(),
			Source:  cfg.Source,
			Target:  cfg.Target,
			At:      cfg.At,
			DryRun:  cfg.DryRun,
			Verbose: cfg.Verbose,
		})

		final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		if err != nil {
			return err
		}
		// The alt screen is gone; leave the last result in the scrollback.
		if m, ok := final.(tui.Model); ok && m.Outcome.Title != "" {
			_ = w.printer.Notify(cmd.Context(), m.Outcome)
		}
		return nil
	}
}

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.stdout, "robobackup %s\n", version)
		},
	}
}

func (o *rootOptions) printerFor(cfg config.Config) presentation.Printer {
	return presentation.Printer{Writer: o.stdout, Verbose: cfg.Verbose}
}

func reported(outcome domain.Outcome) error {
	if outcome.Succeeded() {
		return nil
	}
	return errReported
}
