package main

import (
	"context"
	"io"
	"os"

	"robobackup/internal/app"
	"robobackup/internal/config"
	"robobackup/internal/infra/archive"
	osfs "robobackup/internal/infra/fs"
	"robobackup/internal/infra/ledger"
	"robobackup/internal/infra/notify"
	"robobackup/internal/infra/process"
	"robobackup/internal/logging"
	"robobackup/internal/presentation"
)

type wiring struct {
	cfg      config.Config
	logger   logging.Logger
	printer  presentation.Printer
	planner  *app.Planner
	executor *app.Executor
	ledger   *ledger.Ledger
}

// wire assembles the application. With console false the printer is left
// out of the notifier and launched programs do not write to stdout, which
// keeps the terminal free for the TUI.
func (o *rootOptions) wire(ctx context.Context, cfg config.Config, console bool) (*wiring, error) {
	logger := logging.New(o.stderr, cfg.Verbose)
	printer := presentation.Printer{Writer: o.stdout, Verbose: cfg.Verbose}

	builder := app.CommandBuilder{Executable: cfg.MirrorExecutable, LogPrefix: cfg.LogPrefix}
	planner := &app.Planner{
		FS:      osfs.OSFS{},
		Builder: builder,
		Registrar: app.ScheduleRegistrar{
			Builder:       builder,
			TaskPrefix:    cfg.TaskPrefix,
			LegacyQuoting: cfg.LegacyQuoting,
		},
		Logger: logger,
	}

	notifier := &notify.Multi{Logger: logger}
	if console {
		notifier.Primary = printer
	}
	if cfg.WebhookURL != "" {
		notifier.Secondary = append(notifier.Secondary, notify.NewWebhook(cfg.WebhookURL, logger))
	}

	runner := process.NewRunner(logger)
	runner.Stdout = o.stdout
	runner.Stderr = o.stderr
	if !console {
		runner.Stdout = io.Discard
		runner.Stderr = io.Discard
	}

	archiver, err := newArchiver(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	executor := &app.Executor{
		Runner:   runner,
		Notifier: notifier,
		Archiver: archiver,
		TempDir:  os.TempDir(),
		DryRun:   cfg.DryRun,
		Logger:   logger,
	}

	w := &wiring{cfg: cfg, logger: logger, printer: printer, planner: planner, executor: executor}
	if l, err := openLedger(cfg); err != nil {
		logger.Warnf("Schedule ledger unavailable: %v", err)
	} else {
		logger.Verbosef("Schedule ledger: %s", l.Path())
		w.ledger = l
		executor.Ledger = l
	}
	return w, nil
}

func openLedger(cfg config.Config) (*ledger.Ledger, error) {
	path := cfg.LedgerPath
	if path == "" {
		var err error
		if path, err = ledger.DefaultPath(); err != nil {
			return nil, err
		}
	}
	return ledger.Open(path), nil
}

func newArchiver(ctx context.Context, cfg config.Config, logger logging.Logger) (*archive.Archiver, error) {
	format, err := archive.ParseFormat(cfg.Archive.Format)
	if err != nil {
		return nil, err
	}
	a := &archive.Archiver{
		Format: format,
		Dir:    cfg.Archive.Dir,
		Prefix: cfg.Archive.S3.Prefix,
		Logger: logger,
	}
	if cfg.Archive.S3.Bucket != "" {
		uploader, err := archive.NewS3Uploader(ctx, archive.S3Config{
			Bucket:    cfg.Archive.S3.Bucket,
			Endpoint:  cfg.Archive.S3.Endpoint,
			Region:    cfg.Archive.S3.Region,
			AccessKey: cfg.Archive.S3.AccessKey,
			SecretKey: cfg.Archive.S3.SecretKey,
			PathStyle: cfg.Archive.S3.PathStyle,
		})
		if err != nil {
			return nil, err
		}
		a.Uploader = uploader
	}
	return a, nil
}
