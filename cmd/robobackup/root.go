package main

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"robobackup/internal/config"
)

// errReported marks a failure whose outcome was already delivered to the
// user; main only has to set the exit status.
var errReported = errors.New("outcome already reported")

type rootOptions struct {
	stdout     io.Writer
	stderr     io.Writer
	configFile string
	v          *viper.Viper
}

func NewRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{stdout: stdout, stderr: stderr, v: config.New()}

	root := &cobra.Command{
		Use:   "robobackup",
		Short: "Mirror a folder with robocopy, now or at a scheduled time",
		Long: `robobackup mirrors a source folder into a target folder with robocopy.
It either runs the mirror right away (elevated) or registers a one-shot
Windows scheduled task that runs it at a given time. Without a subcommand
it opens the interactive form.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runUI(opts),
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.CompletionOptions.HiddenDefaultCmd = true

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (yaml, json or toml)")
	config.RegisterFlags(root.PersistentFlags())
	// Bound flags are only read at Get time, so binding before parsing is fine.
	_ = config.BindFlags(opts.v, root.PersistentFlags())

	root.AddCommand(
		newRunCmd(opts),
		newScheduleCmd(opts),
		newPrintCmd(opts),
		newTasksCmd(opts),
		newUnscheduleCmd(opts),
		newUICmd(opts),
		newVersionCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (config.Config, error) {
	if err := config.ReadFile(o.v, o.configFile); err != nil {
		return config.Config{}, err
	}
	return config.Load(o.v)
}
