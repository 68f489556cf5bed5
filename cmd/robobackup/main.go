package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	appErrors "robobackup/internal/errors"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd(os.Stdout, os.Stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		exitWithError(err)
	}
}

func exitWithError(err error) {
	// Outcomes were already shown by the notifier.
	if !errors.Is(err, errReported) {
		fmt.Fprintln(os.Stderr, appErrors.UserMessage(err))
	}
	os.Exit(1)
}
