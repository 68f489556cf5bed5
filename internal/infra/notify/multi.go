package notify

import (
	"context"

	"golang.org/x/sync/errgroup"

	"robobackup/internal/domain"
	"robobackup/internal/logging"
)

// Target is anything that can be told about an outcome. It matches
// app.Notifier.
type Target interface {
	Notify(ctx context.Context, outcome domain.Outcome) error
}

// Multi fans one outcome out to a primary target and any number of
// secondary ones. Only the primary's error is returned; secondary failures
// are logged.
type Multi struct {
	Primary   Target
	Secondary []Target
	Logger    logging.Logger
}

func (m *Multi) Notify(ctx context.Context, outcome domain.Outcome) error {
	var g errgroup.Group

	for _, t := range m.Secondary {
		g.Go(func() error {
			if err := t.Notify(ctx, outcome); err != nil {
				m.Logger.Warnf("notification failed: %v", err)
			}
			return nil
		})
	}

	var primaryErr error
	if m.Primary != nil {
		primaryErr = m.Primary.Notify(ctx, outcome)
	}

	_ = g.Wait()
	return primaryErr
}
