package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"robobackup/internal/domain"
	appErrors "robobackup/internal/errors"
)

// Action is one user gesture on the form. The set is closed.
type Action interface {
	action()
}

type (
	// BrowseSource carries the folder picked for the source. An empty Path
	// means the picker was dismissed.
	BrowseSource struct{ Path string }
	BrowseTarget struct{ Path string }
	// ToggleSchedule switches between running now and registering for At.
	ToggleSchedule struct {
		On bool
		At time.Time
	}
	Confirm struct{}
)

func (BrowseSource) action()   {}
func (BrowseTarget) action()   {}
func (ToggleSchedule) action() {}
func (Confirm) action()        {}

// State is everything the form holds between actions.
type State struct {
	Source   string
	Target   string
	Schedule bool
	At       time.Time
}

func (s State) Request() domain.CopyRequest {
	return domain.CopyRequest{Source: strings.TrimSpace(s.Source), Destination: strings.TrimSpace(s.Target)}
}

// Session applies actions to explicit state. Each action kind has its own
// handler; nothing is shared through package globals.
type Session struct {
	State    State
	FS       FileSystem
	Planner  *Planner
	Executor *Executor
	Now      func() time.Time
}

// Dispatch applies one action. Browse and toggle actions return a zero
// outcome; Confirm returns the outcome that was reported to the user.
func (s *Session) Dispatch(ctx context.Context, a Action) (domain.Outcome, error) {
	switch a := a.(type) {
	case BrowseSource:
		return domain.Outcome{}, s.handleBrowse(a.Path, &s.State.Source)
	case BrowseTarget:
		return domain.Outcome{}, s.handleBrowse(a.Path, &s.State.Target)
	case ToggleSchedule:
		s.State.Schedule = a.On
		if a.On {
			s.State.At = a.At
		}
		return domain.Outcome{}, nil
	case Confirm:
		out := s.handleConfirm(ctx)
		return out, out.Err
	default:
		return domain.Outcome{}, appErrors.Wrap(appErrors.Internal, "dispatch", "", fmt.Errorf("unknown action %T", a))
	}
}

func (s *Session) handleBrowse(path string, field *string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if s.FS != nil {
		info, err := s.FS.Stat(path)
		if err != nil {
			return appErrors.Wrap(appErrors.NotFound, "browse", path, err)
		}
		if !info.IsDir() {
			return appErrors.Wrap(appErrors.Validation, "browse", path, errors.New("not a directory"))
		}
	}
	*field = path
	return nil
}

func (s *Session) handleConfirm(ctx context.Context) domain.Outcome {
	if s.Planner == nil || s.Executor == nil {
		return domain.Outcome{
			Status:  domain.StatusFailure,
			Title:   "Could not start",
			Message: "session is not wired",
			Err:     appErrors.New(appErrors.Internal, "confirm", "session requires planner and executor"),
		}
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	req := s.State.Request()

	mode := domain.ModeImmediate
	var (
		inv domain.Invocation
		err error
	)
	if s.State.Schedule {
		mode = domain.ModeDeferred
		inv, err = s.Planner.PlanDeferred(req, s.State.At, now)
	} else {
		inv, err = s.Planner.PlanImmediate(req, now)
	}
	if err != nil {
		return s.Executor.Fail(ctx, mode, err)
	}
	return s.Executor.Execute(ctx, inv)
}
