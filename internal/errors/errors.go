package errors

import (
	stderrors "errors"
	"fmt"
)

type Kind string

const (
	Validation      Kind = "validation"
	ElevationDenied Kind = "elevation_denied"
	InvalidHandle   Kind = "invalid_handle"
	StartFailed     Kind = "start_failed"
	Registration    Kind = "registration"
	MirrorFailed    Kind = "mirror_failed"
	InvalidConfig   Kind = "invalid_config"
	NotFound        Kind = "not_found"
	IOFailure       Kind = "io_failure"
	Internal        Kind = "internal"
)

type AppError struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *AppError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &AppError{
		Kind: kind,
		Op:   op,
		Path: path,
		Err:  err,
	}
}

// New builds an AppError around a plain message.
func New(kind Kind, op, msg string) error {
	return &AppError{Kind: kind, Op: op, Err: stderrors.New(msg)}
}

// KindOf returns the kind of the outermost AppError in the chain, or
// Internal when there is none.
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func UserMessage(err error) string {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return err.Error()
	}
	switch appErr.Kind {
	case Validation:
		return fmt.Sprintf("Invalid input: %v", appErr.Err)
	case ElevationDenied:
		return "Administrator permission was declined; nothing was started."
	case InvalidHandle:
		return "The process started but its handle was not valid; completion could not be confirmed."
	case StartFailed:
		return fmt.Sprintf("Could not start the backup: %v", appErr.Err)
	case Registration:
		return fmt.Sprintf("Could not register the scheduled task: %v", appErr.Err)
	case MirrorFailed:
		return fmt.Sprintf("The backup finished with errors: %v", appErr.Err)
	case InvalidConfig:
		return fmt.Sprintf("Invalid configuration: %v", appErr.Err)
	case NotFound:
		return fmt.Sprintf("Path not found: %s", appErr.Path)
	case IOFailure:
		return fmt.Sprintf("I/O error: %s", appErr.Path)
	default:
		return fmt.Sprintf("Unexpected error: %v", appErr.Err)
	}
}
