// Package errors defines the sentinel errors shared by the indexer, the
// shell, and the CLI, plus an AppError wrapper that carries the offending
// path alongside a sentinel.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrIO              = errors.New("i/o failure")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConfig          = errors.New("configuration error")
	ErrNotIndexed      = errors.New("path not indexed")
	ErrAlreadyIndexed  = errors.New("path already indexed")
	ErrInternal        = errors.New("internal error")
)

type AppError struct {
	Err     error
	Message string
	Path    string
	Cause   error
}

func (e *AppError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	if e.Path != "" {
		msg += fmt.Sprintf(" (%s)", e.Path)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is and
// errors.As.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

func New(sentinel error, message string) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: message,
	}
}

func Newf(sentinel error, format string, args ...any) *AppError {
	return &AppError{
		Err:     sentinel,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap attaches a sentinel and a path to cause. It returns nil when cause is
// nil.
func Wrap(sentinel error, path string, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return &AppError{
		Err:     sentinel,
		Message: message,
		Path:    path,
		Cause:   cause,
	}
}

// Kind returns a short, stable label for err suitable for metrics and log
// fields.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrIO):
		return "io"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrConfig):
		return "config"
	case errors.Is(err, ErrNotIndexed):
		return "not_indexed"
	case errors.Is(err, ErrAlreadyIndexed):
		return "already_indexed"
	default:
		return "internal"
	}
}

func ExitCode(err error) int {
	switch Kind(err) {
	case "ok":
		return 0
	case "config":
		return 2
	case "io", "invalid_argument":
		return 3
	default:
		return 1
	}
}
