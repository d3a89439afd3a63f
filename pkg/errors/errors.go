package errors

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCorpus       = errors.New("empty corpus")
	ErrInvalidInput      = errors.New("invalid input")
	ErrDimensionMismatch = errors.New("index dimension mismatch")
	ErrIndexNotFound     = errors.New("index not found")
	ErrCorruptIndex      = errors.New("corrupt index")
	ErrTimeout           = errors.New("operation timed out")
)

// Exit codes returned by the CLI for each error class.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNoIndex  = 3
	ExitBadIndex = 4
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrEmptyCorpus):
		return ExitUsage
	case errors.Is(err, ErrIndexNotFound):
		return ExitNoIndex
	case errors.Is(err, ErrDimensionMismatch), errors.Is(err, ErrCorruptIndex):
		return ExitBadIndex
	default:
		return ExitFailure
	}

}
