package errors

import (
	"errors"
	"fmt"
)

// Exit codes for fleetgen. CI jobs that regenerate the fleet key off these.
const (
	// ExitOK indicates success.
	ExitOK = 0
	// ExitError is a general/unclassified error, including template bugs.
	ExitError = 1
	// ExitUserError indicates an invalid registry, config file or flags.
	ExitUserError = 2
	// ExitIOError indicates an artifact or config file could not be written.
	ExitIOError = 3
	// ExitDrift indicates `diff --exit-code` found generated output out of date.
	ExitDrift = 5
)

// CodedError is an error that carries an exit code.
type CodedError struct {
	// Code is the process exit code.
	Code int
	// Err is the underlying error.
	Err error
}

func (e *CodedError) Error() string {
	return e.Err.Error()
}

func (e *CodedError) Unwrap() error {
	return e.Err
}

// NewUserError wraps an error with ExitUserError code.
func NewUserError(format string, args ...any) *CodedError {
	return &CodedError{Code: ExitUserError, Err: fmt.Errorf(format, args...)}
}

// NewIOError wraps an error with ExitIOError code.
func NewIOError(format string, args ...any) *CodedError {
	return &CodedError{Code: ExitIOError, Err: fmt.Errorf(format, args...)}
}

// NewDriftError wraps an error with ExitDrift code.
func NewDriftError(format string, args ...any) *CodedError {
	return &CodedError{Code: ExitDrift, Err: fmt.Errorf(format, args...)}
}

// WithCode attaches code to err. A nil err stays nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

// ExitCode extracts the exit code from an error. Defaults to ExitError for
// uncoded errors, and ExitOK for nil.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var cErr *CodedError
	if errors.As(err, &cErr) {
		return cErr.Code
	}
	return ExitError
}
