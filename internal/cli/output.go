package cli

import (
	"errors"
	"fmt"
)

// Exit codes for bdi subcommands, modeled on nysm's internal/cli/output.go.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // graph execution halted in error, provenance verification failed, etc.
	ExitCommandError = 2 // bad flags, missing file, malformed script
)

// ExitError carries a specific process exit code alongside a cobra error.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// WrapExitError wraps err with a process exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the intended process exit code from err, defaulting
// to ExitFailure for errors that were not raised through ExitError.
func GetExitCode(err error) int {
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitFailure
}
