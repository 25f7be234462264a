package exec

import (
	"errors"
	"fmt"
	"strings"
)

// ExecError represents a failed command execution.
type ExecError struct {
	// Command is the full command line, binary first.
	Command []string

	// ExitCode is the process exit code, or -1 if it never ran.
	ExitCode int

	Stdout string
	Stderr string

	// Err is the underlying error from os/exec.
	Err error
}

// Error implements the error interface.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("command %v failed with exit code %d", e.Command, e.ExitCode)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// ExitCodeOf returns the exit code carried by err, or -1 when err is not an
// *ExecError.
func ExitCodeOf(err error) int {
	var execErr *ExecError
	if errors.As(err, &execErr) {
		return execErr.ExitCode
	}
	return -1
}
