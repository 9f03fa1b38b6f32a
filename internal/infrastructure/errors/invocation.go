package errors

import (
	"errors"
	"fmt"
	"strings"
)

// maxStderrContext bounds how much command output is copied into error context
const maxStderrContext = 512

// HandleInvocationError creates an external invocation failure for a command that
// could not be launched or exited unsuccessfully. exitCode is -1 when the process
// never ran.
func HandleInvocationError(op string, command string, exitCode int, stderr string, err error) error {
	if err == nil {
		err = errors.New("external command failed")
	}
	ctx := map[string]string{
		"command":   command,
		"exit_code": fmt.Sprintf("%d", exitCode),
	}
	if tail := tailOf(stderr, maxStderrContext); tail != "" {
		ctx["stderr"] = tail
	}
	return NewWithContext(op, err, ErrCodeExternalInvocation, ctx)
}

// HandleBusyError creates an error for a request rejected because the same work is in flight
func HandleBusyError(op string, resource string, identifier string) error {
	return NewWithContext(op, errors.New("change already in progress"), ErrCodeBusy, map[string]string{
		"resource":   resource,
		"identifier": identifier,
	})
}

// HandleUnsupportedError creates an error for an operation the host cannot perform
func HandleUnsupportedError(op string, details string) error {
	return NewWithContext(op, errors.New("unsupported"), ErrCodeUnsupported, map[string]string{
		"details": details,
	})
}

func tailOf(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
