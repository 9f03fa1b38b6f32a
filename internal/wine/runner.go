package wine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"

	"golang.org/x/sync/semaphore"
)

// DefaultMaxConcurrentCommands bounds external processes when no limit is configured
const DefaultMaxConcurrentCommands = 4

// Command is one external process invocation
type Command struct {
	Op   string   // operation name used in errors and logs
	Path string   // executable, absolute or resolved through PATH
	Args []string // arguments, excluding the executable
	Env  []string // KEY=VALUE pairs appended to the current environment
	Dir  string   // working directory, empty for the current one
}

// String renders the command line for logs and error context
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Path
	}
	return c.Path + " " + strings.Join(c.Args, " ")
}

// Output is what a finished command produced
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Runner executes commands. Implementations return an ExternalInvocation
// AppError when the process cannot start or exits non-zero.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Output, error)
}

// ExecRunner runs commands with os/exec, at most maxConcurrent at a time
type ExecRunner struct {
	sem    *semaphore.Weighted
	logger logging.Logger
}

// NewExecRunner creates a runner; maxConcurrent <= 0 uses DefaultMaxConcurrentCommands
func NewExecRunner(maxConcurrent int64, logger logging.Logger) *ExecRunner {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentCommands
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}
	return &ExecRunner{
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
	}
}

// Run waits for a slot, then runs cmd to completion
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return Output{ExitCode: -1}, apperrors.HandleInvocationError(cmd.Op, cmd.String(), -1, "", err)
	}
	defer r.sem.Release(1)

	start := time.Now()
	r.logger.Debug("Running external command", "operation", cmd.Op, "command", cmd.String())

	c := exec.CommandContext(ctx, cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append(os.Environ(), cmd.Env...)

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := Output{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCodeOf(c, err),
	}

	if err != nil {
		return out, apperrors.HandleInvocationError(cmd.Op, cmd.String(), out.ExitCode, out.Stderr, err)
	}

	logging.LogOperation(r.logger, cmd.Op, time.Since(start), map[string]interface{}{
		"command": cmd.String(),
	})
	return out, nil
}

// exitCodeOf returns -1 when the process never started
func exitCodeOf(c *exec.Cmd, err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if c.ProcessState != nil {
		return c.ProcessState.ExitCode()
	}
	return -1
}
