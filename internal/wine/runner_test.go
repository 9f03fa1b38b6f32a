//go:build darwin || linux

package wine

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	apperrors "cellar/internal/infrastructure/errors"
	"cellar/internal/infrastructure/logging"
)

func TestExecRunner_Run(t *testing.T) {
	runner := NewExecRunner(2, logging.NewDefaultLogger())

	out, err := runner.Run(context.Background(), Command{
		Op:   "Echo",
		Path: "sh",
		Args: []string{"-c", `printf "$CELLAR_TEST_VALUE"`},
		Env:  []string{"CELLAR_TEST_VALUE=hello"},
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out.Stdout != "hello" {
		t.Errorf("Stdout = %q, want hello", out.Stdout)
	}
	if out.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", out.ExitCode)
	}
}

func TestExecRunner_NonZeroExit(t *testing.T) {
	runner := NewExecRunner(1, nil)

	out, err := runner.Run(context.Background(), Command{
		Op:   "Fail",
		Path: "sh",
		Args: []string{"-c", "echo broken >&2; exit 3"},
	})
	if !apperrors.IsExternalInvocation(err) {
		t.Fatalf("Expected external invocation error, got %v", err)
	}
	if out.ExitCode != 3 {
		t.Errorf("ExitCode = %d, want 3", out.ExitCode)
	}

	var appErr *apperrors.AppError
	if !asAppError(err, &appErr) {
		t.Fatal("Expected *AppError")
	}
	ctx := appErr.GetContext()
	if ctx["exit_code"] != "3" {
		t.Errorf("exit_code context = %q", ctx["exit_code"])
	}
	if ctx["stderr"] != "broken" {
		t.Errorf("stderr context = %q", ctx["stderr"])
	}
	if !strings.HasPrefix(ctx["command"], "sh -c") {
		t.Errorf("command context = %q", ctx["command"])
	}
}

func TestExecRunner_MissingBinary(t *testing.T) {
	runner := NewExecRunner(1, nil)

	out, err := runner.Run(context.Background(), Command{Op: "Missing", Path: "/nonexistent/wine64"})
	if !apperrors.IsExternalInvocation(err) {
		t.Fatalf("Expected external invocation error, got %v", err)
	}
	if out.ExitCode != -1 {
		t.Errorf("ExitCode = %d, want -1", out.ExitCode)
	}
}

func TestExecRunner_SlotsExhausted(t *testing.T) {
	runner := NewExecRunner(1, nil)
	if err := runner.sem.Acquire(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	defer runner.sem.Release(1)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := runner.Run(ctx, Command{Op: "Blocked", Path: "true"})
	if !apperrors.IsExternalInvocation(err) {
		t.Errorf("Expected external invocation error while waiting for a slot, got %v", err)
	}
}

func TestCommand_String(t *testing.T) {
	if got := (Command{Path: "wine64"}).String(); got != "wine64" {
		t.Errorf("String() = %q", got)
	}
	if got := (Command{Path: "wine64", Args: []string{"winecfg", "-v", "win7"}}).String(); got != "wine64 winecfg -v win7" {
		t.Errorf("String() = %q", got)
	}
}

func asAppError(err error, target **apperrors.AppError) bool {
	return errors.As(err, target)
}
