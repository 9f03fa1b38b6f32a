package wine

import (
	"context"
	"errors"
	"sync"

	apperrors "cellar/internal/infrastructure/errors"
)

// fakeRunner records commands and answers from an optional hook
type fakeRunner struct {
	mu       sync.Mutex
	commands []Command
	hook     func(cmd Command) (Output, error)
	failOn   map[string]bool // keyed by the first argument
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{failOn: make(map[string]bool)}
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) (Output, error) {
	f.mu.Lock()
	f.commands = append(f.commands, cmd)
	hook := f.hook
	fail := len(cmd.Args) > 0 && f.failOn[cmd.Args[0]]
	f.mu.Unlock()

	if hook != nil {
		if out, err := hook(cmd); err != nil {
			return out, err
		}
	}
	if fail {
		return Output{ExitCode: 1, Stderr: "simulated failure"},
			apperrors.HandleInvocationError(cmd.Op, cmd.String(), 1, "simulated failure", errors.New("exit status 1"))
	}
	return Output{}, nil
}

func (f *fakeRunner) Commands() []Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Command, len(f.commands))
	copy(out, f.commands)
	return out
}
