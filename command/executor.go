package command

import (
	"context"
	"os/exec"
)

// Executor creates exec.Cmd instances. Tests swap in an implementation that
// points commands at mock binaries or canned scripts; production code never
// touches os/exec directly.
type Executor interface {
	// Command creates an exec.Cmd for the given binary and arguments.
	Command(name string, args ...string) *exec.Cmd

	// CommandContext creates an exec.Cmd bound to ctx, so cancellation
	// kills the process.
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// RealExecutor is the production Executor backed by os/exec.
type RealExecutor struct{}

func (e *RealExecutor) Command(name string, args ...string) *exec.Cmd {
	return exec.Command(name, args...)
}

func (e *RealExecutor) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}
