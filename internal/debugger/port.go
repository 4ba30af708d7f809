// Package debugger implements the debugger command port: the capability
// wrapper through which the copilot runs native LLDB commands.
//
// The real port spawns lldb-dap (formerly lldb-vscode) and speaks the Debug
// Adapter Protocol over its stdio. Commands are executed through the
// adapter's repl evaluation context, so the full LLDB CLI surface is
// available ("bt", "frame variable", "memory read", scripting, ...).
//
// The LLDB command interpreter is non-reentrant: its output and selection
// state corrupt under concurrent use. The port itself does not serialize
// callers; that is the dispatch engine's job. The port guarantees only
// that one Execute call maps to one debugger command round trip.
package debugger

import (
	"context"

	"github.com/0xeb/lldb-copilot/pkg/types"
)

// CommandResult is the raw outcome of one debugger command.
type CommandResult struct {
	// Output is the text the debugger printed.
	Output string

	// Error is the debugger's error text when the command was rejected.
	Error string

	// Succeeded reports whether the debugger accepted the command.
	Succeeded bool
}

// CommandPort runs native debugger commands against a live session.
//
// Execute returns a non-nil error only for transport-level failures (the
// port itself being unusable). A command the debugger rejected comes back
// with Succeeded=false and the rejection text in Error, so the caller can
// reason about it.
type CommandPort interface {
	Execute(ctx context.Context, command string) (CommandResult, error)

	// Interrupt asks the debugger to pause whatever it is doing.
	// Best effort; an in-flight command may still run to completion.
	Interrupt() error

	// TargetIdentity returns the stable key for the loaded target, or
	// types.IdentityNoTarget when nothing is loaded.
	TargetIdentity() types.TargetIdentity

	Close() error
}
