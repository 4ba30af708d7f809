// Package dispatch implements the tool dispatch engine: the sole mediator
// between the agent's tool calls and the debugger's single-threaded
// command interpreter.
//
// The interpreter corrupts its output and selection state if driven from
// two places at once, so every Execute goes through one mutex-guarded
// lane. Concurrent callers block until the lane is free; they are never
// rejected. A thread-safe interrupt latch, settable from signal handlers,
// stops new work from starting while letting an in-flight command finish.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/internal/debugger"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// Engine owns the single execution lane against the debugger command port.
// One engine exists per port for the lifetime of the process.
type Engine struct {
	port   debugger.CommandPort
	logger *zap.Logger

	// lane serializes every Execute against the port.
	lane sync.Mutex

	// interrupted is the one-shot-per-run cancellation latch.
	interrupted atomic.Bool
}

// NewEngine creates an engine over the given command port.
func NewEngine(port debugger.CommandPort, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		port:   port,
		logger: logger,
	}
}

// Dispatch runs one tool call against the debugger.
//
// The debugger rejecting or failing the command is NOT a dispatch error;
// the rejection is carried in the returned result so the agent can reason
// about it. A non-nil error means the port itself was unusable.
//
// If the interrupt latch is already raised the port is not touched and the
// result reports interrupted. If the latch is raised while the command is
// in flight, the command still completes (once) and the partial output is
// returned with the interrupted marker set.
func (e *Engine) Dispatch(ctx context.Context, call *types.ToolCall) (*types.ToolResult, error) {
	command := call.Command()
	if command == "" {
		// Malformed arguments are shown to the agent, not escalated.
		return &types.ToolResult{
			Error:     "tool call has no 'command' argument",
			Succeeded: false,
		}, nil
	}

	if e.interrupted.Load() {
		e.logger.Debug("refusing tool call: interrupt latch raised",
			zap.String("command", command))
		return &types.ToolResult{
			Succeeded:   false,
			Interrupted: true,
		}, nil
	}

	e.lane.Lock()
	defer e.lane.Unlock()

	// Re-check after waiting for the lane; the latch may have been
	// raised while another call held it.
	if e.interrupted.Load() {
		return &types.ToolResult{
			Succeeded:   false,
			Interrupted: true,
		}, nil
	}

	e.logger.Debug("dispatching debugger command", zap.String("command", command))

	res, err := e.port.Execute(ctx, command)
	if err != nil {
		return nil, cperrors.DispatchFailed(command, err)
	}

	result := &types.ToolResult{
		Output:      res.Output,
		Error:       res.Error,
		Succeeded:   res.Succeeded,
		Interrupted: e.interrupted.Load(),
	}

	e.logger.Debug("debugger command finished",
		zap.Bool("succeeded", result.Succeeded),
		zap.Bool("interrupted", result.Interrupted),
		zap.Int("outputBytes", len(result.Output)))

	return result, nil
}

// RequestInterrupt raises the interrupt latch. Idempotent and safe from
// any goroutine, including signal handlers. Once raised, no new tool call
// or model round trip starts until the latch is reset for the next run.
func (e *Engine) RequestInterrupt() {
	if e.interrupted.CompareAndSwap(false, true) {
		e.logger.Info("interrupt requested")
	}
}

// Interrupted reports whether the latch is raised.
func (e *Engine) Interrupted() bool {
	return e.interrupted.Load()
}

// ResetInterrupt re-arms the latch. Called only at the start of a run.
func (e *Engine) ResetInterrupt() {
	e.interrupted.Store(false)
}

// InterruptPort forwards a pause request to the debugger, best effort.
// Separate from the latch: the latch stops new work, this pokes the
// debugger about work already in flight.
func (e *Engine) InterruptPort() {
	if err := e.port.Interrupt(); err != nil {
		e.logger.Debug("port interrupt failed", zap.Error(err))
	}
}
