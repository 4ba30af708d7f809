package dispatch_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/0xeb/lldb-copilot/internal/debugger"
	"github.com/0xeb/lldb-copilot/internal/dispatch"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

// stubPort is a CommandPort test double. Execute is scripted per command
// and records overlap so tests can prove the single-lane invariant.
type stubPort struct {
	mu       sync.Mutex
	inFlight int
	overlap  bool
	executed []string

	execute func(command string) (debugger.CommandResult, error)
}

func (p *stubPort) Execute(ctx context.Context, command string) (debugger.CommandResult, error) {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > 1 {
		p.overlap = true
	}
	p.executed = append(p.executed, command)
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.inFlight--
		p.mu.Unlock()
	}()

	if p.execute != nil {
		return p.execute(command)
	}
	return debugger.CommandResult{Output: "ok: " + command, Succeeded: true}, nil
}

func (p *stubPort) Interrupt() error { return nil }

func (p *stubPort) TargetIdentity() types.TargetIdentity { return "stub-target" }

func (p *stubPort) Close() error { return nil }

func (p *stubPort) commands() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.executed))
	copy(out, p.executed)
	return out
}

func call(command string) *types.ToolCall {
	return &types.ToolCall{
		ID:        "call-1",
		Name:      types.ToolLLDBCommand,
		Arguments: map[string]any{"command": command},
	}
}

// TestDispatch_Success verifies output passthrough for an accepted command.
func TestDispatch_Success(t *testing.T) {
	port := &stubPort{}
	engine := dispatch.NewEngine(port, nil)

	result, err := engine.Dispatch(context.Background(), call("bt"))
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if !result.Succeeded {
		t.Error("expected success")
	}
	if result.Output != "ok: bt" {
		t.Errorf("unexpected output %q", result.Output)
	}
	if result.Interrupted {
		t.Error("result should not be marked interrupted")
	}
}

// TestDispatch_CommandFailureIsData verifies a debugger-rejected command
// comes back in the result with a nil error.
func TestDispatch_CommandFailureIsData(t *testing.T) {
	port := &stubPort{
		execute: func(command string) (debugger.CommandResult, error) {
			return debugger.CommandResult{
				Error:     "error: invalid command 'btt'",
				Succeeded: false,
			}, nil
		},
	}
	engine := dispatch.NewEngine(port, nil)

	result, err := engine.Dispatch(context.Background(), call("btt"))
	if err != nil {
		t.Fatalf("command failure must not be a dispatch error, got %v", err)
	}
	if result.Succeeded {
		t.Error("expected failure carried in result")
	}
	if result.Error == "" {
		t.Error("expected debugger error text in result")
	}
}

// TestDispatch_PortFailure verifies a transport-level failure surfaces as
// a structured dispatch error.
func TestDispatch_PortFailure(t *testing.T) {
	port := &stubPort{
		execute: func(command string) (debugger.CommandResult, error) {
			return debugger.CommandResult{}, errors.New("pipe closed")
		},
	}
	engine := dispatch.NewEngine(port, nil)

	result, err := engine.Dispatch(context.Background(), call("bt"))
	if err == nil {
		t.Fatal("expected dispatch error for port failure")
	}
	if result != nil {
		t.Error("expected nil result with dispatch error")
	}
	if !cperrors.HasCode(err, cperrors.CodeDispatchFailed) {
		t.Errorf("expected CodeDispatchFailed, got %v", err)
	}
}

// TestDispatch_EmptyCommand verifies malformed arguments are reported to
// the agent as a failed result, not escalated as an error.
func TestDispatch_EmptyCommand(t *testing.T) {
	port := &stubPort{}
	engine := dispatch.NewEngine(port, nil)

	result, err := engine.Dispatch(context.Background(), &types.ToolCall{
		Name:      types.ToolLLDBCommand,
		Arguments: map[string]any{},
	})
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if result.Succeeded {
		t.Error("expected failure for missing command argument")
	}
	if len(port.commands()) != 0 {
		t.Error("port must not be touched for a malformed call")
	}
}

// TestDispatch_SingleLane verifies concurrent dispatches never overlap on
// the port.
func TestDispatch_SingleLane(t *testing.T) {
	port := &stubPort{}
	engine := dispatch.NewEngine(port, nil)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := engine.Dispatch(context.Background(), call("thread list")); err != nil {
				t.Errorf("dispatch failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if port.overlap {
		t.Error("two Executes overlapped on the port")
	}
	if got := len(port.commands()); got != 16 {
		t.Errorf("expected 16 executions, got %d", got)
	}
}

// TestDispatch_InterruptLatch verifies a raised latch blocks new work
// without touching the port, and that the latch is idempotent.
func TestDispatch_InterruptLatch(t *testing.T) {
	port := &stubPort{}
	engine := dispatch.NewEngine(port, nil)

	engine.RequestInterrupt()
	engine.RequestInterrupt() // idempotent

	if !engine.Interrupted() {
		t.Fatal("latch should be raised")
	}

	result, err := engine.Dispatch(context.Background(), call("bt"))
	if err != nil {
		t.Fatalf("interrupted dispatch must not error: %v", err)
	}
	if !result.Interrupted {
		t.Error("expected interrupted result")
	}
	if result.Succeeded {
		t.Error("interrupted result must not report success")
	}
	if len(port.commands()) != 0 {
		t.Error("port must not be touched once the latch is raised")
	}
}

// TestDispatch_InterruptDuringExecute verifies an in-flight command
// finishes and its partial output is returned with the interrupted marker.
func TestDispatch_InterruptDuringExecute(t *testing.T) {
	var engine *dispatch.Engine
	port := &stubPort{}
	port.execute = func(command string) (debugger.CommandResult, error) {
		// Raise the latch while the command is in flight.
		engine.RequestInterrupt()
		return debugger.CommandResult{Output: "partial", Succeeded: true}, nil
	}
	engine = dispatch.NewEngine(port, nil)

	result, err := engine.Dispatch(context.Background(), call("bt"))
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if !result.Interrupted {
		t.Error("expected interrupted marker on in-flight completion")
	}
	if result.Output != "partial" {
		t.Errorf("expected partial output preserved, got %q", result.Output)
	}
}

// TestResetInterrupt verifies the latch re-arms for the next run.
func TestResetInterrupt(t *testing.T) {
	port := &stubPort{}
	engine := dispatch.NewEngine(port, nil)

	engine.RequestInterrupt()
	engine.ResetInterrupt()

	result, err := engine.Dispatch(context.Background(), call("bt"))
	if err != nil {
		t.Fatalf("unexpected dispatch error: %v", err)
	}
	if result.Interrupted {
		t.Error("latch should have been reset")
	}
	if !result.Succeeded {
		t.Error("expected success after reset")
	}
}
