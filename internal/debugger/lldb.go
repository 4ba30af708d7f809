package debugger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/pkg/types"
)

// TargetSpec describes what the port should debug. Exactly one of Program
// (launch), PID (attach), or CoreFile (post-mortem) drives the session;
// Program is also used for symbol resolution when attaching.
type TargetSpec struct {
	Program     string
	Args        []string
	Cwd         string
	PID         int
	CoreFile    string
	StopOnEntry bool
}

// LLDBPort drives a spawned lldb-dap process and implements CommandPort.
type LLDBPort struct {
	client   *client
	cmd      *exec.Cmd
	identity types.TargetIdentity
	logger   *zap.Logger
}

var _ CommandPort = (*LLDBPort)(nil)

// NewLLDBPort spawns lldb-dap, performs the DAP handshake, and launches or
// attaches per the target spec.
func NewLLDBPort(ctx context.Context, dapPath string, spec TargetSpec, logger *zap.Logger) (*LLDBPort, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dapPath == "" {
		dapPath = "lldb-dap"
	}

	// Auto REPL mode lets lldb-dap accept both expressions and CLI
	// commands; commands are explicitly selected with a backtick prefix.
	//nolint:gosec // G204: spawning the debug adapter is the point
	cmd := exec.Command(dapPath, "--repl-mode=auto")
	cmd.Env = os.Environ()
	setProcAttr(cmd)

	if spec.Cwd != "" {
		cmd.Dir = spec.Cwd
	}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = stdin.Close()
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		_ = stdin.Close()
		_ = stdout.Close()
		return nil, fmt.Errorf("failed to start lldb-dap: %w", err)
	}

	c := newClient(newStdioTransport(stdin, stdout), logger)
	p := &LLDBPort{
		client:   c,
		cmd:      cmd,
		identity: types.IdentityNoTarget,
		logger:   logger,
	}

	if err := p.setup(ctx, spec); err != nil {
		p.teardown()
		return nil, err
	}

	return p, nil
}

func (p *LLDBPort) setup(ctx context.Context, spec TargetSpec) error {
	if err := p.client.initialize(ctx); err != nil {
		return fmt.Errorf("adapter initialization failed: %w", err)
	}

	switch {
	case spec.PID > 0 || spec.CoreFile != "":
		if err := p.client.attach(ctx, buildAttachArgs(spec)); err != nil {
			return err
		}
	case spec.Program != "":
		if err := p.client.launch(ctx, buildLaunchArgs(spec)); err != nil {
			return err
		}
	default:
		return fmt.Errorf("target spec names neither a program, a pid, nor a core file")
	}

	if err := p.client.waitInitialized(10 * time.Second); err != nil {
		return err
	}
	if err := p.client.configurationDone(ctx); err != nil {
		return err
	}

	p.identity = p.resolveIdentity(ctx, spec)
	p.logger.Debug("debug target ready", zap.String("identity", string(p.identity)))

	return nil
}

// buildLaunchArgs builds lldb-dap launch arguments.
func buildLaunchArgs(spec TargetSpec) map[string]interface{} {
	args := map[string]interface{}{
		"program": spec.Program,
	}
	if len(spec.Args) > 0 {
		args["args"] = spec.Args
	}
	if spec.Cwd != "" {
		args["cwd"] = spec.Cwd
	}
	if spec.StopOnEntry {
		args["stopOnEntry"] = true
	}

	return args
}

// buildAttachArgs builds lldb-dap attach arguments.
func buildAttachArgs(spec TargetSpec) map[string]interface{} {
	args := map[string]interface{}{}
	if spec.PID > 0 {
		args["pid"] = spec.PID
	}
	if spec.CoreFile != "" {
		args["coreFile"] = spec.CoreFile
	}
	if spec.Program != "" {
		args["program"] = spec.Program
	}
	return args
}

// targetLinePattern matches lldb "target list" output, e.g.
// "* target #0: /path/to/a.out ( arch=x86_64-unknown-linux-gnu, ... )"
var targetLinePattern = regexp.MustCompile(`target #\d+:\s+(\S+)\s+\(\s*arch=([^,\s)]+)`)

// resolveIdentity derives the stable target identity from the debugger's
// own view of the target, falling back to the requested program path.
func (p *LLDBPort) resolveIdentity(ctx context.Context, spec TargetSpec) types.TargetIdentity {
	out, err := p.client.evaluate(ctx, "`target list", 0, "repl")
	if err == nil {
		if m := targetLinePattern.FindStringSubmatch(out); m != nil {
			return types.IdentityFor(m[1], m[2])
		}
	}
	if spec.Program != "" {
		return types.IdentityFor(spec.Program, "")
	}
	return types.IdentityNoTarget
}

// Execute runs one native LLDB command through the adapter's repl context.
// A rejected command is reported in the result, not as an error; only
// transport-level failure returns a non-nil error.
func (p *LLDBPort) Execute(ctx context.Context, command string) (CommandResult, error) {
	out, err := p.client.evaluate(ctx, "`"+command, 0, "repl")
	if err != nil {
		var rejected *RejectedError
		if errors.As(err, &rejected) {
			return CommandResult{
				Error:     rejected.Message,
				Succeeded: false,
			}, nil
		}
		return CommandResult{}, err
	}

	return CommandResult{
		Output:    out,
		Succeeded: true,
	}, nil
}

// Interrupt pauses the debuggee, best effort. An in-flight command may
// still run to completion; lldb offers no general mid-command abort.
func (p *LLDBPort) Interrupt() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	threads, err := p.client.threads(ctx)
	if err != nil {
		return err
	}
	if len(threads) == 0 {
		return nil
	}
	return p.client.pause(ctx, threads[0].Id)
}

// TargetIdentity returns the stable key for the loaded target.
func (p *LLDBPort) TargetIdentity() types.TargetIdentity {
	return p.identity
}

// Close disconnects from the adapter and reaps the lldb-dap process.
func (p *LLDBPort) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.client.disconnect(ctx, true); err != nil {
		p.logger.Debug("disconnect failed during close", zap.Error(err))
	}
	p.teardown()
	return nil
}

func (p *LLDBPort) teardown() {
	_ = p.client.close()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
		go func() { _ = p.cmd.Wait() }()
	}
}

// DescribeTarget returns a one-line summary of the loaded target for
// display, e.g. the first line of "target list".
func (p *LLDBPort) DescribeTarget(ctx context.Context) string {
	out, err := p.client.evaluate(ctx, "`target list", 0, "repl")
	if err != nil {
		return ""
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "target #") {
			return strings.TrimSpace(line)
		}
	}
	return ""
}
