package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/0xeb/lldb-copilot/internal/agent"
	"github.com/0xeb/lldb-copilot/internal/debugger"
	"github.com/0xeb/lldb-copilot/internal/dispatch"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/internal/transcript"
)

// copilot bundles the assembled components for one debugger session.
type copilot struct {
	port   *debugger.LLDBPort
	engine *dispatch.Engine
	store  *transcript.Store
	loop   *agent.Loop
}

// openCopilot spawns lldb-dap against the target described by the CLI
// flags and assembles the dispatch engine, transcript store, provider
// and session loop around it.
func openCopilot(ctx context.Context) (*copilot, error) {
	if flagProgram == "" && flagPID == 0 {
		return nil, fmt.Errorf("no target: use --program to launch or --pid to attach")
	}
	if flagCore != "" && flagProgram == "" {
		return nil, fmt.Errorf("--core requires --program")
	}

	spec := debugger.TargetSpec{
		Program:     flagProgram,
		Args:        flagArgs,
		Cwd:         flagCwd,
		PID:         flagPID,
		CoreFile:    flagCore,
		StopOnEntry: flagStopOnEntry,
	}

	port, err := debugger.NewLLDBPort(ctx, settings.LLDB.DapPath, spec, logger)
	if err != nil {
		return nil, cperrors.PortUnavailable(err)
	}

	dir, err := transcript.DefaultDir()
	if err != nil {
		port.Close()
		return nil, cperrors.Wrap(cperrors.CodeStorageFailed, "cannot resolve transcript directory",
			"The user configuration directory could not be determined. Set HOME or XDG_CONFIG_HOME.", err)
	}
	store, err := transcript.NewStore(dir, logger)
	if err != nil {
		port.Close()
		return nil, err
	}

	provider, err := agent.NewProvider(ctx, settings, logger)
	if err != nil {
		port.Close()
		return nil, err
	}

	engine := dispatch.NewEngine(port, logger)
	loop := agent.NewLoop(engine, provider, store, settings.MaxToolCalls, logger)

	return &copilot{
		port:   port,
		engine: engine,
		store:  store,
		loop:   loop,
	}, nil
}

func (c *copilot) close() {
	if err := c.port.Close(); err != nil {
		logger.Debug("debugger close failed")
	}
}

// watchInterrupts turns the first SIGINT into an interrupt request and
// a best-effort debugger pause. A second SIGINT exits immediately. The
// returned func stops the watcher.
func (c *copilot) watchInterrupts() func() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGINT)
	done := make(chan struct{})

	go func() {
		seen := 0
		for {
			select {
			case <-sigs:
				seen++
				if seen > 1 {
					os.Exit(130)
				}
				fmt.Fprintln(os.Stderr, "\nInterrupting... (press Ctrl-C again to force quit)")
				c.engine.RequestInterrupt()
				c.engine.InterruptPort()
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

// runQuestion executes one question through the session loop, streaming
// commands and output to stdout, and returns the outcome status.
func (c *copilot) runQuestion(ctx context.Context, question string) error {
	identity := c.port.TargetIdentity()

	for ev := range c.loop.Run(ctx, question, identity) {
		switch ev.Kind {
		case agent.EventText:
			fmt.Println(ev.Text)

		case agent.EventToolCallStarted:
			fmt.Printf("(lldb) %s\n", ev.ToolCall.Command())

		case agent.EventToolCallFinished:
			result := ev.ToolCall.Result
			if result == nil {
				continue
			}
			if result.Succeeded {
				fmt.Println(indent(result.Output))
			} else {
				fmt.Println(indent("error: " + result.Error))
			}

		case agent.EventOutcome:
			switch ev.Outcome.Status {
			case agent.StatusAnswered:
				// The answer was already streamed as a text event.
			case agent.StatusInterrupted:
				fmt.Fprintln(os.Stderr, "Interrupted; nothing was saved.")
			case agent.StatusToolLimit:
				fmt.Fprintf(os.Stderr, "Stopped: %v\n", ev.Outcome.Err)
			case agent.StatusError:
				return ev.Outcome.Err
			}
		}
	}

	return nil
}

func indent(s string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
