package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/internal/agent"
	cperrors "github.com/0xeb/lldb-copilot/internal/errors"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

type askResponse struct {
	Status    string   `json:"status"`
	Answer    string   `json:"answer,omitempty"`
	ToolCalls int      `json:"toolCalls"`
	Commands  []string `json:"commands,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func (s *Server) handleCopilotAsk(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError(cperrors.MissingParameter("question",
			"Provide the question to ask the copilot.").Error()), nil
	}

	identity := s.port.TargetIdentity()
	s.logger.Info("copilot_ask", zap.String("identity", string(identity)))

	resp := askResponse{}
	for ev := range s.loop.Run(ctx, question, identity) {
		switch ev.Kind {
		case agent.EventToolCallFinished:
			resp.Commands = append(resp.Commands, ev.ToolCall.Command())
		case agent.EventOutcome:
			resp.Status = string(ev.Outcome.Status)
			resp.Answer = ev.Outcome.Answer
			resp.ToolCalls = ev.Outcome.ToolCallCount
			if ev.Outcome.Err != nil {
				resp.Error = ev.Outcome.Err.Error()
			}
		}
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) handleDebuggerCommand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	command, err := request.RequireString("command")
	if err != nil {
		return mcp.NewToolResultError(cperrors.MissingParameter("command",
			"Provide the LLDB command to run, e.g. 'bt' or 'frame variable'.").Error()), nil
	}

	call := types.ToolCall{
		Name:      types.ToolLLDBCommand,
		Arguments: map[string]any{"command": command},
	}

	result, err := s.engine.Dispatch(ctx, &call)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	// A failed command is still a successful tool call; the failure
	// text is the payload.
	if !result.Succeeded {
		return mcp.NewToolResultText(fmt.Sprintf("command failed: %s", result.Error)), nil
	}
	return mcp.NewToolResultText(result.Output), nil
}

func (s *Server) handleCopilotReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identity := s.port.TargetIdentity()
	if err := s.store.Clear(identity); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared transcript for %s", identity)), nil
}

func (s *Server) handleCopilotSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	identities, err := s.store.Identities()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(identities) == 0 {
		return mcp.NewToolResultText("No stored sessions."), nil
	}

	out, err := json.MarshalIndent(identities, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
