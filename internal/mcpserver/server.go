// Package mcpserver exposes the copilot over the Model Context Protocol
// so MCP clients can drive the debugger through the same single-lane
// dispatch path the CLI uses.
//
// Tools:
//   - copilot_ask: ask the agent a question about the debugged target
//   - debugger_command: run one LLDB command directly
//   - copilot_reset: clear the stored transcript for the current target
//   - copilot_sessions: list targets with stored transcripts
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/0xeb/lldb-copilot/internal/agent"
	"github.com/0xeb/lldb-copilot/internal/debugger"
	"github.com/0xeb/lldb-copilot/internal/dispatch"
	"github.com/0xeb/lldb-copilot/internal/transcript"
	"github.com/0xeb/lldb-copilot/internal/version"
)

// Server wraps the MCP server around a live debugger session.
type Server struct {
	mcpServer *server.MCPServer
	engine    *dispatch.Engine
	loop      *agent.Loop
	store     *transcript.Store
	port      debugger.CommandPort
	logger    *zap.Logger
}

// NewServer creates an MCP server bound to an already attached debugger.
func NewServer(engine *dispatch.Engine, loop *agent.Loop, store *transcript.Store, port debugger.CommandPort, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		"lldb-copilot",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s := &Server{
		mcpServer: mcpServer,
		engine:    engine,
		loop:      loop,
		store:     store,
		port:      port,
		logger:    logger,
	}

	s.registerTools()

	return s
}

// ServeStdio starts the server using stdio transport. Blocks until the
// client disconnects.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}
