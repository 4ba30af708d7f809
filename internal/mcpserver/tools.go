package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerTools() {
	s.registerCopilotAsk()
	s.registerDebuggerCommand()
	s.registerCopilotReset()
	s.registerCopilotSessions()
}

func (s *Server) registerCopilotAsk() {
	tool := mcp.NewTool("copilot_ask",
		mcp.WithDescription("Ask the debugging copilot a question about the attached target. The copilot may run LLDB commands to investigate before answering. Conversation history is kept per target."),
		mcp.WithString("question",
			mcp.Required(),
			mcp.Description("The question to ask, e.g. 'Why did the process crash?' or 'What is argv[1] right now?'"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleCopilotAsk)
}

func (s *Server) registerDebuggerCommand() {
	tool := mcp.NewTool("debugger_command",
		mcp.WithDescription("Run one LLDB command against the attached target and return its raw output. Command failures are reported in the result, not as tool errors."),
		mcp.WithString("command",
			mcp.Required(),
			mcp.Description("The LLDB command to run, e.g. 'bt', 'frame variable', 'register read'"),
		),
	)
	s.mcpServer.AddTool(tool, s.handleDebuggerCommand)
}

func (s *Server) registerCopilotReset() {
	tool := mcp.NewTool("copilot_reset",
		mcp.WithDescription("Clear the stored conversation transcript for the currently attached target. The next question starts from a blank history."),
	)
	s.mcpServer.AddTool(tool, s.handleCopilotReset)
}

func (s *Server) registerCopilotSessions() {
	tool := mcp.NewTool("copilot_sessions",
		mcp.WithDescription("List target identities that have a stored conversation transcript."),
	)
	s.mcpServer.AddTool(tool, s.handleCopilotSessions)
}
