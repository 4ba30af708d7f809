package main

import (
	"github.com/spf13/cobra"

	"github.com/0xeb/lldb-copilot/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the copilot over MCP stdio",
	Long: `Attaches the debugger to the given target and exposes the copilot as
a Model Context Protocol server on stdin/stdout, for use from MCP
clients such as editors and agent frameworks.

Tools exposed: copilot_ask, debugger_command, copilot_reset,
copilot_sessions.

Example:
  lldb-copilot serve --program ./a.out`,
	RunE: runServe,
}

func init() {
	targetFlags(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := openCopilot(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	srv := mcpserver.NewServer(c.engine, c.loop, c.store, c.port, logger)
	return srv.ServeStdio()
}
