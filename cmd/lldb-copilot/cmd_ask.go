package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask the copilot a question about a debugged target",
	Long: `Launches or attaches the debugger and asks the copilot a question.
The copilot runs whatever LLDB commands it needs to answer; every
command and its output is printed as it happens.

With no question argument an interactive prompt opens, keeping the
debugger session alive between questions.

Examples:
  lldb-copilot ask --program ./a.out "why does this crash?"
  lldb-copilot ask --pid 12345 "what is the main thread doing?"
  lldb-copilot ask --program ./a.out --core core.1234 "walk me through this core dump"`,
	RunE: runAsk,
}

func init() {
	targetFlags(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := openCopilot(ctx)
	if err != nil {
		return err
	}
	defer c.close()

	stop := c.watchInterrupts()
	defer stop()

	if desc := c.port.DescribeTarget(ctx); desc != "" {
		fmt.Fprintf(os.Stderr, "Target: %s\n", desc)
	}

	if len(args) > 0 {
		return c.runQuestion(ctx, strings.Join(args, " "))
	}

	// Interactive mode: one loop run per question, same session.
	fmt.Fprintln(os.Stderr, "Interactive mode. Empty line or Ctrl-D exits.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Fprint(os.Stderr, "> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			break
		}
		if err := c.runQuestion(ctx, question); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return scanner.Err()
}
