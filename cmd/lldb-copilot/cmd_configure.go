package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/0xeb/lldb-copilot/internal/config"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Inspect and change copilot settings",
	Long: `Manages the settings file. Without a subcommand, lists all settings.

Keys:
  provider          Hosted-model backend: gemini or openai
  gemini.api_key    Gemini API key
  gemini.model      Gemini model name
  openai.api_key    API key for the OpenAI-compatible backend
  openai.base_url   Base URL for an OpenAI-compatible backend
  openai.model      Model name for the OpenAI-compatible backend
  lldb.dap_path     Path to the lldb-dap binary
  max_tool_calls    Maximum debugger commands per question`,
	RunE: runConfigureList,
}

var configureListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all settings (secrets redacted)",
	RunE:  runConfigureList,
}

var configureGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigureGet,
}

var configureSetCmd = &cobra.Command{
	Use:   "set <key> [value]",
	Short: "Change one setting",
	Long: `Sets a value and writes the settings file immediately.

API keys may be entered without a value argument; the key is then read
from the terminal without echo:

  lldb-copilot configure set gemini.api_key`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runConfigureSet,
}

func init() {
	configureCmd.AddCommand(configureListCmd)
	configureCmd.AddCommand(configureGetCmd)
	configureCmd.AddCommand(configureSetCmd)
}

func runConfigureList(cmd *cobra.Command, args []string) error {
	fmt.Printf("Settings file: %s\n\n", settings.Path())
	for _, key := range config.Keys() {
		value, err := settings.Get(key)
		if err != nil {
			return err
		}
		if value == "" {
			value = "(unset)"
		}
		fmt.Printf("  %-16s %s\n", key, value)
	}
	return nil
}

func runConfigureGet(cmd *cobra.Command, args []string) error {
	value, err := settings.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Println(value)
	return nil
}

func runConfigureSet(cmd *cobra.Command, args []string) error {
	key := args[0]

	var value string
	if len(args) == 2 {
		value = args[1]
	} else {
		if !strings.HasSuffix(key, "api_key") {
			return fmt.Errorf("key %q needs a value argument", key)
		}
		fmt.Fprintf(os.Stderr, "Enter %s: ", key)
		secret, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("failed to read key from terminal: %w", err)
		}
		value = strings.TrimSpace(string(secret))
	}

	if err := settings.Set(key, value); err != nil {
		return err
	}
	fmt.Printf("Saved %s.\n", key)
	return nil
}
