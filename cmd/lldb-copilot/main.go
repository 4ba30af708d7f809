// Package main implements the lldb-copilot CLI.
//
// lldb-copilot attaches an AI agent to LLDB: the agent answers questions
// about a debugged target by running debugger commands as tool calls and
// reasoning over their output. Conversation history is kept per target.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/0xeb/lldb-copilot/internal/config"
)

var (
	// Global flags
	verbose    bool
	configPath string

	// Target selection flags (ask, serve)
	flagProgram     string
	flagArgs        []string
	flagCwd         string
	flagPID         int
	flagCore        string
	flagStopOnEntry bool
	flagDapPath     string

	logger   *zap.Logger
	settings *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "lldb-copilot",
	Short: "AI debugging copilot for LLDB",
	Long: `lldb-copilot pairs a hosted AI model with a live LLDB session.

Ask a question about a running or crashed program and the copilot will
run the LLDB commands needed to answer it, showing you every command
and its output along the way. Conversation history is stored per
debugged executable, so follow-up questions keep their context.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		if verbose {
			cfg = zap.NewDevelopmentConfig()
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		} else {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		var err error
		logger, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		path := configPath
		if path == "" {
			if path, err = config.DefaultPath(); err != nil {
				return fmt.Errorf("failed to resolve settings path: %w", err)
			}
		}
		settings, err = config.Load(path)
		if err != nil {
			return err
		}
		if flagDapPath != "" {
			settings.LLDB.DapPath = flagDapPath
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// targetFlags registers the debugger target selection flags on commands
// that open a debugger session.
func targetFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProgram, "program", "", "Executable to launch under the debugger")
	cmd.Flags().StringSliceVar(&flagArgs, "args", nil, "Arguments passed to the launched program")
	cmd.Flags().StringVar(&flagCwd, "cwd", "", "Working directory for the launched program")
	cmd.Flags().IntVar(&flagPID, "pid", 0, "Process ID to attach to instead of launching")
	cmd.Flags().StringVar(&flagCore, "core", "", "Core dump to load (requires --program)")
	cmd.Flags().BoolVar(&flagStopOnEntry, "stop-on-entry", false, "Stop at the program entry point after launch")
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Settings file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDapPath, "lldb-dap", "", "Path to the lldb-dap binary (overrides settings)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
