package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/0xeb/lldb-copilot/internal/version"
)

var versionCheck bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lldb-copilot version",
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionCheck, "check", false, "Check GitHub for a newer release")
}

func runVersion(cmd *cobra.Command, args []string) error {
	fmt.Printf("lldb-copilot v%s\n", version.Version)

	if !versionCheck {
		return nil
	}

	info := version.CheckForUpdates(cmd.Context())
	if info.Error != "" {
		fmt.Fprintf(os.Stderr, "Update check failed: %s\n", info.Error)
		return nil
	}
	if msg := info.UpdateMessage(); msg != "" {
		fmt.Println(msg)
	} else {
		fmt.Println("You are on the latest version.")
	}
	return nil
}
