package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xeb/lldb-copilot/internal/transcript"
	"github.com/0xeb/lldb-copilot/pkg/types"
)

var resetAll bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List targets with stored conversation history",
	RunE:  runSessionsList,
}

var resetCmd = &cobra.Command{
	Use:   "reset [identity]",
	Short: "Clear stored conversation history",
	Long: `Clears the conversation transcript for one target identity, or for
all targets with --all. Identities are listed by 'lldb-copilot sessions'.`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&resetAll, "all", false, "Clear every stored transcript")
}

func openStore() (*transcript.Store, error) {
	dir, err := transcript.DefaultDir()
	if err != nil {
		return nil, err
	}
	return transcript.NewStore(dir, logger)
}

func runSessionsList(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	identities, err := store.Identities()
	if err != nil {
		return err
	}
	if len(identities) == 0 {
		fmt.Println("No stored sessions.")
		return nil
	}

	for _, id := range identities {
		sess, err := store.Load(id)
		if err != nil {
			fmt.Printf("  %s (unreadable: %v)\n", id, err)
			continue
		}
		fmt.Printf("  %s (%d turns)\n", id, sess.Len())
	}
	return nil
}

func runReset(cmd *cobra.Command, args []string) error {
	store, err := openStore()
	if err != nil {
		return err
	}

	if resetAll {
		identities, err := store.Identities()
		if err != nil {
			return err
		}
		for _, id := range identities {
			if err := store.Clear(id); err != nil {
				return err
			}
		}
		fmt.Printf("Cleared %d transcript(s).\n", len(identities))
		return nil
	}

	if len(args) != 1 {
		return fmt.Errorf("specify a target identity or --all (see 'lldb-copilot sessions')")
	}

	identity := types.TargetIdentity(args[0])
	if err := store.Clear(identity); err != nil {
		return err
	}
	fmt.Printf("Cleared transcript for %s.\n", identity)
	return nil
}
