package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:     "close <handle>",
	GroupID: GroupWorkspace,
	Short:   "Close a workspace's multiplexer window without touching its worktree",
	Args:    cobra.ExactArgs(1),
	RunE:    runClose,
}

func init() {
	rootCmd.AddCommand(closeCmd)
}

func runClose(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	deferred, err := engine.Close(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if deferred {
		fmt.Fprintln(cmd.OutOrStdout(), "closing this window shortly, you were inside it")
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "closed %s\n", args[0])
	}
	return nil
}
