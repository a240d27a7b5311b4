package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/workflow"
)

var (
	removeDeleteBranch bool
	removeForce        bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <handle>",
	Aliases: []string{"rm"},
	GroupID: GroupWorkspace,
	Short:   "Tear down a workspace's window and worktree",
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	removeCmd.Flags().BoolVar(&removeDeleteBranch, "delete-branch", false, "also delete the branch")
	removeCmd.Flags().BoolVar(&removeForce, "force", false, "remove even with uncommitted changes")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	result, err := engine.Remove(cmd.Context(), workflow.RemoveArgs{
		Handle:       args[0],
		DeleteBranch: removeDeleteBranch,
		Force:        removeForce,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", result.Handle)
	if result.BranchDeleted {
		fmt.Fprintln(cmd.OutOrStdout(), "branch deleted")
	}
	if result.DeferredClosing {
		fmt.Fprintln(cmd.OutOrStdout(), "closing this window shortly, you were inside it")
	}
	return nil
}
