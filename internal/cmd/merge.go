package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/workflow"
)

var (
	mergeStrategy          string
	mergeDelete            bool
	mergeIgnoreUncommitted bool
)

var mergeCmd = &cobra.Command{
	Use:     "merge <handle>",
	GroupID: GroupWorkspace,
	Short:   "Fold a workspace's branch back into its recorded base",
	Long: `Merge a workspace's branch back into its base (spec §4.F).

The main worktree must be clean. Unstaged changes in the source workspace
reject outright; staged changes are auto-committed via $EDITOR unless
--ignore-uncommitted is passed. --strategy selects merge, squash, or
rebase (default: merge). --delete folds a remove of the workspace into
the merge once it succeeds.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	mergeCmd.Flags().StringVar(&mergeStrategy, "strategy", "merge", "merge strategy: merge, squash, or rebase")
	mergeCmd.Flags().BoolVar(&mergeDelete, "delete", false, "remove the workspace after a successful merge")
	mergeCmd.Flags().BoolVar(&mergeIgnoreUncommitted, "ignore-uncommitted", false, "skip auto-committing staged changes before merging")
	rootCmd.AddCommand(mergeCmd)
}

func runMerge(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}

	var strategy workflow.MergeStrategy
	switch mergeStrategy {
	case "merge":
		strategy = workflow.MergeDefault
	case "squash":
		strategy = workflow.MergeSquash
	case "rebase":
		strategy = workflow.MergeRebase
	default:
		return usageErrorf("unknown --strategy %q (want merge, squash, or rebase)", mergeStrategy)
	}

	result, err := engine.Merge(cmd.Context(), workflow.MergeArgs{
		Handle:            args[0],
		Strategy:          strategy,
		DeleteAfter:       mergeDelete,
		IgnoreUncommitted: mergeIgnoreUncommitted,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "merged %s into %s\n", result.Branch, result.Base)
	if result.Removed {
		fmt.Fprintf(cmd.OutOrStdout(), "removed workspace %s\n", args[0])
	}
	if result.DeferredClosing {
		fmt.Fprintln(cmd.OutOrStdout(), "closing this window shortly, you were inside it")
	}
	return nil
}
