package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/setup"
	"github.com/workmux/workmux/internal/workflow"
)

var openNew bool

var openCmd = &cobra.Command{
	Use:     "open <handle>",
	GroupID: GroupWorkspace,
	Short:   "Focus an existing workspace, or open a second window onto it",
	Args:    cobra.ExactArgs(1),
	RunE:    runOpen,
}

func init() {
	openCmd.Flags().BoolVar(&openNew, "new", false, "materialize an additional window onto the same worktree")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	result, err := engine.Open(cmd.Context(), workflow.OpenArgs{
		Handle:  args[0],
		New:     openNew,
		Options: setup.DefaultOptions(),
	})
	if err != nil {
		return err
	}
	if result.Window {
		fmt.Fprintf(cmd.OutOrStdout(), "opened new window %s onto %s\n", result.Handle, result.Path)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "focused %s\n", result.Handle)
	}
	return nil
}
