package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var setBaseCmd = &cobra.Command{
	Use:     "set-base <handle> <ref>",
	GroupID: GroupWorkspace,
	Short:   "Record a workspace's merge base explicitly",
	Args:    cobra.ExactArgs(2),
	RunE:    runSetBase,
}

func init() {
	rootCmd.AddCommand(setBaseCmd)
}

func runSetBase(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	if err := engine.SetBase(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "base of %s set to %s\n", args[0], args[1])
	return nil
}
