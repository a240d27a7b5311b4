package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	cleanupBase   string
	cleanupDryRun bool
)

var cleanupCmd = &cobra.Command{
	Use:     "cleanup",
	GroupID: GroupWorkspace,
	Short:   "Remove every workspace whose branch has already been merged into base",
	Args:    cobra.NoArgs,
	RunE:    runCleanup,
}

func init() {
	cleanupCmd.Flags().StringVar(&cleanupBase, "base", "", "base branch to check merges against (default: main branch from workmux.yaml)")
	cleanupCmd.Flags().BoolVar(&cleanupDryRun, "dry-run", false, "list what would be removed without removing it")
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	cleaned, err := engine.Cleanup(cmd.Context(), cleanupBase, cleanupDryRun)
	if err != nil {
		return err
	}
	if len(cleaned) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to clean up")
		return nil
	}
	verb := "removed"
	if cleanupDryRun {
		verb = "would remove"
	}
	for _, handle := range cleaned {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", verb, handle)
	}
	return nil
}
