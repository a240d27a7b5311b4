package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/wmconfig"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: GroupConfig,
	Short:   "Write an example workmux.yaml in the current directory",
	Args:    cobra.NoArgs,
	RunE:    runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	path, err := wmconfig.Init(cwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}
