package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/style"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	GroupID: GroupWorkspace,
	Short:   "List every known workspace and its reconciled status",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	workspaces, err := engine.List(cmd.Context())
	if err != nil {
		return err
	}
	if len(workspaces) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no workspaces")
		return nil
	}

	t := style.WorkspaceTable()
	for _, ws := range workspaces {
		style.AddWorkspaceRow(t, ws.Handle, ws.Branch, ws.Base, ws.Status, ws.Path)
	}
	fmt.Fprint(cmd.OutOrStdout(), t.Render())
	return nil
}
