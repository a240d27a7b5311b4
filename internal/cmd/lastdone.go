package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/paths"
)

var lastDoneCmd = &cobra.Command{
	Use:     "last-done",
	GroupID: GroupWorkspace,
	Short:   "Switch multiplexer focus to the most recently idle agent",
	Long: `Switch focus to the most recently idle ("Done") agent. Calling this
repeatedly cycles through the ranked list of idle agents rather than
bouncing back to the same one, remembering which handle it last focused
in a small state file.`,
	Args: cobra.NoArgs,
	RunE: runLastDone,
}

func init() {
	rootCmd.AddCommand(lastDoneCmd)
}

func lastDoneCursorPath() (string, error) {
	dir, err := paths.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "last-done-cursor"), nil
}

func runLastDone(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}

	cursorPath, err := lastDoneCursorPath()
	if err != nil {
		return err
	}
	previous := ""
	if data, err := os.ReadFile(cursorPath); err == nil {
		previous = string(data)
	}

	handle, err := engine.LastDone(cmd.Context(), previous)
	if err != nil {
		return err
	}

	tmp := cursorPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(handle), 0644); err == nil {
		_ = os.Rename(tmp, cursorPath)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "focused %s\n", handle)
	return nil
}
