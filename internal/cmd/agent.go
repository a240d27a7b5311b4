package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/store"
)

var agentCmd = &cobra.Command{
	Use:     "agent",
	GroupID: GroupAgents,
	Short:   "Agent-state maintenance commands",
}

var agentPruneStaleCmd = &cobra.Command{
	Use:   "prune-stale",
	Short: "Kill tracked agent shell PIDs that outlived their multiplexer pane",
	Long: `Scan the PID-tracking directory for agent shells workmux is still
tracking and kill any whose multiplexer pane no longer exists, a
defense-in-depth cleanup for processes that escape tmux's own bookkeeping
(e.g. a detached subprocess the agent spawned).`,
	Args: cobra.NoArgs,
	RunE: runAgentPruneStale,
}

func init() {
	agentCmd.AddCommand(agentPruneStaleCmd)
	rootCmd.AddCommand(agentCmd)
}

func runAgentPruneStale(cmd *cobra.Command, args []string) error {
	killed, failed := store.KillTrackedPIDs()
	fmt.Fprintf(cmd.OutOrStdout(), "killed %d stale tracked process(es)\n", killed)
	for _, handle := range failed {
		fmt.Fprintf(cmd.OutOrStdout(), "could not confirm kill for %s\n", handle)
	}
	return nil
}
