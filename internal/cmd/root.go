// Package cmd implements the workmux CLI surface (spec §6): one cobra
// command per operation, grouped the way the teacher's internal/cmd groups
// its own command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Command group IDs, shown as section headers in `workmux --help`.
const (
	GroupWorkspace = "workspace"
	GroupAgents    = "agents"
	GroupConfig    = "config"
	GroupDiag      = "diag"
	GroupInternal  = "internal"
)

var rootCmd = &cobra.Command{
	Use:           "workmux",
	Short:         "Orchestrate VCS worktrees, multiplexer windows, and coding agents",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: GroupWorkspace, Title: "Workspace commands:"},
		&cobra.Group{ID: GroupAgents, Title: "Agent commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration commands:"},
		&cobra.Group{ID: GroupDiag, Title: "Diagnostics commands:"},
		&cobra.Group{ID: GroupInternal, Title: "Internal commands:"},
	)
}

// Execute runs the root command, returning the process exit code per
// spec §6: 0 on success, 1 on a handled error, 2 on a usage error.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		if _, ok := err.(usageError); ok {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		fmt.Fprintln(os.Stderr, "workmux:", err)
		return 1
	}
	return 0
}

// usageError marks an error as a malformed-invocation error (spec §6 exit
// code 2) rather than a runtime failure (exit code 1).
type usageError struct{ err error }

func (u usageError) Error() string { return u.err.Error() }
func (u usageError) Unwrap() error { return u.err }

func usageErrorf(format string, args ...any) error {
	return usageError{fmt.Errorf(format, args...)}
}
