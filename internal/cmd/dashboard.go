package cmd

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/dashboard"
	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/store"
	"github.com/workmux/workmux/internal/vcs"
	"github.com/workmux/workmux/internal/wmconfig"
)

var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	GroupID: GroupWorkspace,
	Short:   "Launch the live TUI dashboard of all agent workspaces",
	Args:    cobra.NoArgs,
	RunE:    runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := wmconfig.Load(cwd)
	if err != nil {
		return err
	}

	backendType, err := mux.ParseBackendType(cfg.Backend)
	if err != nil {
		return usageErrorf("%v", err)
	}
	backend := mux.New(backendType, "workmux")
	if !backend.IsAvailable() {
		return fmt.Errorf("%s is not installed or not running", backendType)
	}

	st, err := store.Open()
	if err != nil {
		return err
	}

	gitVCS := vcs.New(cwd)

	model := dashboard.New(context.Background(), backend, st, gitVCS, cfg)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
