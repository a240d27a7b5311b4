package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/paths"
	"github.com/workmux/workmux/internal/style"
)

// setupState is setup.json's shape (spec §6): the first-run wizard's record
// of which agent integrations the user declined, so it doesn't keep asking.
type setupState struct {
	Declined []string `json:"declined"`
}

// claudeStatusHook is the minimal pane-status-reporting hook handed to an
// agent CLI that supports a post-response hook: it calls back into workmux
// to update the pane's recorded status, the same contract internal/store's
// external updaters rely on (spec §4.C).
const claudeStatusHook = "#!/bin/sh\nexec workmux host-exec workmux-status-update \"$@\"\n"

var setupCmd = &cobra.Command{
	Use:     "setup",
	GroupID: GroupConfig,
	Short:   "Interactively wire up supported agent CLIs' status hooks",
	Long: `Offer to install a small status-reporting hook for each supported
agent CLI found on PATH: Claude Code (~/.claude/hooks) and opencode
(~/.config/opencode/plugin). Declining an integration is remembered in
setup.json so this wizard doesn't ask again.`,
	Args: cobra.NoArgs,
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(cmd *cobra.Command, args []string) error {
	statePath, err := paths.SetupStatePath()
	if err != nil {
		return err
	}
	state := loadSetupState(statePath)

	interactive := !paths.IsSuppressedInteractive(isStdinTTY())
	reader := bufio.NewReader(cmd.InOrStdin())

	candidates := []struct {
		name    string
		binary  string
		install func() error
	}{
		{"claude", "claude", installClaudeHook},
		{"opencode", "opencode", installOpencodeHook},
	}

	for _, c := range candidates {
		if contains(state.Declined, c.name) {
			continue
		}
		if _, err := exec.LookPath(c.binary); err != nil {
			continue // not installed, nothing to offer
		}
		if !interactive {
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Install the workmux status hook for %s? [Y/n] ", c.name)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer == "n" || answer == "no" {
			state.Declined = append(state.Declined, c.name)
			continue
		}
		if err := c.install(); err != nil {
			style.PrintWarning("installing %s hook: %v", c.name, err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s hook installed for %s\n", style.Success.Render("✓"), c.name)
	}

	return saveSetupState(statePath, state)
}

func installClaudeHook() error {
	home, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(home, ".claude", "hooks")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "workmux-status.sh"), []byte(claudeStatusHook), 0755)
}

func installOpencodeHook() error {
	dir, err := filepath.Abs(filepath.Join(os.Getenv("HOME"), ".config", "opencode", "plugin"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "workmux-status.sh"), []byte(claudeStatusHook), 0755)
}

func loadSetupState(path string) setupState {
	var state setupState
	data, err := os.ReadFile(path)
	if err != nil {
		return state
	}
	_ = json.Unmarshal(data, &state)
	return state
}

func saveSetupState(path string, state setupState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func isStdinTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
