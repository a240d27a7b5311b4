// Package paths resolves the on-disk locations workmux reads and writes:
// the nearest-ancestor config file, the XDG state directory, and the
// per-run artifact directories used by the hidden `_exec` hook helper.
package paths

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/workmux/workmux/internal/util"
)

const (
	// ConfigFileName is the project config file searched for in the
	// current directory and its ancestors.
	ConfigFileName = "workmux.yaml"

	appDirName = "workmux"
)

// StateDir returns ${XDG_STATE_HOME:-~/.local/state}/workmux, creating it
// if necessary.
func StateDir() (string, error) {
	base := os.Getenv("XDG_STATE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, ".local", "state")
	} else {
		base = util.ExpandHome(base)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating state dir: %w", err)
	}
	return dir, nil
}

// ConfigDir returns ${XDG_CONFIG_HOME:-~/.config}/workmux, creating it if
// necessary. Used by the agent-setup wizard (external collaborator, §1) to
// locate ~/.config/opencode, and by workmux itself for user-level overrides.
func ConfigDir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		base = filepath.Join(home, ".config")
	} else {
		base = util.ExpandHome(base)
	}
	dir := filepath.Join(base, appDirName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}
	return dir, nil
}

// AgentsDir returns the directory holding one JSON file per known agent pane.
func AgentsDir() (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(state, "agents")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating agents dir: %w", err)
	}
	return dir, nil
}

// SetupStatePath returns the path to setup.json, the first-run wizard's
// record of declined agent integrations.
func SetupStatePath() (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(state, "setup.json"), nil
}

// LogPath returns the path to the rotated text log.
func LogPath() (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(state, "workmux.log"), nil
}

// RunDir returns the per-run artifact directory for an `_exec` hook
// invocation, identified by a caller-supplied run ID (typically a
// uuid). Contains spec, stdout, stderr, result files.
func RunDir(runID string) (string, error) {
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(state, "runs", runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	return dir, nil
}

// FindConfigFile searches startDir and its ancestors for workmux.yaml,
// mirroring the nearest-ancestor lookup described in spec §6. Returns ""
// with no error if no config file is found.
func FindConfigFile(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving start dir: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// IsSuppressedInteractive reports whether interactive prompts (remove
// confirmation, setup wizard) should be skipped per spec §7: stdin is not a
// TTY, or CI/WORKMUX_TEST is set.
func IsSuppressedInteractive(stdinIsTTY bool) bool {
	if !stdinIsTTY {
		return true
	}
	if os.Getenv("CI") != "" || os.Getenv("WORKMUX_TEST") != "" {
		return true
	}
	return false
}
