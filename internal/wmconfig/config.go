// Package wmconfig loads and validates the project-level workmux.yaml
// configuration file (spec §6), searched for in the current directory and
// its ancestors the way the teacher's sibling repos in the retrieval pack
// (kingrea-The-Lattice, zjrosen-perles) resolve their own nearest-ancestor
// YAML config.
package wmconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/workmux/workmux/internal/paths"
)

// FileOps lists the glob patterns resolved relative to the repo root for
// the two file-operation kinds the setup pipeline runs (spec §4.E): `copy`
// overwrites the destination, `symlink` creates a relative symlink so the
// worktree tree stays relocatable.
type FileOps struct {
	Copy    []string `yaml:"copy,omitempty"`
	Symlink []string `yaml:"symlink,omitempty"`
}

// PaneConfig describes one pane to materialize in a workspace window.
// Target is parsed from the config but neither multiplexer backend reads
// it when splitting panes.
type PaneConfig struct {
	Command     string `yaml:"command,omitempty"`
	Focus       bool   `yaml:"focus,omitempty"`
	Split       string `yaml:"split,omitempty"` // "vertical" | "horizontal"
	SizePercent int    `yaml:"size_percent,omitempty"`
	Target      string `yaml:"target,omitempty"`
}

// WindowConfig describes one window to materialize in session mode
// (spec §6, `windows:` — session-mode only).
type WindowConfig struct {
	Name  string       `yaml:"name,omitempty"`
	Panes []PaneConfig `yaml:"panes,omitempty"`
}

// DashboardConfig controls optional dashboard behavior (spec §6).
type DashboardConfig struct {
	ShowCheckCounts bool   `yaml:"show_check_counts,omitempty"`
	Commit          string `yaml:"commit,omitempty"`
	Merge           string `yaml:"merge,omitempty"`
}

// Mode selects whether a workspace materializes as a tmux/WezTerm window
// inside the shared instance, or as its own standalone session (spec §6,
// `mode: window|session`).
type Mode string

const (
	ModeWindow  Mode = "window"
	ModeSession Mode = "session"
)

// Config is the parsed contents of workmux.yaml.
type Config struct {
	MainBranch     string          `yaml:"main_branch,omitempty"`
	WorktreeDir    string          `yaml:"worktree_dir,omitempty"`
	WindowPrefix   string          `yaml:"window_prefix,omitempty"`
	Backend        string          `yaml:"backend,omitempty"` // "tmux" | "wezterm"
	Mode           Mode            `yaml:"mode,omitempty"`
	Agent          string          `yaml:"agent,omitempty"`
	Files          FileOps         `yaml:"files,omitempty"`
	Panes          []PaneConfig    `yaml:"panes,omitempty"`
	Windows        []WindowConfig  `yaml:"windows,omitempty"`
	PostCreate     []string        `yaml:"post_create,omitempty"`
	PreDelete      []string        `yaml:"pre_delete,omitempty"`
	Sandbox        *Sandbox        `yaml:"sandbox,omitempty"`
	Foreach        string          `yaml:"foreach,omitempty"`
	Dashboard      DashboardConfig `yaml:"dashboard,omitempty"`
	WorktreeNaming string          `yaml:"worktree_naming,omitempty"` // "branch" | "slug"
	WorktreePrefix string          `yaml:"worktree_prefix,omitempty"`

	// path is the file this config was loaded from, used to resolve
	// relative paths (e.g. worktree_dir) against its directory.
	path string
}

// Sandbox configures the optional per-workspace isolation layer (spec §4.G).
type Sandbox struct {
	Mode        string   `yaml:"mode,omitempty"` // "none" | "seatbelt" | "bwrap" | "lima"
	AllowWrite  []string `yaml:"allow_write,omitempty"`
	AllowNet    bool     `yaml:"allow_net,omitempty"`
	LimaVMYAML  string   `yaml:"lima_vm_yaml,omitempty"`
	HostExecBin []string `yaml:"host_exec_bin,omitempty"`
}

const exampleConfig = `# workmux.yaml — generated by 'workmux init'. See https://github.com/workmux/workmux
# main_branch: main
# window_prefix: "wm-"
# backend: tmux
# mode: window
# agent: claude
# worktree_dir: ../myproject__worktrees
#
# panes:
#   - command: "<agent>"
#   - command: npm run dev
#     split: horizontal
#
# files:
#   copy:
#     - .env.local
#   symlink:
#     - config/secrets.yaml
#
# post_create:
#   - "pnpm install"
#
# pre_delete: []
#
# sandbox:
#   mode: none
`

// Load finds the nearest workmux.yaml above startDir and parses it. If no
// config file exists, it returns a zero-value Config with defaults applied.
func Load(startDir string) (*Config, error) {
	path, err := paths.FindConfigFile(startDir)
	if err != nil {
		return nil, fmt.Errorf("locating config file: %w", err)
	}
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.path = path
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.WindowPrefix == "" {
		c.WindowPrefix = "wm-"
	}
	if c.Backend == "" {
		c.Backend = "tmux"
	}
	if c.Mode == "" {
		c.Mode = ModeWindow
	}
	if c.WorktreeNaming == "" {
		c.WorktreeNaming = "branch"
	}
}

// Dir returns the directory containing the loaded config file, or "" if no
// file was found.
func (c *Config) Dir() string {
	if c.path == "" {
		return ""
	}
	return filepath.Dir(c.path)
}

// Init writes an example workmux.yaml to dir, failing if one already exists.
func Init(dir string) (string, error) {
	target := filepath.Join(dir, paths.ConfigFileName)
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("%s already exists", target)
	}
	if err := os.WriteFile(target, []byte(exampleConfig), 0644); err != nil {
		return "", fmt.Errorf("writing %s: %w", target, err)
	}
	return target, nil
}

// ResolveWorktreeDir resolves the configured worktree_dir against the main
// worktree root, matching the original's create.rs default: an absolute
// worktree_dir is used as-is, a relative one is resolved against the
// directory of the loaded config file (or the main worktree root when no
// config file was loaded), and when unset it defaults to "<project>__worktrees" as a
// sibling of the main worktree root.
func (c *Config) ResolveWorktreeDir(mainWorktreeRoot string) (string, error) {
	if c.WorktreeDir != "" {
		if filepath.IsAbs(c.WorktreeDir) {
			return c.WorktreeDir, nil
		}
		base := mainWorktreeRoot
		if c.Dir() != "" {
			base = c.Dir()
		}
		return filepath.Join(base, c.WorktreeDir), nil
	}
	parent := filepath.Dir(mainWorktreeRoot)
	project := filepath.Base(mainWorktreeRoot)
	if project == "" || project == "." || project == string(filepath.Separator) {
		return "", fmt.Errorf("could not determine project name from %q", mainWorktreeRoot)
	}
	return filepath.Join(parent, project+"__worktrees"), nil
}
