package setup

import (
	"context"
	"fmt"

	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/wmconfig"
)

// Options toggles individual pipeline stages, mirroring the `add`
// subcommand's --no-hooks/--no-file-ops/--no-pane-cmds flags (spec §6).
type Options struct {
	RunFileOps  bool
	RunHooks    bool
	RunPaneCmds bool
	Detached    bool
	FocusWindow bool
}

// DefaultOptions returns every stage enabled and the window focused, the
// default behavior of `add` with no suppressing flags.
func DefaultOptions() Options {
	return Options{RunFileOps: true, RunHooks: true, RunPaneCmds: true, FocusWindow: true}
}

// Result is what Run materialized, for the workflow engine to persist into
// the agent-state store and report back to the user.
type Result struct {
	Window    mux.WindowInfo
	FileOps   FileOpsResult
	FocusPane string
}

// Run executes the setup pipeline against a freshly created worktree:
// file operations, post-create hooks, then multiplexer window/session
// creation with its pane layout (spec §4.E). It is deterministic for a
// given config: the same pane list always yields the same split order and
// focus pane.
func Run(ctx context.Context, backend mux.Backend, cfg *wmconfig.Config, repoRoot, worktreePath, handle, effectiveAgent string, opts Options) (Result, error) {
	var result Result

	if opts.RunFileOps && repoRoot != "" {
		fo, err := CopyAndSymlink(repoRoot, worktreePath, cfg.Files.Copy, cfg.Files.Symlink)
		if err != nil {
			return result, fmt.Errorf("running file operations: %w", err)
		}
		result.FileOps = fo
	}

	if opts.RunHooks && len(cfg.PostCreate) > 0 {
		if err := RunHooks(ctx, worktreePath, cfg.PostCreate); err != nil {
			return result, fmt.Errorf("running post-create hooks: %w", err)
		}
	}

	panes := resolvePanes(cfg.Panes, effectiveAgent, opts.RunPaneCmds)
	params := mux.CreateWindowParams{Handle: handle, Path: worktreePath, Panes: panes}

	var window mux.WindowInfo
	var err error
	if cfg.Mode == wmconfig.ModeSession {
		window, err = backend.CreateSession(ctx, params)
	} else {
		window, err = backend.CreateWindow(ctx, params)
	}
	if err != nil {
		return result, fmt.Errorf("materializing multiplexer object for %s: %w", handle, err)
	}
	result.Window = window
	result.FocusPane = window.FocusPaneID

	if opts.FocusWindow && !opts.Detached {
		if err := backend.SelectWindow(ctx, handle); err != nil {
			return result, fmt.Errorf("focusing window %s: %w", handle, err)
		}
	}

	return result, nil
}

// resolvePanes expands the "<agent>" placeholder in each pane's command
// against effectiveAgent, and drops commands entirely when pane-command
// execution is suppressed (--no-pane-cmds), leaving the pane as a bare
// shell instead.
func resolvePanes(cfgPanes []wmconfig.PaneConfig, effectiveAgent string, runCmds bool) []mux.PaneSpec {
	panes := make([]mux.PaneSpec, 0, len(cfgPanes))
	if len(cfgPanes) == 0 {
		panes = append(panes, mux.PaneSpec{Command: commandFor("<agent>", effectiveAgent, runCmds)})
		return panes
	}
	for _, p := range cfgPanes {
		panes = append(panes, mux.PaneSpec{
			Command:     commandFor(p.Command, effectiveAgent, runCmds),
			SplitVert:   p.Split == "vertical",
			SizePercent: p.SizePercent,
		})
	}
	return panes
}

func commandFor(command, effectiveAgent string, runCmds bool) string {
	if !runCmds {
		return ""
	}
	if command == "<agent>" {
		return effectiveAgent
	}
	return command
}
