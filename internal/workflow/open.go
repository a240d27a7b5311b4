package workflow

import (
	"context"
	"fmt"

	"github.com/workmux/workmux/internal/setup"
	"github.com/workmux/workmux/internal/wmconfig"
)

// OpenArgs selects a workspace to open and whether to duplicate it.
type OpenArgs struct {
	Handle  string
	New     bool // open --new: materialize a sibling window on the same worktree
	Options setup.Options
}

// OpenResult reports which window was focused or created.
type OpenResult struct {
	Handle string
	Path   string
	Window bool // true if a new window/session was created (--new)
}

// Open focuses an existing workspace window, or with --new materializes an
// additional window onto the same worktree path (spec §4.F): useful for a
// second terminal onto a workspace whose agent is mid-task.
func (e *Engine) Open(ctx context.Context, args OpenArgs) (*OpenResult, error) {
	exists, err := e.Backend.WindowExists(ctx, args.Handle)
	if err != nil {
		return nil, fmt.Errorf("checking window %s: %w", args.Handle, err)
	}
	if !exists {
		return nil, fmt.Errorf("no workspace named %q", args.Handle)
	}

	windows, err := e.Backend.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	var path string
	for _, w := range windows {
		if w.Handle == args.Handle {
			path = w.Path
			break
		}
	}

	if !args.New {
		if err := e.Backend.SelectWindow(ctx, args.Handle); err != nil {
			return nil, fmt.Errorf("focusing window %s: %w", args.Handle, err)
		}
		return &OpenResult{Handle: args.Handle, Path: path}, nil
	}

	if e.Config.Mode == wmconfig.ModeSession {
		return nil, ErrSessionModeNoNewWindow
	}

	allNames, err := e.Backend.GetAllWindowNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing all window names: %w", err)
	}
	bare := StripPrefix(allNames, e.windowPrefix())
	newHandle := UniqueHandle(args.Handle, bare)

	effectiveAgent := e.Config.Agent
	setupResult, err := setup.Run(ctx, e.Backend, e.Config, "", path, newHandle, effectiveAgent, args.Options)
	if err != nil {
		return nil, fmt.Errorf("opening duplicate window for %s: %w", args.Handle, err)
	}
	_ = setupResult

	return &OpenResult{Handle: newHandle, Path: path, Window: true}, nil
}

// windowPrefix returns the configured window-name prefix used to strip
// backend-native window/session names down to bare handles.
func (e *Engine) windowPrefix() string {
	return e.Config.WindowPrefix
}
