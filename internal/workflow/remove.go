package workflow

import (
	"context"
	"fmt"

	"github.com/workmux/workmux/internal/setup"
)

// RemoveArgs identifies a workspace to tear down.
type RemoveArgs struct {
	Handle       string
	DeleteBranch bool
	Force        bool // skip the uncommitted-changes guard
}

// RemoveResult reports how the teardown was carried out.
type RemoveResult struct {
	Handle          string
	BranchDeleted   bool
	DeferredClosing bool // caller was inside the window being killed
}

// Remove tears down a workspace (spec §4.F cleanup): runs pre_delete hooks,
// kills the multiplexer window/session, removes the git worktree, optionally
// deletes the branch, and drops the agent-state record. If the caller is
// currently attached inside the window being removed, the kill is deferred
// via ScheduleCloseFull instead of running synchronously, so the window's
// own shell can finish exiting workmux before it gets killed out from under
// itself.
func (e *Engine) Remove(ctx context.Context, args RemoveArgs) (*RemoveResult, error) {
	path, branch, err := e.VCS.FindWorkspace(ctx, args.Handle)
	if err != nil {
		return nil, fmt.Errorf("finding workspace %q: %w", args.Handle, err)
	}

	mainRoot, err := e.VCS.GetMainWorktreeRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("locating main worktree: %w", err)
	}
	if path == mainRoot {
		return nil, ErrCannotRemoveMainWorktree
	}
	if args.DeleteBranch && branch == e.Config.MainBranch {
		return nil, ErrCannotRemoveMainBranch
	}

	if !args.Force {
		dirty, err := e.VCS.HasUncommittedChanges(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("checking workspace %s status: %w", args.Handle, err)
		}
		if dirty {
			return nil, fmt.Errorf("workspace %s has uncommitted changes; pass --force to remove anyway", args.Handle)
		}
	}

	if len(e.Config.PreDelete) > 0 {
		if err := setup.RunHooks(ctx, path, e.Config.PreDelete); err != nil {
			return nil, fmt.Errorf("running pre-delete hooks for %s: %w", args.Handle, err)
		}
	}

	result := &RemoveResult{Handle: args.Handle}

	insideTarget, err := e.isInsideWindow(ctx, args.Handle)
	if err != nil {
		insideTarget = false
	}
	if insideTarget {
		fallback, err := e.anotherWindowHandle(ctx, args.Handle)
		if err != nil {
			return nil, fmt.Errorf("finding a window to switch to before closing %s: %w", args.Handle, err)
		}
		if err := e.Backend.ScheduleCloseFull(ctx, fallback, args.Handle, deferredCloseDelay); err != nil {
			return nil, fmt.Errorf("scheduling deferred close for %s: %w", args.Handle, err)
		}
		result.DeferredClosing = true
	} else {
		if err := e.Backend.KillWindow(ctx, args.Handle); err != nil {
			return nil, fmt.Errorf("killing window %s: %w", args.Handle, err)
		}
	}

	if err := e.VCS.PruneWorktrees(ctx); err != nil {
		return nil, fmt.Errorf("pruning worktree for %s: %w", args.Handle, err)
	}

	if args.DeleteBranch {
		if err := e.VCS.DeleteBranch(ctx, branch, args.Force); err != nil {
			return result, fmt.Errorf("workspace %s removed, but deleting branch %s failed: %w", args.Handle, branch, err)
		}
		result.BranchDeleted = true
	}

	_ = e.Store.Delete(args.Handle)

	return result, nil
}

// isInsideWindow reports whether the caller's active pane, per the
// backend's own notion of focus, lives inside handle's window.
func (e *Engine) isInsideWindow(ctx context.Context, handle string) (bool, error) {
	if !e.Backend.IsInsideInstance() {
		return false, nil
	}
	windows, err := e.Backend.ListWindows(ctx)
	if err != nil {
		return false, err
	}
	activePane, err := e.Backend.ActivePaneID(ctx)
	if err != nil {
		return false, err
	}
	for _, w := range windows {
		if w.Handle != handle {
			continue
		}
		info, err := e.Backend.LivePaneInfo(ctx, activePane)
		if err != nil {
			return false, nil
		}
		return info.Handle == handle, nil
	}
	return false, nil
}

// anotherWindowHandle finds a live window other than exclude to switch the
// caller's client to before its own window is killed. Falls back to exclude
// itself if it's the only window, making the subsequent select a harmless
// no-op immediately before the kill.
func (e *Engine) anotherWindowHandle(ctx context.Context, exclude string) (string, error) {
	windows, err := e.Backend.ListWindows(ctx)
	if err != nil {
		return "", err
	}
	for _, w := range windows {
		if w.Handle != exclude {
			return w.Handle, nil
		}
	}
	return exclude, nil
}
