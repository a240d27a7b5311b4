package workflow

import (
	"context"
	"fmt"
)

// Close terminates a workspace's multiplexer window/session without
// touching its worktree (spec §6 `close`): the inverse of `open`, for
// reclaiming multiplexer real estate while keeping the branch checked out.
func (e *Engine) Close(ctx context.Context, handle string) (deferredClosing bool, err error) {
	exists, err := e.Backend.WindowExists(ctx, handle)
	if err != nil {
		return false, fmt.Errorf("checking window %s: %w", handle, err)
	}
	if !exists {
		return false, fmt.Errorf("no open window named %q", handle)
	}

	insideTarget, err := e.isInsideWindow(ctx, handle)
	if err != nil {
		insideTarget = false
	}
	if insideTarget {
		fallback, err := e.anotherWindowHandle(ctx, handle)
		if err != nil {
			return false, fmt.Errorf("finding a window to switch to before closing %s: %w", handle, err)
		}
		if err := e.Backend.ScheduleCloseFull(ctx, fallback, handle, deferredCloseDelay); err != nil {
			return false, fmt.Errorf("scheduling deferred close for %s: %w", handle, err)
		}
		return true, nil
	}

	if err := e.Backend.KillWindow(ctx, handle); err != nil {
		return false, fmt.Errorf("killing window %s: %w", handle, err)
	}
	_ = e.Store.Delete(handle)
	return false, nil
}
