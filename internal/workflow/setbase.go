package workflow

import (
	"context"
	"fmt"
)

// SetBase records branch's merge base explicitly (spec §4.F `set-base`),
// overriding whatever Create inferred it to be at worktree-creation time.
func (e *Engine) SetBase(ctx context.Context, handle, base string) error {
	_, branch, err := e.VCS.FindWorkspace(ctx, handle)
	if err != nil {
		return fmt.Errorf("finding workspace %q: %w", handle, err)
	}
	if !e.VCS.BranchExists(ctx, base) && !e.VCS.RemoteExists(ctx, base) {
		return fmt.Errorf("base %q is not a known local or remote branch", base)
	}
	if err := e.VCS.SetBranchBase(ctx, branch, base); err != nil {
		return fmt.Errorf("recording base %s for %s: %w", base, branch, err)
	}
	return nil
}
