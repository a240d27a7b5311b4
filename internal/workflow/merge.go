package workflow

import (
	"context"
	"fmt"
	"time"
)

// MergeStrategy selects how a workspace branch is folded back into its base.
type MergeStrategy string

const (
	MergeDefault MergeStrategy = "merge"
	MergeSquash  MergeStrategy = "squash"
	MergeRebase  MergeStrategy = "rebase"
)

// MergeArgs identifies the workspace to merge and how.
type MergeArgs struct {
	Handle            string
	Strategy          MergeStrategy
	DeleteAfter       bool // fold the `remove` step into the merge (spec §6 `remove` after merge)
	IgnoreUncommitted bool // spec §6 `merge --ignore-uncommitted`: skip the staged-changes auto-commit
}

// MergeResult reports the outcome, including whether the source workspace's
// window was scheduled for a deferred close because the caller was inside it.
type MergeResult struct {
	Branch          string
	Base            string
	Removed         bool
	DeferredClosing bool
}

// Merge folds a workspace's branch back into its recorded base (spec §4.F,
// supplemented by the original's merge.rs ordering): the main worktree must
// itself be clean, unstaged changes in the source workspace always reject
// outright, and staged changes there are auto-committed via $EDITOR unless
// --ignore-uncommitted is set. Rebase replays the branch onto base in its
// own worktree before fast-forwarding base; squash and default merge happen
// in the main worktree, which is explicitly switched onto base first so the
// merge target is never ambiguous. When the branch has no recorded base,
// the configured main branch is used.
func (e *Engine) Merge(ctx context.Context, args MergeArgs) (*MergeResult, error) {
	mainRoot, err := e.VCS.GetMainWorktreeRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("locating main worktree: %w", err)
	}
	mainDirty, err := e.VCS.HasUncommittedChanges(ctx, mainRoot)
	if err != nil {
		return nil, fmt.Errorf("checking main worktree status: %w", err)
	}
	if mainDirty {
		return nil, ErrMainWorktreeDirty
	}

	path, branch, err := e.VCS.FindWorkspace(ctx, args.Handle)
	if err != nil {
		return nil, fmt.Errorf("finding workspace %q: %w", args.Handle, err)
	}

	base, err := e.VCS.GetBranchBase(ctx, branch)
	if err != nil || base == "" {
		base = e.Config.MainBranch
	}
	if base == "" {
		base = "main"
	}
	if branch == base {
		return nil, ErrMergeTargetIsMain
	}

	unstaged, err := e.VCS.HasUnstagedChanges(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("checking workspace %s status: %w", args.Handle, err)
	}
	if unstaged {
		return nil, fmt.Errorf("workspace %s has unstaged changes; commit or stash before merging", args.Handle)
	}

	if !args.IgnoreUncommitted {
		staged, err := e.VCS.HasStagedChanges(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("checking workspace %s status: %w", args.Handle, err)
		}
		if staged {
			if err := e.VCS.CommitWithEditor(ctx, path); err != nil {
				return nil, fmt.Errorf("committing staged changes in %s before merge: %w", args.Handle, err)
			}
		}
	}

	switch args.Strategy {
	case MergeRebase:
		if err := e.VCS.RebaseBranchOntoBase(ctx, path, base); err != nil {
			return nil, fmt.Errorf("rebasing %s onto %s: %w", branch, base, err)
		}
		if err := e.VCS.SwitchBranchInWorktree(ctx, mainRoot, base); err != nil {
			return nil, fmt.Errorf("switching main worktree to %s: %w", base, err)
		}
		if err := e.VCS.MergeInWorktree(ctx, mainRoot, branch); err != nil {
			return nil, fmt.Errorf("fast-forwarding %s onto rebased %s: %w", base, branch, err)
		}
	case MergeSquash:
		if err := e.VCS.SwitchBranchInWorktree(ctx, mainRoot, base); err != nil {
			return nil, fmt.Errorf("switching main worktree to %s: %w", base, err)
		}
		if err := e.VCS.MergeSquashInWorktree(ctx, mainRoot, branch); err != nil {
			return nil, fmt.Errorf("squash-merging %s into %s: %w", branch, base, err)
		}
		if err := e.VCS.CommitWithEditor(ctx, mainRoot); err != nil {
			return nil, fmt.Errorf("committing squash merge: %w", err)
		}
	default:
		if err := e.VCS.SwitchBranchInWorktree(ctx, mainRoot, base); err != nil {
			return nil, fmt.Errorf("switching main worktree to %s: %w", base, err)
		}
		if err := e.VCS.MergeInWorktree(ctx, mainRoot, branch); err != nil {
			return nil, fmt.Errorf("merging %s into %s: %w", branch, base, err)
		}
	}

	result := &MergeResult{Branch: branch, Base: base}

	if args.DeleteAfter {
		removeResult, err := e.Remove(ctx, RemoveArgs{Handle: args.Handle, DeleteBranch: true})
		if err != nil {
			return result, fmt.Errorf("merge succeeded, but removing workspace %s failed: %w", args.Handle, err)
		}
		result.Removed = true
		result.DeferredClosing = removeResult.DeferredClosing
	}

	return result, nil
}

// deferredCloseDelay is how long ScheduleCloseFull waits before killing a
// window the caller was inside, giving the calling shell time to exit the
// workmux process and return control to the terminal (spec §5 ordering).
const deferredCloseDelay = 400 * time.Millisecond
