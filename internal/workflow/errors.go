package workflow

import "errors"

// Precondition violations (spec §7): reported to the user verbatim, exit 1,
// no rollback needed because no mutation happened yet.
var (
	ErrNotARepo               = errors.New("not in a git repository")
	ErrWorktreeExists          = errors.New("a worktree already exists for this branch")
	ErrBranchExistsWithRemote  = errors.New("branch already exists locally; cannot combine with a remote ref")
	ErrMainWorktreeDirty       = errors.New("the main worktree has uncommitted changes")
	ErrDetachedHEADNoBase      = errors.New("main worktree is in detached HEAD state; pass --base explicitly")
	ErrCannotRemoveMainWorktree = errors.New("cannot remove the main worktree")
	ErrCannotRemoveMainBranch  = errors.New("cannot remove the main branch")
	ErrNameConflictsWithMulti  = errors.New("--name cannot combine with multi-spec generation (--count, --foreach, or multiple --agent)")
	ErrRemoteAndBaseExclusive  = errors.New("a remote branch spec and an explicit --base are mutually exclusive")
	ErrNoUncommittedChanges    = errors.New("no uncommitted changes to rescue")
	ErrSessionModeNoNewWindow  = errors.New("--new is not supported in session mode: duplicate sessions would be orphaned on cleanup")
	ErrMergeTargetIsMain       = errors.New("cannot merge a branch into itself")
)
