// Package vcs abstracts version-control worktree, branch, and remote
// operations behind a single capability interface (spec §4.A), so the
// workflow engine never shells out to git directly.
package vcs

import "context"

// Worktree describes one entry from `git worktree list`.
type Worktree struct {
	Path   string
	Branch string // "" for a detached-HEAD worktree
	Head   string // commit SHA
}

// VCS is the capability set the workflow engine, dashboard, and setup
// pipeline depend on. The only implementation shipped is Git, but the
// interface keeps the dependency explicit and mockable in tests.
type VCS interface {
	IsRepo(ctx context.Context, dir string) bool
	ListWorktrees(ctx context.Context) ([]Worktree, error)
	FindWorkspace(ctx context.Context, name string) (path, branch string, err error)

	CreateWorktree(ctx context.Context, opts CreateWorktreeOpts) error
	BranchExists(ctx context.Context, branch string) bool
	WorktreeExists(ctx context.Context, path string) bool
	GetCurrentBranch(ctx context.Context, dir string) (string, error)
	GetMainWorktreeRoot(ctx context.Context) (string, error)
	PruneWorktrees(ctx context.Context) error
	DeleteBranch(ctx context.Context, name string, force bool) error

	HasUncommittedChanges(ctx context.Context, path string) (bool, error)
	HasUnstagedChanges(ctx context.Context, path string) (bool, error)
	HasStagedChanges(ctx context.Context, path string) (bool, error)

	StashPush(ctx context.Context, path, message string, includeUntracked, patch bool) error
	StashPop(ctx context.Context, path string) error
	ResetHard(ctx context.Context, path string) error
	CommitWithEditor(ctx context.Context, path string) error

	SwitchBranchInWorktree(ctx context.Context, path, branch string) error
	MergeInWorktree(ctx context.Context, path, branch string) error
	MergeSquashInWorktree(ctx context.Context, path, branch string) error
	RebaseBranchOntoBase(ctx context.Context, path, base string) error

	FetchRemote(ctx context.Context, remote string) error
	RemoteExists(ctx context.Context, remote string) bool
	ListRemotes(ctx context.Context) ([]string, error)

	GetMergeBase(ctx context.Context, a, b string) (string, error)
	GetUnmergedBranches(ctx context.Context, base string) ([]string, error)

	SetBranchBase(ctx context.Context, branch, base string) error
	GetBranchBase(ctx context.Context, branch string) (string, error)

	EnsureForkRemote(ctx context.Context, owner string) error

	// Diff produces a clean (color-disabled) diff for the patch-mode and
	// dashboard preview machinery. revSpec is e.g. "HEAD" or "main...HEAD";
	// empty means unstaged-only (used by patch mode's `add -p` semantics).
	Diff(ctx context.Context, path, revSpec string, includeUntracked bool) (string, error)
	ApplyPatch(ctx context.Context, path string, patch []byte, cached, reverse, threeWay bool) error
}

// CreateWorktreeOpts bundles the create_worktree contract from §4.A: a
// remote ref and an explicit base are mutually exclusive, and create_new
// with no base defaults to the current branch.
type CreateWorktreeOpts struct {
	Path          string
	Branch        string
	CreateNew     bool
	Base          string // explicit --base, or "" to default per contract
	TrackUpstream bool
	RemoteRef     string // e.g. "origin/foo", set when resolved from a remote spec
}
