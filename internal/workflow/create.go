package workflow

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/setup"
	"github.com/workmux/workmux/internal/store"
	"github.com/workmux/workmux/internal/vcs"
)

// CreateArgs is one worktree spec's worth of `add` input — the template
// engine (D) has already expanded a multi-spec invocation into one of
// these per worktree before the workflow engine ever sees it (spec §2).
type CreateArgs struct {
	Branch       string
	ExplicitName string
	Base         string // explicit --base
	RemoteRef    string // "origin/foo", resolved from a remote branch spec
	Agent        string
	RepoRoot     string
	Options      setup.Options
}

// CreateResult is what Create materialized.
type CreateResult struct {
	Handle string
	Path   string
	Branch string
	Agent  string
}

// Create runs the `add` lifecycle transaction (spec §4.F): pre-flight
// checks, VCS worktree creation, base persistence, then the setup pipeline.
func (e *Engine) Create(ctx context.Context, args CreateArgs) (*CreateResult, error) {
	if !e.VCS.IsRepo(ctx, e.RepoRoot) {
		return nil, ErrNotARepo
	}
	if args.Base != "" && args.RemoteRef != "" {
		return nil, ErrRemoteAndBaseExclusive
	}
	if !e.Backend.IsAvailable() {
		return nil, fmt.Errorf("multiplexer backend %s is not available", e.Backend.Kind())
	}

	handle, err := DeriveHandle(args.Branch, args.ExplicitName, e.Config.WorktreeNaming)
	if err != nil {
		return nil, err
	}
	exists, err := e.Backend.WindowExists(ctx, handle)
	if err != nil {
		return nil, fmt.Errorf("checking for existing window %s: %w", handle, err)
	}
	if exists {
		return nil, fmt.Errorf("window %q already exists; pass --name to disambiguate", handle)
	}

	worktreeDir, err := e.Config.ResolveWorktreeDir(e.RepoRoot)
	if err != nil {
		return nil, err
	}
	worktreePath := filepath.Join(worktreeDir, handle)
	if e.VCS.WorktreeExists(ctx, worktreePath) {
		return nil, ErrWorktreeExists
	}

	branchExists := e.VCS.BranchExists(ctx, args.Branch)
	if branchExists && args.RemoteRef != "" {
		return nil, ErrBranchExistsWithRemote
	}

	opts := vcs.CreateWorktreeOpts{
		Path:   worktreePath,
		Branch: args.Branch,
	}

	switch {
	case args.RemoteRef != "":
		remote, _, ok := vcs.ParseRemoteBranchSpec(args.RemoteRef)
		if !ok {
			return nil, fmt.Errorf("invalid remote branch spec %q", args.RemoteRef)
		}
		if err := e.VCS.FetchRemote(ctx, remote); err != nil {
			return nil, err
		}
		opts.RemoteRef = args.RemoteRef
		opts.TrackUpstream = true
		opts.CreateNew = true
	case !branchExists:
		opts.CreateNew = true
		base := args.Base
		if base == "" {
			current, err := e.VCS.GetCurrentBranch(ctx, e.RepoRoot)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrDetachedHEADNoBase, err)
			}
			base = current
		}
		opts.Base = base
	default:
		// Branch already exists: checkout it into the new worktree as-is.
		if args.Base != "" {
			return nil, fmt.Errorf("branch %q already exists; --base is only used when creating a new branch", args.Branch)
		}
	}

	if err := e.VCS.CreateWorktree(ctx, opts); err != nil {
		return nil, fmt.Errorf("creating git worktree: %w", err)
	}

	if opts.Base != "" {
		if err := e.VCS.SetBranchBase(ctx, args.Branch, opts.Base); err != nil {
			// Best-effort: base bookkeeping failing shouldn't roll back an
			// otherwise-successful worktree creation.
			_ = err
		}
	}

	effectiveAgent := e.EffectiveAgent(args.Agent)
	setupResult, err := setup.Run(ctx, e.Backend, e.Config, args.RepoRoot, worktreePath, handle, effectiveAgent, args.Options)
	if err != nil {
		return nil, fmt.Errorf("setting up workspace %s: %w", handle, err)
	}

	if effectiveAgent != "" && setupResult.FocusPane != "" {
		rec := store.AgentRecord{
			Handle:   handle,
			Branch:   args.Branch,
			Path:     worktreePath,
			Status:   store.StatusRunning,
			LastSeen: time.Now(),
			Key: mux.PaneKey{
				Backend:  e.Backend.Kind(),
				Instance: e.Backend.InstanceID(),
				PaneID:   setupResult.FocusPane,
			},
		}
		_ = e.Store.Put(rec) // best-effort persistence (spec §7)
	}

	return &CreateResult{Handle: handle, Path: worktreePath, Branch: args.Branch, Agent: effectiveAgent}, nil
}

// CreateWithChanges is the `add --move-changes` rescue flow (spec §4.F):
// stash the main worktree's uncommitted changes, create the new worktree,
// then replay the stash onto it. A replay conflict is left unresolved in
// the new worktree rather than discarded — the stash entry survives so the
// user can recover manually, since silently dropping someone's uncommitted
// work is worse than leaving them a merge to finish.
func (e *Engine) CreateWithChanges(ctx context.Context, args CreateArgs) (*CreateResult, error) {
	dirty, err := e.VCS.HasUncommittedChanges(ctx, e.RepoRoot)
	if err != nil {
		return nil, fmt.Errorf("checking main worktree status: %w", err)
	}
	if !dirty {
		return nil, ErrNoUncommittedChanges
	}

	if err := e.VCS.StashPush(ctx, e.RepoRoot, "workmux: rescued for "+args.Branch, true, false); err != nil {
		return nil, fmt.Errorf("stashing uncommitted changes: %w", err)
	}

	result, err := e.Create(ctx, args)
	if err != nil {
		// Nothing was moved out of the main worktree yet besides the stash
		// entry; restore it so the failed create doesn't strand the user's
		// changes in the stash stack.
		if popErr := e.VCS.StashPop(ctx, e.RepoRoot); popErr != nil {
			return nil, fmt.Errorf("create failed (%w), and restoring stashed changes also failed (%v); recover with `git stash pop` in %s", err, popErr, e.RepoRoot)
		}
		return nil, err
	}

	if err := e.VCS.StashPop(ctx, result.Path); err != nil {
		return result, fmt.Errorf("workspace %s created, but replaying stashed changes failed: %w (resolve conflicts in %s, the stash entry is preserved)", result.Handle, err, result.Path)
	}

	return result, nil
}
