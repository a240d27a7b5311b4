package workflow

import (
	"context"
	"fmt"

	"github.com/workmux/workmux/internal/store"
)

// WorkspaceInfo is one row of `workmux list`: the join of live VCS worktree
// state, reconciled agent-pane state, and the branch's recorded base.
type WorkspaceInfo struct {
	Handle string
	Branch string
	Base   string
	Path   string
	Status store.Status
}

// List enumerates every known workspace, reconciling the agent-state store
// against live multiplexer state before reporting (spec §4.C, §4.F): a
// worktree with no corresponding window is still listed (status unknown),
// since the window may simply not have an agent running in it.
func (e *Engine) List(ctx context.Context) ([]WorkspaceInfo, error) {
	worktrees, err := e.VCS.ListWorktrees(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing worktrees: %w", err)
	}

	mainRoot, err := e.VCS.GetMainWorktreeRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("locating main worktree: %w", err)
	}

	reconciler := store.NewReconciler(e.Store, e.Backend)
	records, err := reconciler.Reconcile(ctx)
	if err != nil {
		return nil, fmt.Errorf("reconciling agent state: %w", err)
	}
	byHandle := make(map[string]store.AgentRecord, len(records))
	for _, rec := range records {
		byHandle[rec.Handle] = rec
	}

	var out []WorkspaceInfo
	for _, wt := range worktrees {
		if wt.Path == mainRoot {
			continue
		}
		handle := Handle(wt.Path)
		info := WorkspaceInfo{
			Handle: handle,
			Branch: wt.Branch,
			Path:   wt.Path,
			Status: store.StatusUnknown,
		}
		if rec, ok := byHandle[handle]; ok {
			info.Status = rec.Status
		}
		if base, err := e.VCS.GetBranchBase(ctx, wt.Branch); err == nil {
			info.Base = base
		}
		out = append(out, info)
	}

	return out, nil
}

// Cleanup removes every workspace whose branch has already been merged into
// base (spec §4.F `cleanup`): a thin wrapper over List + GetUnmergedBranches
// + Remove, skipping anything still unmerged or currently running.
func (e *Engine) Cleanup(ctx context.Context, base string, dryRun bool) ([]string, error) {
	if base == "" {
		base = e.Config.MainBranch
	}
	if base == "" {
		base = "main"
	}

	unmerged, err := e.VCS.GetUnmergedBranches(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("computing unmerged branches against %s: %w", base, err)
	}
	unmergedSet := make(map[string]bool, len(unmerged))
	for _, b := range unmerged {
		unmergedSet[b] = true
	}

	workspaces, err := e.List(ctx)
	if err != nil {
		return nil, err
	}

	var cleaned []string
	for _, ws := range workspaces {
		if ws.Branch == "" || unmergedSet[ws.Branch] {
			continue
		}
		if ws.Status == store.StatusRunning {
			continue
		}
		if dryRun {
			cleaned = append(cleaned, ws.Handle)
			continue
		}
		if _, err := e.Remove(ctx, RemoveArgs{Handle: ws.Handle, DeleteBranch: true}); err != nil {
			return cleaned, fmt.Errorf("removing merged workspace %s: %w", ws.Handle, err)
		}
		cleaned = append(cleaned, ws.Handle)
	}

	return cleaned, nil
}
