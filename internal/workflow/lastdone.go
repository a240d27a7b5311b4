package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/workmux/workmux/internal/store"
)

// LastDone focuses the most recently idle ("Done") agent, cycling through
// the ranked list on repeated calls with the same previous handle (spec §6
// `last-done`). Dead panes — ones whose live info can no longer be queried —
// are filtered out before ranking.
func (e *Engine) LastDone(ctx context.Context, previousHandle string) (string, error) {
	records, err := store.NewReconciler(e.Store, e.Backend).Reconcile(ctx)
	if err != nil {
		return "", fmt.Errorf("reconciling agent state: %w", err)
	}

	var candidates []store.AgentRecord
	for _, rec := range records {
		if rec.Status != store.StatusIdle {
			continue
		}
		if _, err := e.Backend.LivePaneInfo(ctx, rec.Key.PaneID); err != nil {
			continue // dead pane
		}
		candidates = append(candidates, rec)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no idle agents to focus")
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].LastChange.After(candidates[j].LastChange)
	})

	next := candidates[0].Handle
	for i, rec := range candidates {
		if rec.Handle == previousHandle {
			next = candidates[(i+1)%len(candidates)].Handle
			break
		}
	}

	if err := e.Backend.SelectWindow(ctx, next); err != nil {
		return "", fmt.Errorf("focusing window %s: %w", next, err)
	}
	return next, nil
}
