package store

import (
	"context"
	"fmt"
	"time"

	"github.com/workmux/workmux/internal/mux"
)

// StallThreshold is how long a pane's captured content must stay unchanged
// before it is considered stalled.
const StallThreshold = 2 * time.Minute

// Reconciler cross-checks the store against live multiplexer state on
// every read, since stored state alone is never trusted (spec §4.C).
type Reconciler struct {
	Store   *Store
	Backend mux.Backend
}

func NewReconciler(s *Store, backend mux.Backend) *Reconciler {
	return &Reconciler{Store: s, Backend: backend}
}

// Reconcile walks every live window, updates (or creates) its record from
// the backend's reality, hashes its current pane content for stall
// detection, and removes stored records for windows that no longer exist.
func (r *Reconciler) Reconcile(ctx context.Context) ([]AgentRecord, error) {
	windows, err := r.Backend.ListWindows(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing live windows: %w", err)
	}
	live := make(map[string]mux.WindowInfo, len(windows))
	for _, w := range windows {
		live[w.Handle] = w
	}

	stored, err := r.Store.List()
	if err != nil {
		return nil, fmt.Errorf("listing stored records: %w", err)
	}
	storedByHandle := make(map[string]AgentRecord, len(stored))
	for _, rec := range stored {
		storedByHandle[rec.Handle] = rec
	}

	now := time.Now()
	var result []AgentRecord

	for handle, w := range live {
		prev, hadPrev := storedByHandle[handle]
		rec := AgentRecord{
			Handle: handle,
			Key:    mux.PaneKey{Backend: r.Backend.Kind(), Instance: windowInstance(r.Backend), PaneID: w.FocusPaneID},
			Path:   w.Path,
			LastSeen: now,
		}
		if hadPrev {
			rec.Branch = prev.Branch
			rec.ShellPID = prev.ShellPID
		}

		liveInfo, err := r.Backend.LivePaneInfo(ctx, w.FocusPaneID)
		if err != nil {
			rec.Status = StatusUnknown
			result = append(result, rec)
			if err := r.Store.Put(rec); err != nil {
				return nil, err
			}
			continue
		}

		content, err := r.Backend.CapturePane(ctx, w.FocusPaneID, 200)
		hash := hashContent(content)
		switch {
		case err != nil:
			rec.Status = StatusUnknown
		case hadPrev && prev.ContentHash == hash:
			rec.ContentHash = hash
			rec.LastChange = prev.LastChange
			if now.Sub(prev.LastChange) >= StallThreshold {
				rec.Status = StatusStalled
			} else {
				rec.Status = StatusIdle
			}
		default:
			rec.ContentHash = hash
			rec.LastChange = now
			rec.Status = classifyRunning(liveInfo)
		}

		result = append(result, rec)
		if err := r.Store.Put(rec); err != nil {
			return nil, err
		}
	}

	for handle := range storedByHandle {
		if _, ok := live[handle]; !ok {
			if err := r.Store.Delete(handle); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

// classifyRunning treats a shell prompt as idle, anything else as running;
// the caller layers stall detection via content hashing on top of this.
func classifyRunning(info mux.LivePaneInfo) Status {
	switch info.CurrentCommand {
	case "bash", "zsh", "sh", "fish", "dash", "ksh":
		return StatusIdle
	case "":
		return StatusUnknown
	default:
		return StatusRunning
	}
}

func windowInstance(b mux.Backend) string {
	switch t := b.(type) {
	case *mux.TmuxBackend:
		return t.Instance
	case *mux.WezTermBackend:
		return t.Instance
	default:
		return ""
	}
}
