package dashboard

import "github.com/workmux/workmux/internal/store"

// applyActionLocked mutates model state for a decoded action. Caller must
// hold m.mu. Returns true when the preview/table should be refreshed
// immediately rather than waiting for the next tick.
func (m *Model) applyActionLocked(d Decoded) bool {
	switch d.Action {
	case ActionShowHelp:
		m.showHelp = !m.showHelp
		return false
	case ActionQuit:
		m.quitting = true
		return false

	case ActionNext:
		if m.selected < len(m.agents)-1 {
			m.selected++
		}
		return false
	case ActionPrevious:
		if m.selected > 0 {
			m.selected--
		}
		return false
	case ActionJumpToIndex:
		if d.Index >= 0 && d.Index < len(m.agents) {
			m.selected = d.Index
		}
		return false
	case ActionJumpToSelected:
		m.jumpToSelectedLocked()
		return false
	case ActionJumpToLast:
		m.jumpToLastLocked()
		return false
	case ActionPeekSelected:
		m.loadDiffLocked(false)
		return false

	case ActionCycleSortMode:
		m.sortMode = (m.sortMode + 1) % 3
		return true
	case ActionToggleStaleFilter:
		m.staleOnly = !m.staleOnly
		return true
	case ActionEnterInputMode:
		m.inputMode = true
		return false
	case ActionExitInputMode:
		m.inputMode = false
		return false
	case ActionSendKey:
		m.sendKeysToSelectedLocked(d.Key)
		return false
	case ActionLoadWIPDiff:
		m.loadDiffLocked(false)
		return false
	case ActionSendCommitDashboard:
		m.sendKeysToSelectedLocked(m.config.Dashboard.Commit)
		return false
	case ActionTriggerMergeDashboard:
		m.sendKeysToSelectedLocked(m.config.Dashboard.Merge)
		return false

	case ActionCloseDiff:
		m.diff = nil
		return false
	case ActionScrollUp:
		m.scrollDiffLocked(-1)
		return false
	case ActionScrollDown:
		m.scrollDiffLocked(1)
		return false
	case ActionScrollPageUp:
		m.scrollDiffLocked(-m.diffPageLocked())
		return false
	case ActionScrollPageDown:
		m.scrollDiffLocked(m.diffPageLocked())
		return false
	case ActionToggleDiffType:
		if m.diff != nil {
			m.loadDiffLocked(!m.diff.IsBranchDiff)
		}
		return false
	case ActionEnterPatchMode:
		m.enterPatchModeLocked()
		return false
	case ActionSendCommitDiff:
		if m.diff != nil {
			_ = m.backend.SendKeysToAgent(m.ctx, m.diff.PaneID, m.config.Dashboard.Commit, m.config.Agent)
		}
		m.diff = nil
		return false
	case ActionTriggerMergeDiff:
		if m.diff != nil {
			_ = m.backend.SendKeysToAgent(m.ctx, m.diff.PaneID, m.config.Dashboard.Merge, m.config.Agent)
		}
		m.diff = nil
		return false

	case ActionStageAndNext:
		m.stageAndNextLocked()
		return false
	case ActionSkipHunk:
		m.skipHunkLocked()
		return false
	case ActionUndoStagedHunk:
		m.undoStagedHunkLocked()
		return false
	case ActionSplitHunk:
		m.splitCurrentHunkLocked()
		return false
	case ActionStartComment:
		if m.diff != nil && len(m.diff.Hunks) > 0 {
			empty := ""
			m.diff.CommentInput = &empty
		}
		return false
	case ActionPrevHunk:
		m.prevHunkLocked()
		return false
	case ActionNextHunk:
		m.nextHunkLocked()
		return false
	case ActionExitPatchMode:
		if m.diff != nil {
			m.diff.PatchMode = false
			m.diff.Scroll = 0
		}
		return false

	case ActionCancelComment:
		if m.diff != nil {
			m.diff.CommentInput = nil
		}
		return false
	case ActionSendComment:
		m.sendHunkCommentLocked()
		return false
	case ActionDeleteChar:
		if m.diff != nil && m.diff.CommentInput != nil && len(*m.diff.CommentInput) > 0 {
			s := (*m.diff.CommentInput)[:len(*m.diff.CommentInput)-1]
			m.diff.CommentInput = &s
		}
		return false
	case ActionAppendChar:
		if m.diff != nil && m.diff.CommentInput != nil {
			s := *m.diff.CommentInput + string(d.Char)
			m.diff.CommentInput = &s
		}
		return false
	}
	return false
}

func (m *Model) jumpToSelectedLocked() {
	if m.selected < 0 || m.selected >= len(m.agents) {
		return
	}
	_ = m.backend.SelectWindow(m.ctx, m.agents[m.selected].Handle)
}

func (m *Model) jumpToLastLocked() {
	var best *AgentRow
	for i := range m.agents {
		a := &m.agents[i]
		if a.Status != store.StatusIdle {
			continue
		}
		if best == nil || a.LastChange.After(best.LastChange) {
			best = a
		}
	}
	if best != nil {
		_ = m.backend.SelectWindow(m.ctx, best.Handle)
	}
}

func (m *Model) scrollDiffLocked(delta int) {
	if m.diff == nil {
		return
	}
	m.diff.Scroll += delta
	if m.diff.Scroll < 0 {
		m.diff.Scroll = 0
	}
}

func (m *Model) diffPageLocked() int {
	if m.diff == nil || m.diff.ViewportH <= 0 {
		return 10
	}
	return m.diff.ViewportH
}
