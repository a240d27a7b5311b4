package dashboard

import (
	"fmt"
	"strings"

	"github.com/workmux/workmux/internal/difftool"
)

// loadDiffLocked loads the diff for the selected agent: HEAD (including
// untracked files) for the WIP view, or base...HEAD (excluding untracked)
// for the review view. Caller must hold m.mu.
func (m *Model) loadDiffLocked(branchDiff bool) {
	if m.selected < 0 || m.selected >= len(m.agents) {
		return
	}
	agent := m.agents[m.selected]

	revSpec, title := "HEAD", "WIP: "+agent.Handle
	includeUntracked := true
	if branchDiff {
		base, _ := m.vcsImpl.GetBranchBase(m.ctx, agent.Branch)
		if base == "" {
			base = m.config.MainBranch
		}
		if base == "" {
			base = "main"
		}
		revSpec = base + "...HEAD"
		title = fmt.Sprintf("Review: %s → %s", agent.Handle, base)
		includeUntracked = false
	}

	content, err := m.vcsImpl.Diff(m.ctx, agent.Path, revSpec, includeUntracked)
	if err != nil {
		m.diff = &DiffView{Content: err.Error(), Title: "Error", WorktreePath: agent.Path, PaneID: agent.PaneID}
		return
	}
	if strings.TrimSpace(content) == "" {
		msg := "No uncommitted changes"
		if branchDiff {
			msg = "No commits on this branch yet"
		}
		content = msg
	}

	fileList := extractFileList(content)
	m.diff = &DiffView{
		Content:      content,
		Title:        title,
		WorktreePath: agent.Path,
		PaneID:       agent.PaneID,
		IsBranchDiff: branchDiff,
		FileList:     fileList,
	}
}

// reloadUnstagedDiffLocked refreshes the diff view to show only unstaged
// changes and their parsed hunks, used when entering or re-entering patch
// mode so staged hunks never reappear as candidates.
func (m *Model) reloadUnstagedDiffLocked() {
	if m.diff == nil {
		return
	}
	worktreeName := strings.TrimPrefix(m.diff.Title, "WIP: ")
	content, err := m.vcsImpl.Diff(m.ctx, m.diff.WorktreePath, "", false)
	if err != nil {
		m.diff.Content = err.Error()
		m.diff.Hunks = nil
		return
	}
	hunks := difftool.ParseHunks(content)
	if strings.TrimSpace(content) == "" {
		content = "No uncommitted changes"
	}
	m.diff.Content = content
	m.diff.Title = "WIP: " + worktreeName
	m.diff.Hunks = hunks
	m.diff.FileList = extractFileList(content)
}

func (m *Model) enterPatchModeLocked() {
	if m.diff == nil || m.diff.IsBranchDiff {
		return
	}
	m.reloadUnstagedDiffLocked()
	if len(m.diff.Hunks) == 0 {
		return
	}
	m.diff.PatchMode = true
	m.diff.CurrentHunk = 0
	m.diff.Scroll = 0
	m.diff.HunksTotal = len(m.diff.Hunks)
	m.diff.HunksProcess = 0
	m.diff.StagedHunks = nil
}

func (m *Model) nextHunkLocked() bool {
	if m.diff == nil || !m.diff.PatchMode {
		return false
	}
	if m.diff.CurrentHunk+1 < len(m.diff.Hunks) {
		m.diff.CurrentHunk++
		m.diff.Scroll = 0
		return true
	}
	return false
}

func (m *Model) prevHunkLocked() {
	if m.diff == nil || !m.diff.PatchMode || m.diff.CurrentHunk == 0 {
		return
	}
	m.diff.CurrentHunk--
	m.diff.Scroll = 0
}

// stageAndNextLocked applies the current hunk with `git apply --cached
// --recount --3way` and advances, removing the hunk from the in-memory
// list so a split survives without a round-trip through git.
func (m *Model) stageAndNextLocked() {
	if m.diff == nil || !m.diff.PatchMode || len(m.diff.Hunks) == 0 {
		return
	}
	hunk := m.diff.Hunks[m.diff.CurrentHunk]
	if err := m.vcsImpl.ApplyPatch(m.ctx, m.diff.WorktreePath, []byte(hunk.Patch()), true, false, true); err != nil {
		m.err = err
		return
	}

	m.diff.Hunks = append(m.diff.Hunks[:m.diff.CurrentHunk], m.diff.Hunks[m.diff.CurrentHunk+1:]...)
	m.diff.StagedHunks = append(m.diff.StagedHunks, hunk)
	m.diff.HunksProcess++
	if m.diff.CurrentHunk >= len(m.diff.Hunks) && len(m.diff.Hunks) > 0 {
		m.diff.CurrentHunk = len(m.diff.Hunks) - 1
	}
	m.diff.Scroll = 0

	if len(m.diff.Hunks) == 0 {
		m.reloadUnstagedDiffLocked()
		if len(m.diff.Hunks) > 0 {
			m.diff.PatchMode = true
			m.diff.CurrentHunk = 0
		} else {
			m.diff.PatchMode = false
		}
	}
}

func (m *Model) skipHunkLocked() {
	if m.diff != nil {
		m.diff.HunksProcess++
	}
	if !m.nextHunkLocked() {
		if m.diff != nil {
			m.diff.PatchMode = false
			m.diff.Scroll = 0
		}
	}
}

// undoStagedHunkLocked reverses the last staged hunk with `git apply
// --cached --reverse` and restores it to the candidate list.
func (m *Model) undoStagedHunkLocked() {
	if m.diff == nil || !m.diff.PatchMode || len(m.diff.StagedHunks) == 0 {
		return
	}
	hunk := m.diff.StagedHunks[len(m.diff.StagedHunks)-1]
	if err := m.vcsImpl.ApplyPatch(m.ctx, m.diff.WorktreePath, []byte(hunk.Patch()), true, true, false); err != nil {
		m.err = err
		return
	}
	m.diff.StagedHunks = m.diff.StagedHunks[:len(m.diff.StagedHunks)-1]
	m.diff.Hunks = append([]difftool.Hunk{hunk}, m.diff.Hunks...)
	m.diff.CurrentHunk = 0
	if m.diff.HunksProcess > 0 {
		m.diff.HunksProcess--
	}
	m.diff.Scroll = 0
}

func (m *Model) splitCurrentHunkLocked() bool {
	if m.diff == nil || !m.diff.PatchMode || len(m.diff.Hunks) == 0 {
		return false
	}
	idx := m.diff.CurrentHunk
	sub := m.diff.Hunks[idx].Split()
	if len(sub) <= 1 {
		return false
	}
	rest := append([]difftool.Hunk{}, m.diff.Hunks[idx+1:]...)
	m.diff.Hunks = append(m.diff.Hunks[:idx], append(sub, rest...)...)
	m.diff.HunksTotal += len(sub) - 1
	m.diff.Scroll = 0
	return true
}

// sendHunkCommentLocked pastes a formatted review comment (file, line, the
// hunk body fenced in a code block, then the comment text) into the
// agent's pane, widening the code fence if the hunk body itself contains
// one.
func (m *Model) sendHunkCommentLocked() {
	if m.diff == nil || m.diff.CommentInput == nil || len(m.diff.Hunks) == 0 {
		return
	}
	comment := strings.TrimSpace(*m.diff.CommentInput)
	m.diff.CommentInput = nil
	if comment == "" {
		return
	}

	hunk := m.diff.Hunks[m.diff.CurrentHunk]
	_, newStart, ok := difftool.ParseHunkHeader(hunk.HunkBody)
	if !ok {
		newStart = 1
	}
	fence := "```"
	for strings.Contains(hunk.HunkBody, fence) {
		fence += "`"
	}
	message := fmt.Sprintf("%s:%d\n\n%sdiff\n%s\n%s\n\n%s", hunk.Filename, newStart, fence, hunk.HunkBody, fence, comment)

	_ = m.backend.PasteMultiline(m.ctx, m.diff.PaneID, message)
	_ = m.backend.SendKeys(m.ctx, m.diff.PaneID, "")
}

// extractFileList pulls the list of changed file paths out of a unified
// diff's `diff --git a/X b/Y` header lines, in first-seen order.
func extractFileList(diff string) []string {
	var files []string
	seen := map[string]bool{}
	for _, line := range strings.Split(diff, "\n") {
		if !strings.HasPrefix(line, "diff --git ") {
			continue
		}
		parts := strings.SplitN(line, " b/", 2)
		if len(parts) != 2 {
			continue
		}
		f := parts[1]
		if !seen[f] {
			seen[f] = true
			files = append(files, f)
		}
	}
	return files
}
