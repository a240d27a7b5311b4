package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/workmux/workmux/internal/style"
)

func (m *Model) render() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.diff != nil {
		return m.renderDiff()
	}
	return m.renderDashboard()
}

func (m *Model) renderDashboard() string {
	var sections []string
	sections = append(sections, m.renderTable())
	sections = append(sections, m.renderStatusBar())
	if m.showHelp {
		sections = append(sections, m.renderHelp(ContextDashboardNormal))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderTable() string {
	t := style.NewTable(
		style.Column{Name: "", Width: 2},
		style.Column{Name: "HANDLE", Width: 24},
		style.Column{Name: "BRANCH", Width: 24},
		style.Column{Name: "STATUS", Width: 10},
		style.Column{Name: "LAST CHANGE", Width: 12},
		style.Column{Name: "PR", Width: 16},
	)
	for i, a := range m.agents {
		marker := "  "
		if i == m.selected {
			marker = "▸ "
		}
		age := "-"
		if !a.LastChange.IsZero() {
			age = fmtDuration(time.Since(a.LastChange))
		}
		pr := a.PR
		if pr == "" {
			pr = "PR: -"
		}
		status := style.StatusStyle(a.Status).Render(string(a.Status))
		t.AddRow(marker, truncate(a.Handle, 24), truncate(a.Branch, 24), status, age, pr)
	}
	return t.Render()
}

func (m *Model) renderStatusBar() string {
	mode := [...]string{"handle", "status", "recency"}[m.sortMode]
	status := fmt.Sprintf("sort: %s  stale-only: %v  agents: %d", mode, m.staleOnly, len(m.agents))
	if m.inputMode {
		status = "-- INPUT MODE -- " + status
	}
	if m.err != nil {
		status = style.Error.Render(m.err.Error())
	}
	return style.Dim.Render(status) + "  " + style.Dim.Render("press ? for help")
}

func (m *Model) renderHelp(ctx Context) string {
	return m.help.View(keymapView{ctx: ctx})
}

func (m *Model) renderDiff() string {
	d := m.diff
	header := style.Bold.Render(d.Title)
	if d.PatchMode {
		header += fmt.Sprintf("  [hunk %d/%d, %d staged]", d.CurrentHunk+1, len(d.Hunks), len(d.StagedHunks))
	}

	var body string
	if d.PatchMode && len(d.Hunks) > 0 {
		body = d.Hunks[d.CurrentHunk].Patch()
	} else {
		body = d.Content
	}
	lines := strings.Split(body, "\n")
	viewportH := m.height - 4
	if viewportH < 1 {
		viewportH = 1
	}
	d.ViewportH = viewportH
	start := d.Scroll
	if start > len(lines) {
		start = len(lines)
	}
	end := start + viewportH
	if end > len(lines) {
		end = len(lines)
	}
	visible := strings.Join(lines[start:end], "\n")

	sidebar := m.renderFileList()
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, visible)

	sections := []string{header, main}
	if d.CommentInput != nil {
		sections = append(sections, m.renderCommentBox())
	}
	ctx := ContextDiffNormal
	if d.PatchMode {
		ctx = ContextPatch
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp(ctx))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderFileList renders the diff's changed-file sidebar, left-truncating
// east-asian-width-aware names that don't fit, matching the dashboard's
// review-mode file browser.
func (m *Model) renderFileList() string {
	const sidebarWidth = 28
	if m.diff == nil || len(m.diff.FileList) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range m.diff.FileList {
		name := f
		if runewidth.StringWidth(name) > sidebarWidth-2 {
			r := []rune(name)
			for len(r) > 0 && runewidth.StringWidth(string(r)) > sidebarWidth-3 {
				r = r[1:]
			}
			name = "…" + string(r)
		}
		b.WriteString("  ")
		b.WriteString(name)
		b.WriteString("\n")
	}
	return lipgloss.NewStyle().Width(sidebarWidth).Render(b.String())
}

func (m *Model) renderCommentBox() string {
	text := ""
	if m.diff.CommentInput != nil {
		text = *m.diff.CommentInput
	}
	rendered, err := glamour.Render(fmt.Sprintf("> %s", text), "dark")
	if err != nil {
		rendered = text
	}
	return style.Bold.Render("comment: ") + strings.TrimSpace(rendered)
}
