package style

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/workmux/workmux/internal/store"
)

// StatusStyle returns the color a `list`/dashboard status column renders a
// reconciled agent status in, shared between the CLI table and the TUI.
func StatusStyle(status store.Status) lipgloss.Style {
	switch status {
	case store.StatusRunning:
		return Success
	case store.StatusStalled, store.StatusCrashed:
		return Error
	case store.StatusIdle:
		return Info
	default:
		return Dim
	}
}

// WorkspaceTable builds the HANDLE/BRANCH/BASE/STATUS/PATH table `workmux
// list` renders (spec §6: "tabular output"), with the STATUS column
// colored per StatusStyle.
func WorkspaceTable() *Table {
	return NewTable(
		Column{Name: "HANDLE", Width: 24},
		Column{Name: "BRANCH", Width: 24},
		Column{Name: "BASE", Width: 20},
		Column{Name: "STATUS", Width: 10},
		Column{Name: "PATH", Width: 40},
	)
}

// AddWorkspaceRow appends a row to a WorkspaceTable, coloring status per
// StatusStyle rather than leaving every row plain text.
func AddWorkspaceRow(t *Table, handle, branch, base string, status store.Status, path string) {
	t.AddRow(handle, branch, base, StatusStyle(status).Render(string(status)), path)
}
