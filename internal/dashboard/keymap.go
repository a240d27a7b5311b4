package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Context selects which keymap is active, mirroring the dashboard's modal
// structure: the main table, an input-mode overlay for sending raw
// keystrokes to the focused agent, the diff viewer, patch mode within it,
// and the hunk-comment input overlay.
type Context int

const (
	ContextDashboardNormal Context = iota
	ContextDashboardInput
	ContextDiffNormal
	ContextPatch
	ContextComment
)

// binding pairs a key.Binding (used for matching and for its ShortHelp/
// bubbles/help metadata) with the Action it produces.
type binding struct {
	key.Binding
	action Action
}

var dashboardNormalBindings = []binding{
	{key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")), ActionShowHelp},
	{key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")), ActionQuit},
	{key.NewBinding(key.WithKeys("j", "down", "ctrl+n"), key.WithHelp("j/↓", "next")), ActionNext},
	{key.NewBinding(key.WithKeys("k", "up", "ctrl+p"), key.WithHelp("k/↑", "previous")), ActionPrevious},
	{key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "jump to agent")), ActionJumpToSelected},
	{key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "jump to last done")), ActionJumpToLast},
	{key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "peek")), ActionPeekSelected},
	{key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "cycle sort")), ActionCycleSortMode},
	{key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "toggle stale filter")), ActionToggleStaleFilter},
	{key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "input mode")), ActionEnterInputMode},
	{key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("C-u", "scroll preview up")), ActionScrollPreviewUp},
	{key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("C-d", "scroll preview down")), ActionScrollPreviewDown},
	{key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "grow preview")), ActionIncreasePreviewSize},
	{key.NewBinding(key.WithKeys("-", "_"), key.WithHelp("-", "shrink preview")), ActionDecreasePreviewSize},
	{key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "load WIP diff")), ActionLoadWIPDiff},
	{key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "send commit")), ActionSendCommitDashboard},
	{key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "trigger merge")), ActionTriggerMergeDashboard},
}

var diffNormalBindings = []binding{
	{key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")), ActionShowHelp},
	{key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "close diff")), ActionCloseDiff},
	{key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")), ActionQuit},
	{key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "scroll down")), ActionScrollDown},
	{key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "scroll up")), ActionScrollUp},
	{key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("PgDn", "page down")), ActionScrollPageDown},
	{key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("PgUp", "page up")), ActionScrollPageUp},
	{key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "toggle WIP/review")), ActionToggleDiffType},
	{key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "patch mode")), ActionEnterPatchMode},
	{key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "send commit")), ActionSendCommitDiff},
	{key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "trigger merge")), ActionTriggerMergeDiff},
}

var patchBindings = []binding{
	{key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")), ActionShowHelp},
	{key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("C-c", "quit")), ActionQuit},
	{key.NewBinding(key.WithKeys("ctrl+d"), key.WithHelp("C-d", "page down")), ActionScrollPageDown},
	{key.NewBinding(key.WithKeys("ctrl+u"), key.WithHelp("C-u", "page up")), ActionScrollPageUp},
	{key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "stage and next")), ActionStageAndNext},
	{key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "skip hunk")), ActionSkipHunk},
	{key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo staged hunk")), ActionUndoStagedHunk},
	{key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "split hunk")), ActionSplitHunk},
	{key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "comment")), ActionStartComment},
	{key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k", "previous hunk")), ActionPrevHunk},
	{key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j", "next hunk")), ActionNextHunk},
	{key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "send commit")), ActionSendCommitDiff},
	{key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "trigger merge")), ActionTriggerMergeDiff},
	{key.NewBinding(key.WithKeys("q", "esc"), key.WithHelp("q", "exit patch mode")), ActionExitPatchMode},
}

// Decoded carries an Action plus any payload it needs (a jump index, a
// literal key to forward, or a character to append to comment input).
type Decoded struct {
	Action Action
	Index  int
	Key    string
	Char   rune
}

// ActionForKey decodes a key message into an Action for the given context.
// Dashboard-normal and diff/patch contexts match against their bound key
// lists; input and comment contexts forward nearly every keystroke, so
// they're handled directly rather than via key.Binding.
func ActionForKey(ctx Context, msg tea.KeyMsg) Decoded {
	switch ctx {
	case ContextDashboardNormal:
		if idx, ok := digitIndex(msg.String()); ok {
			return Decoded{Action: ActionJumpToIndex, Index: idx}
		}
		return matchBindings(dashboardNormalBindings, msg)
	case ContextDashboardInput:
		return dashboardInputKey(msg)
	case ContextDiffNormal:
		return matchBindings(diffNormalBindings, msg)
	case ContextPatch:
		return matchBindings(patchBindings, msg)
	case ContextComment:
		return commentKey(msg)
	default:
		return Decoded{Action: ActionNone}
	}
}

func matchBindings(bindings []binding, msg tea.KeyMsg) Decoded {
	for _, b := range bindings {
		if key.Matches(msg, b.Binding) {
			return Decoded{Action: b.action}
		}
	}
	return Decoded{Action: ActionNone}
}

func dashboardInputKey(msg tea.KeyMsg) Decoded {
	switch msg.String() {
	case "esc":
		return Decoded{Action: ActionExitInputMode}
	case "enter":
		return Decoded{Action: ActionSendKey, Key: "Enter"}
	case "backspace":
		return Decoded{Action: ActionSendKey, Key: "BSpace"}
	case "tab":
		return Decoded{Action: ActionSendKey, Key: "Tab"}
	case "up":
		return Decoded{Action: ActionSendKey, Key: "Up"}
	case "down":
		return Decoded{Action: ActionSendKey, Key: "Down"}
	case "left":
		return Decoded{Action: ActionSendKey, Key: "Left"}
	case "right":
		return Decoded{Action: ActionSendKey, Key: "Right"}
	}
	if len(msg.Runes) == 1 {
		return Decoded{Action: ActionSendKey, Key: string(msg.Runes[0])}
	}
	return Decoded{Action: ActionNone}
}

func commentKey(msg tea.KeyMsg) Decoded {
	switch msg.String() {
	case "esc":
		return Decoded{Action: ActionCancelComment}
	case "enter":
		return Decoded{Action: ActionSendComment}
	case "backspace":
		return Decoded{Action: ActionDeleteChar}
	}
	if len(msg.Runes) == 1 {
		return Decoded{Action: ActionAppendChar, Char: msg.Runes[0]}
	}
	return Decoded{Action: ActionNone}
}

func digitIndex(s string) (int, bool) {
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '1'), true
}

// bindingsFor returns the ordered key.Binding list for a context's
// bubbles/help rendering.
func bindingsFor(ctx Context) []key.Binding {
	var src []binding
	switch ctx {
	case ContextDashboardNormal:
		src = dashboardNormalBindings
	case ContextDiffNormal:
		src = diffNormalBindings
	case ContextPatch:
		src = patchBindings
	default:
		return nil
	}
	out := make([]key.Binding, len(src))
	for i, b := range src {
		out[i] = b.Binding
	}
	return out
}

// keymapView adapts a context's bindings to bubbles/help.KeyMap.
type keymapView struct{ ctx Context }

func (k keymapView) ShortHelp() []key.Binding { return bindingsFor(k.ctx) }
func (k keymapView) FullHelp() [][]key.Binding {
	return [][]key.Binding{bindingsFor(k.ctx)}
}
