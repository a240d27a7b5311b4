package dashboard

// Action is a decoded user intent, independent of which key produced it
// (spec §4.H). Keeping Action separate from the keymap lets the same
// intent be triggered from different contexts without duplicating logic.
type Action int

const (
	ActionNone Action = iota

	ActionShowHelp
	ActionQuit

	ActionNext
	ActionPrevious
	ActionJumpToSelected
	ActionJumpToIndex
	ActionJumpToLast
	ActionPeekSelected

	ActionCycleSortMode
	ActionToggleStaleFilter
	ActionEnterInputMode
	ActionExitInputMode
	ActionScrollPreviewUp
	ActionScrollPreviewDown
	ActionIncreasePreviewSize
	ActionDecreasePreviewSize
	ActionLoadWIPDiff
	ActionSendCommitDashboard
	ActionTriggerMergeDashboard

	ActionSendKey

	ActionCloseDiff
	ActionScrollUp
	ActionScrollDown
	ActionScrollPageUp
	ActionScrollPageDown
	ActionToggleDiffType
	ActionEnterPatchMode
	ActionSendCommitDiff
	ActionTriggerMergeDiff

	ActionStageAndNext
	ActionSkipHunk
	ActionUndoStagedHunk
	ActionSplitHunk
	ActionStartComment
	ActionPrevHunk
	ActionNextHunk
	ActionExitPatchMode

	ActionCancelComment
	ActionSendComment
	ActionDeleteChar
	ActionAppendChar
)
