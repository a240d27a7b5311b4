// Package mux abstracts the terminal multiplexer backends (tmux, WezTerm)
// behind one capability interface, so the workflow engine and dashboard
// never hardcode a single backend's CLI (spec §4.B).
package mux

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

var (
	ErrNoServer     = errors.New("no multiplexer server running")
	ErrWindowExists = errors.New("window already exists")
	ErrWindowGone   = errors.New("window not found")
)

// BackendType selects which multiplexer implementation to use.
type BackendType int

const (
	Tmux BackendType = iota
	WezTerm
)

func (b BackendType) String() string {
	switch b {
	case WezTerm:
		return "wezterm"
	default:
		return "tmux"
	}
}

func ParseBackendType(s string) (BackendType, error) {
	switch strings.ToLower(s) {
	case "", "tmux":
		return Tmux, nil
	case "wezterm":
		return WezTerm, nil
	default:
		return 0, errors.New("unknown multiplexer backend: " + s)
	}
}

// WindowInfo describes one materialized workspace window.
type WindowInfo struct {
	Handle      string
	WindowID    string // backend-native window/tab identifier
	FocusPaneID string
	Path        string
}

// LivePaneInfo is the live-queried state of a pane, used by the agent-state
// reconciler to validate stored records against reality (spec §4.C).
type LivePaneInfo struct {
	PaneID         string
	PID            int
	CurrentCommand string
	WorkingDir     string
	Title          string
	Handle         string
}

// CreateWindowParams bundles the inputs to CreateWindow.
type CreateWindowParams struct {
	Handle string
	Path   string
	Panes  []PaneSpec
}

// PaneSpec describes one pane to materialize inside a new window.
type PaneSpec struct {
	Command     string // literal command, "<agent>" placeholder, or "" for a bare shell
	SplitVert   bool   // split vertically from the previous pane (false = horizontal)
	SizePercent int    // 0 means let the backend choose
}

// Theme controls the status-bar styling applied to a workspace window.
type Theme struct {
	StatusFG string
	StatusBG string
}

func (t Theme) Style() string {
	if t.StatusFG == "" && t.StatusBG == "" {
		return "default"
	}
	var parts []string
	if t.StatusFG != "" {
		parts = append(parts, "fg="+t.StatusFG)
	}
	if t.StatusBG != "" {
		parts = append(parts, "bg="+t.StatusBG)
	}
	return strings.Join(parts, ",")
}

// Backend is the capability set a multiplexer implementation provides.
// All workspace windows live under a single shared top-level session/gui
// instance (the "instance" component of the pane-key tuple); Handle is the
// per-window identity, matching the worktree directory basename.
type Backend interface {
	Kind() BackendType
	// Name is the backend identity string used in the pane-key tuple
	// (spec §4.B: "name() / instance_id()").
	Name() string
	// InstanceID disambiguates multiple servers of this backend on one
	// machine; for both shipped backends this is the shared instance name.
	InstanceID() string
	IsAvailable() bool

	// EnsureInstance makes sure the shared session/gui-server is running.
	EnsureInstance(ctx context.Context) error

	WindowExists(ctx context.Context, handle string) (bool, error)
	CreateWindow(ctx context.Context, params CreateWindowParams) (WindowInfo, error)
	// CreateSession materializes handle as its own standalone
	// session/window-group rather than a window inside the shared
	// instance (spec §6 `mode: session`). Cleanup of a session-mode
	// object can't be deferred onto another object in the instance, so
	// `open --new` refuses to duplicate it (spec §4.F).
	CreateSession(ctx context.Context, params CreateWindowParams) (WindowInfo, error)
	KillWindow(ctx context.Context, handle string) error
	ListWindows(ctx context.Context) ([]WindowInfo, error)
	// GetAllWindowNames returns every live window/session name (prefixed),
	// used by `open --new` to compute a unique handle suffix.
	GetAllWindowNames(ctx context.Context) ([]string, error)
	SelectWindow(ctx context.Context, handle string) error
	SelectPane(ctx context.Context, paneID string) error
	// ActivePaneID reports the caller's current focus, not env-derived
	// (spec §4.B).
	ActivePaneID(ctx context.Context) (string, error)
	// SwitchClientTo attaches the caller's client to the given window,
	// used by the deferred-close protocol before killing a window the
	// caller is currently inside.
	SwitchClientTo(ctx context.Context, handle string) error

	SendKeys(ctx context.Context, paneID, keys string) error
	SendKeysDebounced(ctx context.Context, paneID, keys string, debounce time.Duration) error
	// SendKeysToAgent is agent-aware: some agents need a delayed Enter
	// after a paste so their TUI can finish rendering the pasted text.
	SendKeysToAgent(ctx context.Context, paneID, keystroke, agent string) error
	// PasteMultiline injects literal text (e.g. a review comment) without
	// the debounced single-Enter-per-call send-keys semantics.
	PasteMultiline(ctx context.Context, paneID, text string) error
	CapturePane(ctx context.Context, paneID string, lines int) (string, error)
	LivePaneInfo(ctx context.Context, paneID string) (LivePaneInfo, error)

	ApplyTheme(ctx context.Context, handle string, theme Theme) error
	SetPaneDiedHook(ctx context.Context, handle, agentID string) error
	// ClearStatus clears the window-level status icon set by the dashboard
	// stall/status indicator.
	ClearStatus(ctx context.Context, handle string) error
	// ScheduleCloseFull schedules a deferred "select main, then kill
	// target" script after delay, so a window can clean up its own shell
	// before being killed (spec §4.F cleanup, §5 ordering guarantees).
	ScheduleCloseFull(ctx context.Context, mainHandle, targetHandle string, delay time.Duration) error

	// IsInsideInstance reports whether the calling process is itself
	// running inside a pane of this backend's shared instance.
	IsInsideInstance() bool
}

// New constructs the requested backend.
func New(kind BackendType, instanceName string) Backend {
	switch kind {
	case WezTerm:
		return NewWezTerm(instanceName)
	default:
		return NewTmux(instanceName)
	}
}

// PaneKey is the stable identity of an agent-state record: which backend,
// which shared instance, and which pane within it (spec §4.C).
type PaneKey struct {
	Backend  BackendType
	Instance string
	PaneID   string
}

func (k PaneKey) String() string {
	return k.Backend.String() + ":" + k.Instance + ":" + k.PaneID
}

// handleWindowName joins an instance's window-name prefix with a handle,
// mirroring the original implementation's prefixed() helper.
func handleWindowName(prefix, handle string) string {
	return prefix + handle
}

func baseName(path string) string {
	return filepath.Base(strings.TrimRight(path, "/"))
}
