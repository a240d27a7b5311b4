package mux

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// WezTermBackend drives WezTerm through its `wezterm cli` subcommands.
// A "window" in this package's vocabulary maps onto a WezTerm tab within
// the shared workspace named by Instance, keeping the same handle-based
// addressing the tmux backend uses.
type WezTermBackend struct {
	Instance string
	Prefix   string
}

func NewWezTerm(instance string) *WezTermBackend {
	return &WezTermBackend{Instance: instance, Prefix: "wm-"}
}

func (w *WezTermBackend) Kind() BackendType  { return WezTerm }
func (w *WezTermBackend) Name() string       { return "wezterm" }
func (w *WezTermBackend) InstanceID() string { return w.Instance }

func (w *WezTermBackend) IsAvailable() bool {
	return exec.Command("wezterm", "--version").Run() == nil
}

func (w *WezTermBackend) IsInsideInstance() bool {
	return os.Getenv("WEZTERM_PANE") != ""
}

type weztermPane struct {
	WindowID  int    `json:"window_id"`
	TabID     int    `json:"tab_id"`
	PaneID    int    `json:"pane_id"`
	Workspace string `json:"workspace"`
	Title     string `json:"title"`
	Cwd       string `json:"cwd"`
	IsActive  bool   `json:"is_active"`
}

func (w *WezTermBackend) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "wezterm", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", fmt.Errorf("wezterm %s: %s", strings.Join(args, " "), stderrStr)
		}
		return "", fmt.Errorf("wezterm %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

func (w *WezTermBackend) listPanes(ctx context.Context) ([]weztermPane, error) {
	out, err := w.run(ctx, "cli", "list", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("listing wezterm panes: %w", err)
	}
	var panes []weztermPane
	if err := json.Unmarshal([]byte(out), &panes); err != nil {
		return nil, fmt.Errorf("parsing wezterm pane list: %w", err)
	}
	var filtered []weztermPane
	for _, p := range panes {
		if p.Workspace == w.Instance {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (w *WezTermBackend) EnsureInstance(ctx context.Context) error {
	panes, err := w.listPanes(ctx)
	if err != nil {
		return err
	}
	if len(panes) > 0 {
		return nil
	}
	_, err = w.run(ctx, "cli", "spawn", "--workspace", w.Instance)
	return err
}

func (w *WezTermBackend) paneTitle(handle string) string {
	return handleWindowName(w.Prefix, handle)
}

func (w *WezTermBackend) findPane(ctx context.Context, handle string) (weztermPane, bool, error) {
	panes, err := w.listPanes(ctx)
	if err != nil {
		return weztermPane{}, false, err
	}
	title := w.paneTitle(handle)
	for _, p := range panes {
		if p.Title == title {
			return p, true, nil
		}
	}
	return weztermPane{}, false, nil
}

func (w *WezTermBackend) WindowExists(ctx context.Context, handle string) (bool, error) {
	_, ok, err := w.findPane(ctx, handle)
	return ok, err
}

func (w *WezTermBackend) CreateWindow(ctx context.Context, params CreateWindowParams) (WindowInfo, error) {
	if err := w.EnsureInstance(ctx); err != nil {
		return WindowInfo{}, fmt.Errorf("ensuring wezterm instance: %w", err)
	}
	title := w.paneTitle(params.Handle)
	args := []string{"cli", "spawn", "--workspace", w.Instance}
	if params.Path != "" {
		args = append(args, "--cwd", params.Path)
	}
	out, err := w.run(ctx, args...)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("spawning wezterm tab for %s: %w", title, err)
	}
	paneID := strings.TrimSpace(out)
	if err := w.setPaneTitle(ctx, paneID, title); err != nil {
		return WindowInfo{}, err
	}

	for i, pane := range params.Panes {
		if i == 0 {
			if pane.Command != "" {
				if err := w.SendKeys(ctx, paneID, pane.Command); err != nil {
					return WindowInfo{}, err
				}
			}
			continue
		}
		splitArgs := []string{"cli", "split-pane", "--pane-id", paneID}
		if pane.SplitVert {
			splitArgs = append(splitArgs, "--horizontal")
		}
		if pane.SizePercent > 0 {
			splitArgs = append(splitArgs, "--percent", strconv.Itoa(pane.SizePercent))
		}
		if params.Path != "" {
			splitArgs = append(splitArgs, "--cwd", params.Path)
		}
		newOut, err := w.run(ctx, splitArgs...)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("splitting wezterm pane for %s: %w", title, err)
		}
		newPaneID := strings.TrimSpace(newOut)
		if pane.Command != "" {
			if err := w.SendKeys(ctx, newPaneID, pane.Command); err != nil {
				return WindowInfo{}, err
			}
		}
	}

	return WindowInfo{Handle: params.Handle, WindowID: paneID, FocusPaneID: paneID, Path: params.Path}, nil
}

// CreateSession spawns a new WezTerm workspace of its own rather than a tab
// inside the shared Instance workspace (spec §6 `mode: session`).
func (w *WezTermBackend) CreateSession(ctx context.Context, params CreateWindowParams) (WindowInfo, error) {
	title := w.paneTitle(params.Handle)
	workspace := w.Instance + "-" + params.Handle
	args := []string{"cli", "spawn", "--workspace", workspace}
	if params.Path != "" {
		args = append(args, "--cwd", params.Path)
	}
	out, err := w.run(ctx, args...)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("spawning wezterm session workspace for %s: %w", title, err)
	}
	paneID := strings.TrimSpace(out)
	if err := w.setPaneTitle(ctx, paneID, title); err != nil {
		return WindowInfo{}, err
	}
	for i, pane := range params.Panes {
		if i == 0 {
			if pane.Command != "" {
				if err := w.SendKeys(ctx, paneID, pane.Command); err != nil {
					return WindowInfo{}, err
				}
			}
			continue
		}
		splitArgs := []string{"cli", "split-pane", "--pane-id", paneID}
		if pane.SplitVert {
			splitArgs = append(splitArgs, "--horizontal")
		}
		if pane.SizePercent > 0 {
			splitArgs = append(splitArgs, "--percent", strconv.Itoa(pane.SizePercent))
		}
		newOut, err := w.run(ctx, splitArgs...)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("splitting wezterm session pane for %s: %w", title, err)
		}
		newPaneID := strings.TrimSpace(newOut)
		if pane.Command != "" {
			if err := w.SendKeys(ctx, newPaneID, pane.Command); err != nil {
				return WindowInfo{}, err
			}
		}
	}
	return WindowInfo{Handle: params.Handle, WindowID: paneID, FocusPaneID: paneID, Path: params.Path}, nil
}

// GetAllWindowNames returns every pane title across every workspace (not
// just Instance), so `open --new` can spot collisions with session-mode
// workspaces living in their own workspace too.
func (w *WezTermBackend) GetAllWindowNames(ctx context.Context) ([]string, error) {
	out, err := w.run(ctx, "cli", "list", "--format", "json")
	if err != nil {
		return nil, fmt.Errorf("listing wezterm panes: %w", err)
	}
	var panes []weztermPane
	if err := json.Unmarshal([]byte(out), &panes); err != nil {
		return nil, fmt.Errorf("parsing wezterm pane list: %w", err)
	}
	var names []string
	for _, p := range panes {
		if p.Title != "" {
			names = append(names, p.Title)
		}
	}
	return names, nil
}

func (w *WezTermBackend) SelectPane(ctx context.Context, paneID string) error {
	id, err := strconv.Atoi(paneID)
	if err != nil {
		return fmt.Errorf("invalid wezterm pane id %q: %w", paneID, err)
	}
	_, err = w.run(ctx, "cli", "activate-pane", "--pane-id", strconv.Itoa(id))
	return err
}

func (w *WezTermBackend) ActivePaneID(ctx context.Context) (string, error) {
	panes, err := w.listPanes(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range panes {
		if p.IsActive {
			return strconv.Itoa(p.PaneID), nil
		}
	}
	return "", fmt.Errorf("no active wezterm pane found")
}

// SendKeysToAgent sends a single keystroke, pausing first for agents whose
// TUI needs time to settle after a paste before it'll accept submit.
func (w *WezTermBackend) SendKeysToAgent(ctx context.Context, paneID, keystroke, agent string) error {
	if agentNeedsSubmitDelay(agent) {
		time.Sleep(300 * time.Millisecond)
	}
	cmd := exec.CommandContext(ctx, "wezterm", "cli", "send-text", "--pane-id", paneID, "--no-paste")
	cmd.Stdin = strings.NewReader(keystroke)
	return cmd.Run()
}

// PasteMultiline sends text through WezTerm's bracketed-paste-aware
// send-text (the default, without --no-paste), delivering it as one paste
// event instead of per-line keystrokes.
func (w *WezTermBackend) PasteMultiline(ctx context.Context, paneID, text string) error {
	cmd := exec.CommandContext(ctx, "wezterm", "cli", "send-text", "--pane-id", paneID)
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wezterm paste: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ClearStatus is a no-op: this backend sets no status icon or tab color
// (its ApplyTheme is a no-op too), so there is nothing to clear.
func (w *WezTermBackend) ClearStatus(ctx context.Context, handle string) error {
	return nil
}

// ScheduleCloseFull schedules the same deferred select-then-kill sequence
// as the tmux backend, using wezterm's CLI verbs instead.
func (w *WezTermBackend) ScheduleCloseFull(ctx context.Context, mainHandle, targetHandle string, delay time.Duration) error {
	mainPane, ok, err := w.findPane(ctx, mainHandle)
	if err != nil || !ok {
		return fmt.Errorf("resolving main pane for deferred close: %w", err)
	}
	targetPane, ok, err := w.findPane(ctx, targetHandle)
	if err != nil || !ok {
		return fmt.Errorf("resolving target pane for deferred close: %w", err)
	}
	script := fmt.Sprintf(
		"sleep %.3f; wezterm cli activate-pane --pane-id %d; wezterm cli kill-pane --pane-id %d",
		delay.Seconds(), mainPane.PaneID, targetPane.PaneID,
	)
	cmd := exec.Command("sh", "-c", script)
	return cmd.Start()
}

func (w *WezTermBackend) setPaneTitle(ctx context.Context, paneID, title string) error {
	_, err := w.run(ctx, "cli", "set-tab-title", "--pane-id", paneID, title)
	return err
}

func (w *WezTermBackend) KillWindow(ctx context.Context, handle string) error {
	pane, ok, err := w.findPane(ctx, handle)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}
	_, err = w.run(ctx, "cli", "kill-pane", "--pane-id", strconv.Itoa(pane.PaneID))
	return err
}

func (w *WezTermBackend) ListWindows(ctx context.Context) ([]WindowInfo, error) {
	panes, err := w.listPanes(ctx)
	if err != nil {
		return nil, err
	}
	var windows []WindowInfo
	for _, p := range panes {
		if !strings.HasPrefix(p.Title, w.Prefix) {
			continue
		}
		windows = append(windows, WindowInfo{
			Handle:      strings.TrimPrefix(p.Title, w.Prefix),
			WindowID:    strconv.Itoa(p.PaneID),
			FocusPaneID: strconv.Itoa(p.PaneID),
			Path:        cwdToPath(p.Cwd),
		})
	}
	return windows, nil
}

func (w *WezTermBackend) SelectWindow(ctx context.Context, handle string) error {
	pane, ok, err := w.findPane(ctx, handle)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWindowGone
	}
	_, err = w.run(ctx, "cli", "activate-pane", "--pane-id", strconv.Itoa(pane.PaneID))
	return err
}

func (w *WezTermBackend) SwitchClientTo(ctx context.Context, handle string) error {
	return w.SelectWindow(ctx, handle)
}

func (w *WezTermBackend) SendKeys(ctx context.Context, paneID, keys string) error {
	cmd := exec.CommandContext(ctx, "wezterm", "cli", "send-text", "--pane-id", paneID, "--no-paste")
	cmd.Stdin = strings.NewReader(keys + "\r")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("wezterm send-text: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func (w *WezTermBackend) SendKeysDebounced(ctx context.Context, paneID, keys string, debounce time.Duration) error {
	if debounce > 0 {
		time.Sleep(debounce)
	}
	return w.SendKeys(ctx, paneID, keys)
}

func (w *WezTermBackend) CapturePane(ctx context.Context, paneID string, lines int) (string, error) {
	args := []string{"cli", "get-text", "--pane-id", paneID}
	if lines > 0 {
		args = append(args, "--start-line", strconv.Itoa(-lines))
	}
	return w.run(ctx, args...)
}

func (w *WezTermBackend) LivePaneInfo(ctx context.Context, paneID string) (LivePaneInfo, error) {
	panes, err := w.listPanes(ctx)
	if err != nil {
		return LivePaneInfo{}, err
	}
	for _, p := range panes {
		if strconv.Itoa(p.PaneID) == paneID {
			return LivePaneInfo{
				PaneID:     paneID,
				WorkingDir: cwdToPath(p.Cwd),
				Title:      p.Title,
				Handle:     strings.TrimPrefix(p.Title, w.Prefix),
			}, nil
		}
	}
	return LivePaneInfo{}, fmt.Errorf("pane %s not found", paneID)
}

// ApplyTheme is a no-op for WezTerm: tab coloring is configured globally via
// the user's wezterm.lua, not per-pane through the CLI.
func (w *WezTermBackend) ApplyTheme(ctx context.Context, handle string, theme Theme) error {
	return nil
}

// SetPaneDiedHook is a no-op for WezTerm: it has no server-side hook
// mechanism equivalent to tmux's pane-died. Crash detection for WezTerm
// panes instead relies entirely on the agent-state reconciler's liveness
// poll (spec §4.C), which already covers this case.
func (w *WezTermBackend) SetPaneDiedHook(ctx context.Context, handle, agentID string) error {
	return nil
}

func cwdToPath(cwd string) string {
	if cwd == "" {
		return ""
	}
	u, err := url.Parse(cwd)
	if err != nil || u.Path == "" {
		return cwd
	}
	return u.Path
}
