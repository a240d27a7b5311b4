package mux

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// TmuxBackend wraps tmux window/pane operations via subprocess, adapted
// from the teacher's internal/tmux.Tmux: every workspace is a tmux window
// inside one shared session (Instance) instead of its own session, since
// workmux multiplexes many agents under a single attach point.
type TmuxBackend struct {
	Instance string
	Prefix   string
}

func NewTmux(instance string) *TmuxBackend {
	return &TmuxBackend{Instance: instance, Prefix: "wm-"}
}

func (t *TmuxBackend) Kind() BackendType { return Tmux }
func (t *TmuxBackend) Name() string      { return "tmux" }
func (t *TmuxBackend) InstanceID() string { return t.Instance }

func (t *TmuxBackend) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "tmux", args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", t.wrapError(err, stderr.String(), args)
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (t *TmuxBackend) wrapError(err error, stderr string, args []string) error {
	stderr = strings.TrimSpace(stderr)
	switch {
	case strings.Contains(stderr, "no server running"), strings.Contains(stderr, "error connecting to"):
		return ErrNoServer
	case strings.Contains(stderr, "duplicate"):
		return ErrWindowExists
	case strings.Contains(stderr, "can't find window"), strings.Contains(stderr, "window not found"):
		return ErrWindowGone
	}
	if stderr != "" {
		return fmt.Errorf("tmux %s: %s", args[0], stderr)
	}
	return fmt.Errorf("tmux %s: %w", args[0], err)
}

func (t *TmuxBackend) IsAvailable() bool {
	return exec.Command("tmux", "-V").Run() == nil
}

func (t *TmuxBackend) IsInsideInstance() bool {
	return os.Getenv("TMUX") != ""
}

func (t *TmuxBackend) hasSession(ctx context.Context) bool {
	_, err := t.run(ctx, "has-session", "-t", "="+t.Instance)
	return err == nil
}

func (t *TmuxBackend) EnsureInstance(ctx context.Context) error {
	if t.hasSession(ctx) {
		return nil
	}
	_, err := t.run(ctx, "new-session", "-d", "-s", t.Instance)
	return err
}

func (t *TmuxBackend) windowTarget(handle string) string {
	return t.Instance + ":" + handleWindowName(t.Prefix, handle)
}

func (t *TmuxBackend) WindowExists(ctx context.Context, handle string) (bool, error) {
	out, err := t.run(ctx, "list-windows", "-t", t.Instance, "-F", "#{window_name}")
	if err != nil {
		if err == ErrNoServer {
			return false, nil
		}
		return false, err
	}
	name := handleWindowName(t.Prefix, handle)
	for _, w := range strings.Split(out, "\n") {
		if w == name {
			return true, nil
		}
	}
	return false, nil
}

func (t *TmuxBackend) CreateWindow(ctx context.Context, params CreateWindowParams) (WindowInfo, error) {
	if err := t.EnsureInstance(ctx); err != nil {
		return WindowInfo{}, fmt.Errorf("ensuring tmux instance: %w", err)
	}
	name := handleWindowName(t.Prefix, params.Handle)
	args := []string{"new-window", "-t", t.Instance, "-n", name, "-P", "-F", "#{window_id}"}
	if params.Path != "" {
		args = append(args, "-c", params.Path)
	}
	windowID, err := t.run(ctx, args...)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("creating window %s: %w", name, err)
	}

	paneID, err := t.firstPaneID(ctx, name)
	if err != nil {
		return WindowInfo{}, err
	}

	for i, pane := range params.Panes {
		if i == 0 {
			if pane.Command != "" {
				if err := t.sendPaneCommand(ctx, paneID, pane.Command); err != nil {
					return WindowInfo{}, err
				}
			}
			continue
		}
		splitArgs := []string{"split-window", "-t", paneID, "-P", "-F", "#{pane_id}"}
		if pane.SplitVert {
			splitArgs = append(splitArgs, "-h")
		} else {
			splitArgs = append(splitArgs, "-v")
		}
		if pane.SizePercent > 0 {
			splitArgs = append(splitArgs, "-p", strconv.Itoa(pane.SizePercent))
		}
		if params.Path != "" {
			splitArgs = append(splitArgs, "-c", params.Path)
		}
		newPaneID, err := t.run(ctx, splitArgs...)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("splitting pane for %s: %w", name, err)
		}
		if pane.Command != "" {
			if err := t.sendPaneCommand(ctx, newPaneID, pane.Command); err != nil {
				return WindowInfo{}, err
			}
		}
	}

	return WindowInfo{Handle: params.Handle, WindowID: windowID, FocusPaneID: paneID, Path: params.Path}, nil
}

func (t *TmuxBackend) sendPaneCommand(ctx context.Context, paneID, command string) error {
	return t.SendKeysDebounced(ctx, paneID, command, 100*time.Millisecond)
}

func (t *TmuxBackend) firstPaneID(ctx context.Context, windowName string) (string, error) {
	out, err := t.run(ctx, "list-panes", "-t", t.Instance+":"+windowName, "-F", "#{pane_id}")
	if err != nil {
		return "", fmt.Errorf("listing panes for %s: %w", windowName, err)
	}
	lines := strings.Split(out, "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", fmt.Errorf("no panes found in window %s", windowName)
	}
	return lines[0], nil
}

// CreateSession materializes handle as its own top-level tmux session
// (distinct from the shared Instance session every window-mode workspace
// lives in), named with the same prefix convention as windows so
// GetAllWindowNames (which also lists session names) can still discover it.
// ListWindows covers only the Instance session's windows and does not.
func (t *TmuxBackend) CreateSession(ctx context.Context, params CreateWindowParams) (WindowInfo, error) {
	name := handleWindowName(t.Prefix, params.Handle)
	args := []string{"new-session", "-d", "-s", name, "-P", "-F", "#{session_id}"}
	if params.Path != "" {
		args = append(args, "-c", params.Path)
	}
	sessionID, err := t.run(ctx, args...)
	if err != nil {
		return WindowInfo{}, fmt.Errorf("creating session %s: %w", name, err)
	}
	paneID, err := t.run(ctx, "list-panes", "-t", name, "-F", "#{pane_id}")
	if err != nil {
		return WindowInfo{}, fmt.Errorf("listing panes for session %s: %w", name, err)
	}
	focusPane := strings.Split(paneID, "\n")[0]

	for i, pane := range params.Panes {
		if i == 0 {
			if pane.Command != "" {
				if err := t.sendPaneCommand(ctx, focusPane, pane.Command); err != nil {
					return WindowInfo{}, err
				}
			}
			continue
		}
		splitArgs := []string{"split-window", "-t", focusPane, "-P", "-F", "#{pane_id}"}
		if pane.SplitVert {
			splitArgs = append(splitArgs, "-h")
		} else {
			splitArgs = append(splitArgs, "-v")
		}
		if pane.SizePercent > 0 {
			splitArgs = append(splitArgs, "-p", strconv.Itoa(pane.SizePercent))
		}
		newPaneID, err := t.run(ctx, splitArgs...)
		if err != nil {
			return WindowInfo{}, fmt.Errorf("splitting pane for session %s: %w", name, err)
		}
		if pane.Command != "" {
			if err := t.sendPaneCommand(ctx, newPaneID, pane.Command); err != nil {
				return WindowInfo{}, err
			}
		}
	}

	return WindowInfo{Handle: params.Handle, WindowID: sessionID, FocusPaneID: focusPane, Path: params.Path}, nil
}

func (t *TmuxBackend) GetAllWindowNames(ctx context.Context) ([]string, error) {
	out, err := t.run(ctx, "list-windows", "-a", "-F", "#{window_name}")
	if err != nil {
		if err == ErrNoServer {
			return nil, nil
		}
		return nil, fmt.Errorf("listing all window names: %w", err)
	}
	sessOut, _ := t.run(ctx, "list-sessions", "-F", "#{session_name}")
	names := strings.Split(out, "\n")
	if sessOut != "" {
		names = append(names, strings.Split(sessOut, "\n")...)
	}
	var result []string
	for _, n := range names {
		if n != "" {
			result = append(result, n)
		}
	}
	return result, nil
}

func (t *TmuxBackend) SelectPane(ctx context.Context, paneID string) error {
	_, err := t.run(ctx, "select-pane", "-t", paneID)
	return err
}

func (t *TmuxBackend) ActivePaneID(ctx context.Context) (string, error) {
	out, err := t.run(ctx, "display-message", "-p", "#{pane_id}")
	if err != nil {
		return "", fmt.Errorf("querying active pane: %w", err)
	}
	return out, nil
}

// SendKeysToAgent sends a single keystroke (e.g. "Enter") to paneID,
// delaying first for agents known to need extra time to render a pasted
// prompt before accepting the submit key.
func (t *TmuxBackend) SendKeysToAgent(ctx context.Context, paneID, keystroke, agent string) error {
	if agentNeedsSubmitDelay(agent) {
		time.Sleep(300 * time.Millisecond)
	}
	_, err := t.run(ctx, "send-keys", "-t", paneID, keystroke)
	return err
}

// PasteMultiline loads text into a tmux paste buffer and pastes it in one
// shot, avoiding the line-by-line Enter semantics of SendKeysDebounced so
// multi-line review comments arrive as a single paste event.
func (t *TmuxBackend) PasteMultiline(ctx context.Context, paneID, text string) error {
	cmd := exec.CommandContext(ctx, "tmux", "load-buffer", "-")
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("loading tmux paste buffer: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	_, err := t.run(ctx, "paste-buffer", "-d", "-t", paneID)
	return err
}

// ClearStatus clears the window-level status-line icon the dashboard sets
// to flag a stalled or done agent.
func (t *TmuxBackend) ClearStatus(ctx context.Context, handle string) error {
	_, err := t.run(ctx, "set-option", "-t", t.windowTarget(handle), "-wu", "window-status-style")
	return err
}

// ScheduleCloseFull implements the deferred-close protocol (spec §4.F,
// §5): sleep briefly so the shell inside targetHandle's window finishes
// its own teardown, then select mainHandle and kill targetHandle in one
// scheduled shell command, run detached so the caller doesn't block on it.
func (t *TmuxBackend) ScheduleCloseFull(ctx context.Context, mainHandle, targetHandle string, delay time.Duration) error {
	script := fmt.Sprintf(
		"sleep %.3f; tmux select-window -t '%s'; tmux kill-window -t '%s'",
		delay.Seconds(), t.windowTarget(mainHandle), t.windowTarget(targetHandle),
	)
	cmd := exec.Command("sh", "-c", script)
	return cmd.Start()
}

func (t *TmuxBackend) KillWindow(ctx context.Context, handle string) error {
	_, err := t.run(ctx, "kill-window", "-t", t.windowTarget(handle))
	if err == ErrWindowGone {
		return nil
	}
	return err
}

func (t *TmuxBackend) ListWindows(ctx context.Context) ([]WindowInfo, error) {
	out, err := t.run(ctx, "list-windows", "-t", t.Instance, "-F", "#{window_name}|#{window_id}|#{pane_current_path}")
	if err != nil {
		if err == ErrNoServer {
			return nil, nil
		}
		return nil, fmt.Errorf("listing windows: %w", err)
	}
	var windows []WindowInfo
	for _, line := range strings.Split(out, "\n") {
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 || !strings.HasPrefix(parts[0], t.Prefix) {
			continue
		}
		windows = append(windows, WindowInfo{
			Handle:   strings.TrimPrefix(parts[0], t.Prefix),
			WindowID: parts[1],
			Path:     parts[2],
		})
	}
	return windows, nil
}

func (t *TmuxBackend) SelectWindow(ctx context.Context, handle string) error {
	_, err := t.run(ctx, "select-window", "-t", t.windowTarget(handle))
	return err
}

func (t *TmuxBackend) SwitchClientTo(ctx context.Context, handle string) error {
	_, err := t.run(ctx, "switch-client", "-t", t.windowTarget(handle))
	return err
}

func (t *TmuxBackend) SendKeys(ctx context.Context, paneID, keys string) error {
	return t.SendKeysDebounced(ctx, paneID, keys, 100*time.Millisecond)
}

// SendKeysDebounced sends literal text then Enter as a separate command,
// waiting debounce between the two so a paste can't race the Enter key.
func (t *TmuxBackend) SendKeysDebounced(ctx context.Context, paneID, keys string, debounce time.Duration) error {
	if _, err := t.run(ctx, "send-keys", "-t", paneID, "-l", keys); err != nil {
		return err
	}
	if debounce > 0 {
		time.Sleep(debounce)
	}
	_, err := t.run(ctx, "send-keys", "-t", paneID, "Enter")
	return err
}

func (t *TmuxBackend) CapturePane(ctx context.Context, paneID string, lines int) (string, error) {
	arg := "-"
	if lines > 0 {
		arg = fmt.Sprintf("-%d", lines)
	}
	return t.run(ctx, "capture-pane", "-p", "-t", paneID, "-S", arg)
}

func (t *TmuxBackend) LivePaneInfo(ctx context.Context, paneID string) (LivePaneInfo, error) {
	format := "#{pane_pid}|#{pane_current_command}|#{pane_current_path}|#{window_name}"
	out, err := t.run(ctx, "display-message", "-p", "-t", paneID, format)
	if err != nil {
		return LivePaneInfo{}, fmt.Errorf("querying live pane info for %s: %w", paneID, err)
	}
	parts := strings.SplitN(out, "|", 4)
	if len(parts) != 4 {
		return LivePaneInfo{}, fmt.Errorf("unexpected pane info format: %s", out)
	}
	pid, _ := strconv.Atoi(parts[0])
	return LivePaneInfo{
		PaneID:         paneID,
		PID:            pid,
		CurrentCommand: parts[1],
		WorkingDir:     parts[2],
		Handle:         strings.TrimPrefix(parts[3], t.Prefix),
	}, nil
}

func (t *TmuxBackend) ApplyTheme(ctx context.Context, handle string, theme Theme) error {
	_, err := t.run(ctx, "set-option", "-t", t.windowTarget(handle), "-w", "window-status-style", theme.Style())
	return err
}

// SetPaneDiedHook installs a pane-died hook scoped to the window so a
// crashed agent is logged instead of silently vanishing between dashboard
// ticks (supplemental feature, adapted from the teacher's hook of the same
// name but scoped per-window rather than per-session).
func (t *TmuxBackend) SetPaneDiedHook(ctx context.Context, handle, agentID string) error {
	hookCmd := fmt.Sprintf(`run-shell "workmux _exec pane-died --agent '%s' --handle '%s' --exit-code #{pane_dead_status}"`, agentID, handle)
	_, err := t.run(ctx, "set-hook", "-t", t.windowTarget(handle), "pane-died", hookCmd)
	return err
}
