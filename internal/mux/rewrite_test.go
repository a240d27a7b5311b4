package mux

import "testing"

func TestIsPOSIXShell(t *testing.T) {
	cases := map[string]bool{
		"/bin/bash":           true,
		"/usr/bin/zsh":        true,
		"/bin/sh":             true,
		"/opt/homebrew/bin/nu": false,
		"/usr/bin/fish":       false,
	}
	for shell, want := range cases {
		if got := IsPOSIXShell(shell); got != want {
			t.Errorf("IsPOSIXShell(%q) = %v, want %v", shell, got, want)
		}
	}
}

func TestRewriteAgentCommandPOSIX(t *testing.T) {
	got, ok := RewriteAgentCommand("claude", "/tmp/worktree/PROMPT.md", "/tmp/worktree", "claude", "/bin/zsh")
	if !ok {
		t.Fatal("expected rewrite to apply")
	}
	want := ` claude -- "$(cat PROMPT.md)"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteAgentCommandGemini(t *testing.T) {
	got, ok := RewriteAgentCommand("gemini", "/tmp/worktree/PROMPT.md", "/tmp/worktree", "gemini", "/bin/bash")
	if !ok {
		t.Fatal("expected rewrite to apply")
	}
	want := ` gemini -i "$(cat PROMPT.md)"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteAgentCommandWithArgs(t *testing.T) {
	got, ok := RewriteAgentCommand("claude --verbose", "/tmp/worktree/PROMPT.md", "/tmp/worktree", "claude", "/bin/bash")
	if !ok {
		t.Fatal("expected rewrite to apply")
	}
	want := ` claude --verbose -- "$(cat PROMPT.md)"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRewriteAgentCommandMismatch(t *testing.T) {
	if _, ok := RewriteAgentCommand("claude", "/tmp/worktree/PROMPT.md", "/tmp/worktree", "gemini", "/bin/zsh"); ok {
		t.Error("expected no rewrite for mismatched agent")
	}
}

func TestRewriteAgentCommandEmpty(t *testing.T) {
	if _, ok := RewriteAgentCommand("", "/tmp/worktree/PROMPT.md", "/tmp/worktree", "claude", "/bin/zsh"); ok {
		t.Error("expected no rewrite for empty command")
	}
}

func TestWrapForNonPOSIXShell(t *testing.T) {
	cases := []struct{ in, want string }{
		{"echo hello", "sh -c 'echo hello'"},
		{"echo $HOME", "sh -c 'echo $HOME'"},
	}
	for _, c := range cases {
		if got := WrapForNonPOSIXShell(c.in); got != c.want {
			t.Errorf("WrapForNonPOSIXShell(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestResolvePaneCommandAgentPlaceholder(t *testing.T) {
	resolved, ok := ResolvePaneCommand("<agent>", true, "", "/tmp", "claude", "/bin/zsh")
	if !ok {
		t.Fatal("expected a command")
	}
	if resolved.Command != "claude" || resolved.PromptInjected {
		t.Errorf("got %+v", resolved)
	}
}

func TestResolvePaneCommandNoAgentConfigured(t *testing.T) {
	if _, ok := ResolvePaneCommand("<agent>", true, "", "/tmp", "", "/bin/zsh"); ok {
		t.Error("expected no command when no agent is configured")
	}
}

func TestResolvePaneCommandRunCommandsFalse(t *testing.T) {
	if _, ok := ResolvePaneCommand("echo hi", false, "", "/tmp", "", "/bin/zsh"); ok {
		t.Error("expected no command when run_commands is false")
	}
}
