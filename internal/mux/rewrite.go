package mux

import (
	"os/exec"
	"path/filepath"
	"strings"
)

// posixShells lists shell basenames that support `$(...)` command
// substitution, ported from the original Rust implementation's
// is_posix_shell.
var posixShells = map[string]bool{
	"bash": true, "zsh": true, "sh": true, "dash": true, "ksh": true, "ash": true,
}

// IsPOSIXShell reports whether shell (a path or bare name) supports POSIX
// command substitution.
func IsPOSIXShell(shell string) bool {
	name := filepath.Base(shell)
	if name == "" {
		name = "sh"
	}
	return posixShells[name]
}

// AgentProfile supplies the agent-specific flag used to pass prompt content
// on the command line, mirroring the original's AgentProfile::prompt_argument.
type AgentProfile struct {
	Name           string
	PromptArgument func(promptPath string) string
}

var agentProfiles = map[string]AgentProfile{
	"claude": {
		Name:           "claude",
		PromptArgument: func(p string) string { return `-- "$(cat ` + p + `)"` },
	},
	"gemini": {
		Name:           "gemini",
		PromptArgument: func(p string) string { return `-i "$(cat ` + p + `)"` },
	},
	"opencode": {
		Name:           "opencode",
		PromptArgument: func(p string) string { return `--prompt "$(cat ` + p + `)"` },
	},
}

var defaultProfile = AgentProfile{
	Name:           "",
	PromptArgument: func(p string) string { return `"$(cat ` + p + `)"` },
}

// ResolveAgentProfile looks up the named agent's profile, falling back to a
// generic "$(cat ...)" argument for unrecognized agents.
func ResolveAgentProfile(agent string) AgentProfile {
	if p, ok := agentProfiles[agent]; ok {
		return p
	}
	return defaultProfile
}

// agentsNeedingSubmitDelay need a brief pause after a pasted prompt before
// they'll accept the submit keystroke, since their TUI re-renders the
// textarea asynchronously.
var agentsNeedingSubmitDelay = map[string]bool{
	"claude": true,
	"gemini": true,
}

func agentNeedsSubmitDelay(agent string) bool {
	return agentsNeedingSubmitDelay[agent]
}

// splitFirstToken splits a command string into its first whitespace-delimited
// token and the remainder.
func splitFirstToken(s string) (string, string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", "", false
	}
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, "", true
	}
	return s[:i], s[i+1:], true
}

// resolveExecutablePath resolves a bare command name against PATH, falling
// back to the input unchanged when it can't be resolved (e.g. in tests, or
// for a command that isn't actually on PATH yet).
func resolveExecutablePath(token string) string {
	if resolved, err := exec.LookPath(token); err == nil {
		return resolved
	}
	return token
}

// RewriteAgentCommand rewrites a pane's command to inject a prompt file's
// contents, ported from the original implementation's
// multiplexer::util::rewrite_agent_command. It only rewrites commands whose
// resolved executable basename matches the configured agent's, so unrelated
// panes (e.g. a bare "vim") are never touched. Returns "", false when no
// rewrite applies.
func RewriteAgentCommand(command, promptFile, workingDir, effectiveAgent, shell string) (string, bool) {
	if effectiveAgent == "" {
		return "", false
	}
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return "", false
	}

	paneToken, paneRest, ok := splitFirstToken(trimmed)
	if !ok {
		return "", false
	}
	configToken, _, ok := splitFirstToken(effectiveAgent)
	if !ok {
		return "", false
	}

	resolvedPane := resolveExecutablePath(paneToken)
	resolvedConfig := resolveExecutablePath(configToken)

	paneStem := stemOf(resolvedPane)
	configStem := stemOf(resolvedConfig)
	if paneStem != configStem {
		return "", false
	}

	promptPath := promptFile
	if rel, err := filepath.Rel(workingDir, promptFile); err == nil && !strings.HasPrefix(rel, "..") {
		promptPath = rel
	}

	rest := strings.TrimSpace(paneRest)
	var inner strings.Builder
	inner.WriteString(paneToken)
	if rest != "" {
		inner.WriteString(" ")
		inner.WriteString(rest)
	}
	profile := ResolveAgentProfile(effectiveAgent)
	inner.WriteString(" ")
	inner.WriteString(profile.PromptArgument(promptPath))

	if IsPOSIXShell(shell) {
		return " " + inner.String(), true
	}
	return " " + WrapForNonPOSIXShell(inner.String()), true
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// EscapeForDoubleQuotes escapes backslash, double-quote, dollar, and
// backtick for embedding inside a double-quoted shell context. Does not add
// the surrounding quotes.
func EscapeForDoubleQuotes(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`, "`", "\\`")
	return r.Replace(s)
}

// WrapForNonPOSIXShell wraps command in `sh -c '...'` for shells (nushell,
// fish, pwsh) that don't support POSIX command substitution.
func WrapForNonPOSIXShell(command string) string {
	escaped := strings.ReplaceAll(command, `'`, `'\''`)
	return "sh -c '" + escaped + "'"
}

// ResolvedCommand is the outcome of resolving a pane's configured command
// against the <agent> placeholder and prompt-injection rules.
type ResolvedCommand struct {
	Command        string
	PromptInjected bool
}

// ResolvePaneCommand mirrors the original's resolve_pane_command: expands
// the "<agent>" placeholder, honors run_commands, and applies prompt
// injection when a prompt file is configured.
func ResolvePaneCommand(paneCommand string, runCommands bool, promptFilePath, workingDir, effectiveAgent, shell string) (ResolvedCommand, bool) {
	command := paneCommand
	if paneCommand == "<agent>" {
		if effectiveAgent == "" {
			return ResolvedCommand{}, false
		}
		command = effectiveAgent
	}
	if command == "" || !runCommands {
		return ResolvedCommand{}, false
	}
	if promptFilePath != "" {
		if rewritten, ok := RewriteAgentCommand(command, promptFilePath, workingDir, effectiveAgent, shell); ok {
			return ResolvedCommand{Command: rewritten, PromptInjected: true}, true
		}
	}
	return ResolvedCommand{Command: command, PromptInjected: false}, true
}
