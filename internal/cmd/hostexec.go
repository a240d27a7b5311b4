package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/sandbox"
)

var hostExecCmd = &cobra.Command{
	Use:                "host-exec <cmd> [args...]",
	GroupID:            GroupInternal,
	Short:              "Run a shimmed command on the host, sandboxed (invoked by guest shims)",
	Args:               cobra.MinimumNArgs(1),
	DisableFlagParsing: true,
	RunE:               runHostExec,
}

func init() {
	rootCmd.AddCommand(hostExecCmd)
}

func runHostExec(cmd *cobra.Command, args []string) error {
	program, err := resolveHostProgram(args[0])
	if err != nil {
		return err
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	worktree, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	child, err := sandbox.SpawnSandboxed(sandbox.SpawnArgs{
		Program:  program,
		Args:     args[1:],
		HomeDir:  home,
		Worktree: worktree,
		Env:      hostExecEnv(),
	})
	if err != nil {
		return fmt.Errorf("spawning %s: %w", args[0], err)
	}
	child.Stdin = os.Stdin
	child.Stdout = os.Stdout
	child.Stderr = os.Stderr
	if err := child.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			os.Exit(exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", args[0], err)
	}
	return nil
}

// resolveHostProgram looks cmd up on PATH with the shim bin directory
// stripped, so host-exec never recurses into the very shim that dispatched
// to it.
func resolveHostProgram(cmd string) (string, error) {
	var cleaned []string
	for _, dir := range strings.Split(os.Getenv("PATH"), string(os.PathListSeparator)) {
		if strings.HasSuffix(dir, "/shims/bin") {
			continue
		}
		cleaned = append(cleaned, dir)
	}
	oldPath := os.Getenv("PATH")
	os.Setenv("PATH", strings.Join(cleaned, string(os.PathListSeparator)))
	defer os.Setenv("PATH", oldPath)

	path, err := exec.LookPath(cmd)
	if err != nil {
		return "", fmt.Errorf("%s not found on host PATH: %w", cmd, err)
	}
	return path, nil
}

func hostExecEnv() map[string]string {
	env := map[string]string{}
	for _, kv := range []string{"PATH", "HOME", "USER", "LANG", "TERM"} {
		if v := os.Getenv(kv); v != "" {
			env[kv] = v
		}
	}
	return env
}
