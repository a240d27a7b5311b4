package sandbox

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// SpawnArgs carries everything a sandboxed host-exec command needs to
// construct its child process.
type SpawnArgs struct {
	Program  string
	Args     []string
	HomeDir  string
	Worktree string
	Env      map[string]string
}

// SpawnSandboxed builds the exec.Cmd for a host-exec invocation, wrapped in
// the strongest sandbox available on the current OS: Seatbelt on macOS,
// bwrap on Linux if installed, and an unsandboxed child (with a warning)
// everywhere else. Every case uses a fully explicit environment: no
// os.Environ() inheritance, since a shimmed PATH must not leak secrets the
// parent process happens to carry.
func SpawnSandboxed(args SpawnArgs) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return spawnMacOS(args)
	case "linux":
		return spawnLinux(args)
	default:
		fmt.Fprintf(os.Stderr, "workmux: no sandbox support for %s, running %s unsandboxed\n", runtime.GOOS, args.Program)
		return spawnUnsandboxed(args), nil
	}
}

func buildEnv(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}

func spawnUnsandboxed(args SpawnArgs) *exec.Cmd {
	cmd := exec.Command(args.Program, args.Args...)
	cmd.Env = buildEnv(args.Env)
	return cmd
}

// spawnMacOS wraps the child in sandbox-exec using a generated Seatbelt
// profile. HOME_DIR and WORKTREE are passed as -D params and referenced in
// the profile via (param "...") rather than interpolated into the profile
// text, so a worktree path containing quotes or parens can never break out
// of the S-expression.
func spawnMacOS(args SpawnArgs) (*exec.Cmd, error) {
	if _, err := exec.LookPath("/usr/bin/sandbox-exec"); err != nil {
		return nil, fmt.Errorf("sandbox-exec not found: %w", err)
	}
	profile := generateMacOSProfile()
	execArgs := append([]string{
		"-p", profile,
		"-D", "HOME_DIR=" + args.HomeDir,
		"-D", "WORKTREE=" + args.Worktree,
		args.Program,
	}, args.Args...)
	cmd := exec.Command("/usr/bin/sandbox-exec", execArgs...)
	cmd.Env = buildEnv(args.Env)
	return cmd, nil
}

// generateMacOSProfile builds the Seatbelt S-expression denying read access
// to credential directories/files, denying write access everywhere under
// HOME_DIR except an explicit allowlist, and granting full access under
// WORKTREE.
func generateMacOSProfile() string {
	profile := "(version 1)\n(allow default)\n"

	for _, d := range denyReadDirs {
		profile += fmt.Sprintf("(deny file-read* (subpath (string-append (param \"HOME_DIR\") \"/%s\")))\n", d)
	}
	for _, d := range denyReadPathsDarwin {
		profile += fmt.Sprintf("(deny file-read* (subpath (string-append (param \"HOME_DIR\") \"/%s\")))\n", d)
	}
	for _, f := range denyReadFiles {
		profile += fmt.Sprintf("(deny file-read* (literal (string-append (param \"HOME_DIR\") \"/%s\")))\n", f)
	}

	profile += "(deny file-write* (subpath (param \"HOME_DIR\")))\n"
	for _, d := range allowWriteDirs {
		profile += fmt.Sprintf("(allow file-write* (subpath (string-append (param \"HOME_DIR\") \"/%s\")))\n", d)
	}
	for _, d := range allowWriteDirsDarwin {
		profile += fmt.Sprintf("(allow file-write* (subpath (string-append (param \"HOME_DIR\") \"/%s\")))\n", d)
	}
	profile += "(allow file-write* (subpath (param \"WORKTREE\")))\n"
	profile += "(allow file-read* (subpath (param \"WORKTREE\")))\n"

	return profile
}

// spawnLinux wraps the child in bwrap. If bwrap isn't installed, it falls
// back to an unsandboxed child with a warning rather than failing outright,
// since host-exec is meant to widen an agent's reach, not gate it.
func spawnLinux(args SpawnArgs) (*exec.Cmd, error) {
	bwrapPath, err := exec.LookPath("bwrap")
	if err != nil {
		fmt.Fprintln(os.Stderr, "workmux: bwrap not found, running host-exec commands unsandboxed")
		return spawnUnsandboxed(args), nil
	}

	bwrapArgs := []string{
		"--ro-bind", "/", "/",
		"--dev", "/dev",
		"--proc", "/proc",
		"--tmpfs", "/tmp",
		"--die-with-parent",
		"--share-net",
	}

	for _, d := range denyReadDirs {
		bwrapArgs = append(bwrapArgs, "--tmpfs", filepath.Join(args.HomeDir, d))
	}
	for _, f := range denyReadFiles {
		bwrapArgs = append(bwrapArgs, "--ro-bind", "/dev/null", filepath.Join(args.HomeDir, f))
	}
	for _, d := range allowWriteDirs {
		path := filepath.Join(args.HomeDir, d)
		if err := os.MkdirAll(path, 0755); err != nil {
			continue // best-effort: root is read-only, so the bind target must pre-exist
		}
		bwrapArgs = append(bwrapArgs, "--bind", path, path)
	}
	bwrapArgs = append(bwrapArgs, "--bind", args.Worktree, args.Worktree)
	bwrapArgs = append(bwrapArgs, args.Program)
	bwrapArgs = append(bwrapArgs, args.Args...)

	cmd := exec.Command(bwrapPath, bwrapArgs...)
	cmd.Env = buildEnv(args.Env)
	return cmd, nil
}
