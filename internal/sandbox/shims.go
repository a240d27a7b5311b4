// Package sandbox implements the optional per-workspace isolation layer
// (spec §4.G): OS-native profiles for macOS Seatbelt and Linux bwrap, a Lima
// VM lifecycle for full-VM isolation, and a host-exec shim mechanism so a
// sandboxed agent can still reach a small allowlist of host binaries.
package sandbox

import (
	"fmt"
	"os"
	"path/filepath"
)

// BuiltinHostCommands are always shimmed regardless of user config, system
// binaries a sandboxed agent commonly needs proxied to the host.
var BuiltinHostCommands = []string{"afplay"}

// EffectiveHostCommands merges the built-in allowlist with user-configured
// commands, deduplicating while preserving the built-ins-first order.
func EffectiveHostCommands(userCommands []string) []string {
	commands := append([]string{}, BuiltinHostCommands...)
	for _, c := range userCommands {
		found := false
		for _, existing := range commands {
			if existing == c {
				found = true
				break
			}
		}
		if !found {
			commands = append(commands, c)
		}
	}
	return commands
}

const dispatcherScript = "#!/bin/sh\nexec workmux host-exec \"$(basename \"$0\")\" \"$@\"\n"

// CreateShimDirectory materializes a dispatcher script and one symlink per
// command under <stateDir>/shims/bin, so a sandbox guest with that directory
// prepended to PATH transparently routes those commands to `workmux
// host-exec` on the host. Symlink creation is atomic (temp name + rename)
// so concurrent supervisors sharing one VM never observe a half-written
// link. Names containing a path separator, or empty, are rejected.
func CreateShimDirectory(stateDir string, commands []string) (string, error) {
	shimBin := filepath.Join(stateDir, "shims", "bin")
	if err := os.MkdirAll(shimBin, 0755); err != nil {
		return "", fmt.Errorf("creating shim dir %s: %w", shimBin, err)
	}

	dispatcher := filepath.Join(shimBin, "_shim")
	if err := os.WriteFile(dispatcher, []byte(dispatcherScript), 0755); err != nil {
		return "", fmt.Errorf("writing shim dispatcher: %w", err)
	}

	for _, cmd := range commands {
		if cmd == "" || containsPathSeparator(cmd) {
			continue // invalid host_commands entry, silently skipped
		}
		link := filepath.Join(shimBin, cmd)
		tmp := filepath.Join(shimBin, "."+cmd+".tmp")
		os.Remove(tmp)
		if err := os.Symlink("_shim", tmp); err != nil {
			return "", fmt.Errorf("creating temp shim symlink for %s: %w", cmd, err)
		}
		if err := os.Rename(tmp, link); err != nil {
			os.Remove(tmp)
			return "", fmt.Errorf("renaming shim symlink for %s: %w", cmd, err)
		}
	}

	return shimBin, nil
}

func containsPathSeparator(name string) bool {
	for _, r := range name {
		if r == '/' || r == '\\' {
			return true
		}
	}
	return false
}
