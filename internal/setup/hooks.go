package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/workmux/workmux/internal/paths"
)

// execSpec mirrors internal/cmd's hidden `_exec` helper's run-dir `spec`
// file: the command it should run and where.
type execSpec struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
	Dir     string   `json:"dir"`
}

// RunHooks runs each command sequentially in dir via `sh -c`, with $CWD set
// to dir (spec §4.F cleanup also relies on this for pre_delete hooks).
// Failure short-circuits: the offending command is included in the
// returned error's chain, and later commands never run.
//
// Each command is routed through `workmux _exec` rather than run directly,
// so its stdout/stderr and exit result land in a per-run artifact
// directory (spec §6 persisted state) keyed by a fresh uuid, the same run
// ID scheme `paths.RunDir` documents.
func RunHooks(ctx context.Context, dir string, commands []string) error {
	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving workmux binary: %w", err)
	}
	for i, command := range commands {
		runDir, err := paths.RunDir(uuid.NewString())
		if err != nil {
			return fmt.Errorf("hook %d (%q): %w", i, command, err)
		}
		spec, err := json.Marshal(execSpec{Program: "sh", Args: []string{"-c", command}, Dir: dir})
		if err != nil {
			return fmt.Errorf("hook %d (%q): %w", i, command, err)
		}
		if err := os.WriteFile(filepath.Join(runDir, "spec"), spec, 0644); err != nil {
			return fmt.Errorf("hook %d (%q): writing run spec: %w", i, command, err)
		}

		cmd := exec.CommandContext(ctx, self, "_exec", runDir)
		cmd.Env = append(os.Environ(), "CWD="+dir)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return fmt.Errorf("hook %d (%q): %w: %s", i, command, err, stderr.String())
		}
	}
	return nil
}
