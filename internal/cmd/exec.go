package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
)

// execSpec is the run-dir's `spec` file (spec §6): the command this _exec
// invocation was asked to run, written by setup.RunHooks before spawning
// this process for a post_create/pre_delete hook.
type execSpec struct {
	Program string   `json:"program"`
	Args    []string `json:"args"`
	Dir     string   `json:"dir"`
}

// execResult is the run-dir's `result` file, written once the child exits.
type execResult struct {
	ExitCode int    `json:"exit_code"`
	Error    string `json:"error,omitempty"`
}

var execCmd = &cobra.Command{
	Use:     "_exec <run-dir>",
	GroupID: GroupInternal,
	Short:   "Hidden child-process helper for hook commands",
	Hidden:  true,
	Args:    cobra.ExactArgs(1),
	RunE:    runExec,
}

func init() {
	rootCmd.AddCommand(execCmd)
}

func runExec(cmd *cobra.Command, args []string) error {
	runDir := args[0]

	specData, err := os.ReadFile(filepath.Join(runDir, "spec"))
	if err != nil {
		return fmt.Errorf("reading run spec: %w", err)
	}
	var spec execSpec
	if err := json.Unmarshal(specData, &spec); err != nil {
		return fmt.Errorf("parsing run spec: %w", err)
	}

	stdout, err := os.Create(filepath.Join(runDir, "stdout"))
	if err != nil {
		return fmt.Errorf("creating stdout artifact: %w", err)
	}
	defer stdout.Close()
	stderr, err := os.Create(filepath.Join(runDir, "stderr"))
	if err != nil {
		return fmt.Errorf("creating stderr artifact: %w", err)
	}
	defer stderr.Close()

	child := exec.Command(spec.Program, spec.Args...)
	child.Dir = spec.Dir
	child.Stdout = io.MultiWriter(stdout, os.Stdout)
	child.Stderr = io.MultiWriter(stderr, os.Stderr)
	child.Stdin = os.Stdin

	if err := child.Start(); err != nil {
		writeExecResult(runDir, execResult{ExitCode: 1, Error: err.Error()})
		return fmt.Errorf("starting %s: %w", spec.Program, err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		select {
		case <-sigCh:
			_ = child.Process.Signal(syscall.SIGINT)
		case <-done:
		}
	}()

	waitErr := child.Wait()
	close(done)
	signal.Stop(sigCh)

	result := execResult{}
	if waitErr != nil {
		if exitErr, ok := waitErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = waitErr.Error()
		}
	}
	writeExecResult(runDir, result)

	if result.ExitCode != 0 {
		os.Exit(result.ExitCode)
	}
	return nil
}

func writeExecResult(runDir string, result execResult) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return
	}
	tmp := filepath.Join(runDir, "result.tmp")
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return
	}
	_ = os.Rename(tmp, filepath.Join(runDir, "result"))
}
