package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
)

// LimaInstanceInfo is one line of `limactl list --json` output.
type LimaInstanceInfo struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Dir    string `json:"dir"`
}

// LimaInstance manages the lifecycle of one Lima VM used for full-VM
// workspace isolation (spec §4.G).
type LimaInstance struct {
	name       string
	configPath string
}

func NewLimaInstance(name, configPath string) *LimaInstance {
	return &LimaInstance{name: name, configPath: configPath}
}

func (l *LimaInstance) Name() string { return l.name }

// IsLimaAvailable reports whether limactl is installed and runnable.
func IsLimaAvailable(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, "limactl", "--version")
	return cmd.Run() == nil
}

func listLimaInstances(ctx context.Context) ([]LimaInstanceInfo, error) {
	cmd := exec.CommandContext(ctx, "limactl", "list", "--json")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("limactl list: %w", err)
	}
	var infos []LimaInstanceInfo
	dec := json.NewDecoder(bytes.NewReader(out))
	for dec.More() {
		var info LimaInstanceInfo
		if err := dec.Decode(&info); err != nil {
			return nil, fmt.Errorf("parsing limactl list output: %w", err)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (l *LimaInstance) find(ctx context.Context) (*LimaInstanceInfo, error) {
	infos, err := listLimaInstances(ctx)
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == l.name {
			return &info, nil
		}
	}
	return nil, nil
}

func (l *LimaInstance) IsRunning(ctx context.Context) (bool, error) {
	info, err := l.find(ctx)
	if err != nil {
		return false, err
	}
	return info != nil && info.Status == "Running", nil
}

func (l *LimaInstance) create(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "limactl", "start", "--name", l.name, "--tty=false", l.configPath)
	return runLogged(cmd)
}

func (l *LimaInstance) Start(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "limactl", "start", l.name)
	return runLogged(cmd)
}

func (l *LimaInstance) createAndStart(ctx context.Context) error {
	return l.create(ctx)
}

func (l *LimaInstance) Stop(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, "limactl", "stop", l.name)
	return runLogged(cmd)
}

// Shell runs a command inside the instance via `limactl shell`.
func (l *LimaInstance) Shell(ctx context.Context, command string) *exec.Cmd {
	return exec.CommandContext(ctx, "limactl", "shell", l.name, "sh", "-c", command)
}

// GetOrCreateLimaInstance implements the reuse-if-running, start-if-stopped,
// create-if-absent orchestration: a running instance is returned as-is, a
// stopped one is started without rewriting its config, and a missing one is
// created fresh from configPath.
func GetOrCreateLimaInstance(ctx context.Context, name, configPath string) (*LimaInstance, error) {
	inst := NewLimaInstance(name, configPath)
	info, err := inst.find(ctx)
	if err != nil {
		return nil, err
	}
	if info == nil {
		if err := inst.createAndStart(ctx); err != nil {
			return nil, fmt.Errorf("creating lima instance %s: %w", name, err)
		}
		return inst, nil
	}
	if info.Status == "Running" {
		return inst, nil
	}
	if err := inst.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting lima instance %s: %w", name, err)
	}
	return inst, nil
}

func runLogged(cmd *exec.Cmd) error {
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return cmd.Run()
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	go streamLimaLog(stderr, os.Stderr)
	return cmd.Wait()
}
