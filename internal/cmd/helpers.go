package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/store"
	"github.com/workmux/workmux/internal/vcs"
	"github.com/workmux/workmux/internal/wmconfig"
	"github.com/workmux/workmux/internal/workflow"
)

// buildEngine wires together the workflow engine's dependencies from the
// nearest ancestor workmux.yaml, the way every command needs them.
func buildEngine() (*workflow.Engine, *wmconfig.Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, fmt.Errorf("getting working directory: %w", err)
	}
	cfg, err := wmconfig.Load(cwd)
	if err != nil {
		return nil, nil, err
	}

	backendType, err := mux.ParseBackendType(cfg.Backend)
	if err != nil {
		return nil, nil, usageErrorf("%v", err)
	}
	instanceName := "workmux"
	backend := mux.New(backendType, instanceName)
	if !backend.IsAvailable() {
		return nil, nil, fmt.Errorf("%s is not installed or not running", backendType)
	}

	st, err := store.Open()
	if err != nil {
		return nil, nil, err
	}

	gitVCS := vcs.New(cwd)
	mainRoot, err := gitVCS.GetMainWorktreeRoot(context.Background())
	if err != nil {
		return nil, nil, fmt.Errorf("not inside a git repository: %w", err)
	}

	engine := &workflow.Engine{
		Backend:  backend,
		Store:    st,
		VCS:      gitVCS,
		Config:   cfg,
		RepoRoot: mainRoot,
	}
	return engine, cfg, nil
}
