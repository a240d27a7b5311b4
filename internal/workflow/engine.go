// Package workflow is the workspace lifecycle state machine (spec §4.F):
// create, create-with-changes (rescue), open, merge, remove, list, and
// close, each sequencing calls into the VCS (A), multiplexer (B), state
// store (C), and setup pipeline (E). Only create-with-changes undoes an
// earlier step on failure (it pops its stash back); the other operations
// leave whatever steps already succeeded in place.
package workflow

import (
	"github.com/workmux/workmux/internal/mux"
	"github.com/workmux/workmux/internal/store"
	"github.com/workmux/workmux/internal/vcs"
	"github.com/workmux/workmux/internal/wmconfig"
)

// Engine bundles the collaborators every lifecycle operation needs. One
// Engine is constructed per CLI invocation from the resolved project config.
type Engine struct {
	VCS      vcs.VCS
	Backend  mux.Backend
	Store    *store.Store
	Config   *wmconfig.Config
	RepoRoot string // main worktree root, pre-set as cwd for destructive VCS ops (spec §4.A)
}

// EffectiveAgent resolves the agent to run in a workspace: the spec's
// explicit agent overrides the project config default.
func (e *Engine) EffectiveAgent(specAgent string) string {
	if specAgent != "" {
		return specAgent
	}
	return e.Config.Agent
}
