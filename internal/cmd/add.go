package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/workmux/workmux/internal/setup"
	"github.com/workmux/workmux/internal/template"
	"github.com/workmux/workmux/internal/workflow"
)

var (
	addName         string
	addBase         string
	addRemote       string
	addAgents       []string
	addCount        int
	addForeach      string
	addBranchTmpl   string
	addPrompt       string
	addPromptFile   string
	addPromptEditor bool
	addMoveChanges  bool
	addDetached     bool
	addNoFileOps    bool
	addNoHooks      bool
	addNoPaneCmds   bool
)

var addCmd = &cobra.Command{
	Use:     "add <branch>",
	GroupID: GroupWorkspace,
	Short:   "Create a worktree, multiplexer window, and agent for a branch",
	Long: `Create a new worktree for <branch>, materialize a multiplexer window
(or session, per workmux.yaml) with the configured pane layout, and launch
the effective agent.

If <branch> doesn't exist yet, it's created from --base (default: the
current branch). Pass a remote branch spec with --remote to track a branch
that already exists on a remote instead.

--agent (repeatable), --count, and --foreach expand a single invocation
into several worktrees, one per agent/number/foreach row; --branch-template
renders each one's branch name. Combining them is not rejected: --foreach
takes precedence over --count, and --count over multiple --agent values.

--move-changes stashes the current worktree's uncommitted changes and
replays them onto the new one, for when you started work before realizing
it belonged on its own branch.`,
	Args: cobra.ExactArgs(1),
	RunE: runAdd,
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "explicit window/worktree handle, overriding the derived one (single-spec only)")
	addCmd.Flags().StringVar(&addBase, "base", "", "base branch for a newly created branch (default: current branch)")
	addCmd.Flags().StringVar(&addRemote, "remote", "", "remote branch spec to track, e.g. origin/feature-x")
	addCmd.Flags().StringArrayVar(&addAgents, "agent", nil, "agent command to launch; repeat to create one worktree per agent")
	addCmd.Flags().IntVar(&addCount, "count", 0, "create this many numbered worktrees off the same base name")
	addCmd.Flags().StringVar(&addForeach, "foreach", "", `foreach matrix "k:v,v;k:v,v" driving one worktree per row`)
	addCmd.Flags().StringVar(&addBranchTmpl, "branch-template", "", "template rendering each expanded worktree's branch name")
	addCmd.Flags().StringVar(&addPrompt, "prompt", "", "prompt text written to a temp file and handed to the agent")
	addCmd.Flags().StringVar(&addPromptFile, "prompt-file", "", "prompt file (optionally with foreach frontmatter) handed to the agent")
	addCmd.Flags().BoolVar(&addPromptEditor, "prompt-editor", false, "compose the prompt in $EDITOR")
	addCmd.Flags().BoolVar(&addMoveChanges, "move-changes", false, "stash and replay uncommitted changes onto the new worktree(s)")
	addCmd.Flags().BoolVar(&addDetached, "detached", false, "create windows without focusing them")
	addCmd.Flags().BoolVar(&addNoFileOps, "no-file-ops", false, "skip configured file copy/symlink operations")
	addCmd.Flags().BoolVar(&addNoHooks, "no-hooks", false, "skip configured post-create hooks")
	addCmd.Flags().BoolVar(&addNoPaneCmds, "no-pane-cmds", false, "create panes with a bare shell instead of their configured command")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	engine, _, err := buildEngine()
	if err != nil {
		return err
	}
	if addBase != "" && addRemote != "" {
		return usageErrorf("--base and --remote are mutually exclusive")
	}

	foreachRows, err := resolveForeachRows()
	if err != nil {
		return usageErrorf("%v", err)
	}
	multiSpec := len(addAgents) > 1 || addCount > 0 || foreachRows != nil
	if multiSpec && addName != "" {
		return usageErrorf("--name cannot combine with --agent (multiple), --count, or --foreach")
	}
	if multiSpec && addRemote != "" {
		return usageErrorf("--remote cannot combine with multi-spec generation")
	}

	specs, err := template.GenerateWorktreeSpecs(args[0], addAgents, addCount, foreachRows, addBranchTmpl)
	if err != nil {
		return fmt.Errorf("expanding worktree specs: %w", err)
	}

	promptBody, err := resolvePromptBody()
	if err != nil {
		return err
	}

	opts := setup.DefaultOptions()
	opts.Detached = addDetached
	opts.FocusWindow = !addDetached
	if addNoFileOps {
		opts.RunFileOps = false
	}
	if addNoHooks {
		opts.RunHooks = false
	}
	if addNoPaneCmds {
		opts.RunPaneCmds = false
	}

	for _, spec := range specs {
		agentCmd := spec.Agent
		createArgs := workflow.CreateArgs{
			Branch:       spec.Branch,
			ExplicitName: addName,
			Base:         addBase,
			RemoteRef:    addRemote,
			Agent:        agentCmd,
			RepoRoot:     engine.RepoRoot,
			Options:      opts,
		}

		if promptBody != "" {
			rendered, err := template.Render(promptBody, spec.Context)
			if err != nil {
				return fmt.Errorf("rendering prompt for %s: %w", spec.Branch, err)
			}
			promptPath, err := writePromptFile(spec.Branch, rendered)
			if err != nil {
				return err
			}
			defer func() { _ = os.Remove(promptPath) }()
		}

		var result *workflow.CreateResult
		if addMoveChanges {
			result, err = engine.CreateWithChanges(cmd.Context(), createArgs)
		} else {
			result, err = engine.Create(cmd.Context(), createArgs)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created %s at %s (branch %s", result.Handle, result.Path, result.Branch)
		if result.Agent != "" {
			fmt.Fprintf(cmd.OutOrStdout(), ", agent %s", result.Agent)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ")")
	}
	return nil
}

func resolveForeachRows() ([]map[string]string, error) {
	if addForeach == "" {
		return nil, nil
	}
	return template.ParseForeachMatrix(addForeach)
}

// resolvePromptBody reads the prompt text from whichever of --prompt,
// --prompt-file, or --prompt-editor was given, in that precedence order.
func resolvePromptBody() (string, error) {
	if addPrompt != "" {
		return addPrompt, nil
	}
	if addPromptFile != "" {
		data, err := os.ReadFile(addPromptFile)
		if err != nil {
			return "", fmt.Errorf("reading prompt file %s: %w", addPromptFile, err)
		}
		_, body, err := template.ParsePromptFile(string(data))
		if err != nil {
			return "", err
		}
		return body, nil
	}
	if addPromptEditor {
		return composePromptInEditor()
	}
	return "", nil
}

func composePromptInEditor() (string, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		return "", fmt.Errorf("--prompt-editor requires $EDITOR to be set")
	}
	tmp, err := os.CreateTemp("", "workmux-prompt-edit-*.md")
	if err != nil {
		return "", fmt.Errorf("creating temp prompt file: %w", err)
	}
	path := tmp.Name()
	tmp.Close()
	defer os.Remove(path)

	if err := runInTTY(editor, path); err != nil {
		return "", fmt.Errorf("running $EDITOR: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading composed prompt: %w", err)
	}
	return string(data), nil
}

// writePromptFile persists the rendered prompt body to the well-known
// per-branch temp path (spec §4.F): best-effort deleted by cleanup, and
// deferred-removed here too in case this process never tears the branch down.
func writePromptFile(branch, body string) (string, error) {
	path := filepath.Join(os.TempDir(), "workmux-prompt-"+template.Slugify(branch)+".md")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		return "", fmt.Errorf("writing prompt file %s: %w", path, err)
	}
	return path, nil
}
