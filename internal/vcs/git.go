package vcs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Git implements VCS by shelling out to the git CLI, in the same
// run-and-classify-stderr style the teacher's internal/tmux.Tmux uses for
// its own subprocess wrapper.
type Git struct {
	// Dir is the directory git commands run in by default when a method
	// doesn't take an explicit path (e.g. ListWorktrees, FetchRemote).
	Dir string
}

func New(dir string) *Git {
	return &Git{Dir: dir}
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	if dir == "" {
		dir = g.Dir
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func (g *Git) runOK(ctx context.Context, dir string, args ...string) bool {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir == "" {
		dir = g.Dir
	}
	cmd.Dir = dir
	return cmd.Run() == nil
}

func (g *Git) IsRepo(ctx context.Context, dir string) bool {
	return g.runOK(ctx, dir, "rev-parse", "--is-inside-work-tree")
}

func (g *Git) ListWorktrees(ctx context.Context) ([]Worktree, error) {
	out, err := g.run(ctx, "", "worktree", "list", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("listing worktrees: %w", err)
	}
	var worktrees []Worktree
	var cur Worktree
	flush := func() {
		if cur.Path != "" {
			worktrees = append(worktrees, cur)
		}
		cur = Worktree{}
	}
	for _, line := range strings.Split(out, "\n") {
		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, "worktree "):
			cur.Path = strings.TrimPrefix(line, "worktree ")
		case strings.HasPrefix(line, "HEAD "):
			cur.Head = strings.TrimPrefix(line, "HEAD ")
		case strings.HasPrefix(line, "branch "):
			cur.Branch = strings.TrimPrefix(strings.TrimPrefix(line, "branch "), "refs/heads/")
		case line == "detached":
			cur.Branch = ""
		}
	}
	flush()
	return worktrees, nil
}

// FindWorkspace resolves a workspace by handle first (worktree directory
// basename, the source of truth for mux lookups per spec §2), falling back
// to branch name.
func (g *Git) FindWorkspace(ctx context.Context, name string) (string, string, error) {
	worktrees, err := g.ListWorktrees(ctx)
	if err != nil {
		return "", "", err
	}
	for _, wt := range worktrees {
		if lastPathElem(wt.Path) == name {
			return wt.Path, wt.Branch, nil
		}
	}
	for _, wt := range worktrees {
		if wt.Branch == name {
			return wt.Path, wt.Branch, nil
		}
	}
	return "", "", fmt.Errorf("no worktree found for %q", name)
}

func lastPathElem(p string) string {
	p = strings.TrimRight(p, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

func (g *Git) CreateWorktree(ctx context.Context, opts CreateWorktreeOpts) error {
	args := []string{"worktree", "add"}
	switch {
	case opts.RemoteRef != "":
		args = append(args, "-b", opts.Branch, opts.Path, opts.RemoteRef)
		if opts.TrackUpstream {
			args = append(args, "--track")
		}
	case opts.CreateNew:
		args = append(args, "-b", opts.Branch, opts.Path)
		if opts.Base != "" {
			args = append(args, opts.Base)
		}
	default:
		args = append(args, opts.Path, opts.Branch)
	}
	if _, err := g.run(ctx, "", args...); err != nil {
		return fmt.Errorf("creating worktree %s: %w", opts.Path, err)
	}
	return nil
}

func (g *Git) BranchExists(ctx context.Context, branch string) bool {
	return g.runOK(ctx, "", "show-ref", "--verify", "--quiet", "refs/heads/"+branch) ||
		g.runOK(ctx, "", "rev-parse", "--verify", "--quiet", branch)
}

func (g *Git) WorktreeExists(ctx context.Context, path string) bool {
	worktrees, err := g.ListWorktrees(ctx)
	if err != nil {
		return false
	}
	for _, wt := range worktrees {
		if wt.Path == path {
			return true
		}
	}
	return false
}

func (g *Git) GetCurrentBranch(ctx context.Context, dir string) (string, error) {
	out, err := g.run(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("getting current branch: %w", err)
	}
	branch := strings.TrimSpace(out)
	if branch == "HEAD" {
		return "", fmt.Errorf("detached HEAD, cannot determine current branch")
	}
	return branch, nil
}

func (g *Git) GetMainWorktreeRoot(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "", "worktree", "list", "--porcelain")
	if err != nil {
		return "", fmt.Errorf("finding main worktree: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.HasPrefix(line, "worktree ") {
			return strings.TrimPrefix(line, "worktree "), nil
		}
	}
	return "", fmt.Errorf("no worktrees found")
}

func (g *Git) PruneWorktrees(ctx context.Context) error {
	if _, err := g.run(ctx, "", "worktree", "prune"); err != nil {
		return fmt.Errorf("pruning worktrees: %w", err)
	}
	return nil
}

func (g *Git) DeleteBranch(ctx context.Context, name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := g.run(ctx, "", "branch", flag, name); err != nil {
		return fmt.Errorf("deleting branch %s: %w", name, err)
	}
	return nil
}

func (g *Git) HasUncommittedChanges(ctx context.Context, path string) (bool, error) {
	unstaged, err := g.HasUnstagedChanges(ctx, path)
	if err != nil {
		return false, err
	}
	staged, err := g.HasStagedChanges(ctx, path)
	if err != nil {
		return false, err
	}
	return unstaged || staged, nil
}

func (g *Git) HasUnstagedChanges(ctx context.Context, path string) (bool, error) {
	out, err := g.run(ctx, path, "status", "--porcelain")
	if err != nil {
		return false, fmt.Errorf("checking unstaged changes: %w", err)
	}
	for _, line := range strings.Split(out, "\n") {
		if len(line) >= 2 && (line[1] != ' ' && line[1] != 0) {
			return true, nil
		}
	}
	return false, nil
}

func (g *Git) HasStagedChanges(ctx context.Context, path string) (bool, error) {
	return !g.runOK(ctx, path, "diff", "--cached", "--quiet"), nil
}

func (g *Git) StashPush(ctx context.Context, path, message string, includeUntracked, patch bool) error {
	args := []string{"stash", "push", "-m", message}
	if includeUntracked {
		args = append(args, "--include-untracked")
	}
	if patch {
		args = append(args, "--patch")
	}
	if _, err := g.run(ctx, path, args...); err != nil {
		return fmt.Errorf("stashing changes: %w", err)
	}
	return nil
}

func (g *Git) StashPop(ctx context.Context, path string) error {
	if _, err := g.run(ctx, path, "stash", "pop"); err != nil {
		return fmt.Errorf("popping stash: %w", err)
	}
	return nil
}

func (g *Git) ResetHard(ctx context.Context, path string) error {
	if _, err := g.run(ctx, path, "reset", "--hard"); err != nil {
		return fmt.Errorf("resetting: %w", err)
	}
	return nil
}

func (g *Git) CommitWithEditor(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, "git", "commit")
	cmd.Dir = path
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("committing: %w", err)
	}
	return nil
}

func (g *Git) SwitchBranchInWorktree(ctx context.Context, path, branch string) error {
	if _, err := g.run(ctx, path, "checkout", branch); err != nil {
		return fmt.Errorf("switching to branch %s: %w", branch, err)
	}
	return nil
}

func (g *Git) MergeInWorktree(ctx context.Context, path, branch string) error {
	if _, err := g.run(ctx, path, "merge", "--no-edit", branch); err != nil {
		return fmt.Errorf("merging %s: %w", branch, err)
	}
	return nil
}

func (g *Git) MergeSquashInWorktree(ctx context.Context, path, branch string) error {
	if _, err := g.run(ctx, path, "merge", "--squash", branch); err != nil {
		return fmt.Errorf("squash-merging %s: %w", branch, err)
	}
	return nil
}

func (g *Git) RebaseBranchOntoBase(ctx context.Context, path, base string) error {
	if _, err := g.run(ctx, path, "rebase", base); err != nil {
		return fmt.Errorf("rebasing onto %s: %w", base, err)
	}
	return nil
}

func (g *Git) FetchRemote(ctx context.Context, remote string) error {
	if _, err := g.run(ctx, "", "fetch", remote); err != nil {
		return fmt.Errorf("fetching %s: %w", remote, err)
	}
	return nil
}

func (g *Git) RemoteExists(ctx context.Context, remote string) bool {
	remotes, err := g.ListRemotes(ctx)
	if err != nil {
		return false
	}
	for _, r := range remotes {
		if r == remote {
			return true
		}
	}
	return false
}

func (g *Git) ListRemotes(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "", "remote")
	if err != nil {
		return nil, fmt.Errorf("listing remotes: %w", err)
	}
	var remotes []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			remotes = append(remotes, line)
		}
	}
	return remotes, nil
}

func (g *Git) GetMergeBase(ctx context.Context, a, b string) (string, error) {
	out, err := g.run(ctx, "", "merge-base", a, b)
	if err != nil {
		return "", fmt.Errorf("finding merge base of %s and %s: %w", a, b, err)
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) GetUnmergedBranches(ctx context.Context, base string) ([]string, error) {
	out, err := g.run(ctx, "", "branch", "--no-merged", base, "--format=%(refname:short)")
	if err != nil {
		return nil, fmt.Errorf("listing unmerged branches: %w", err)
	}
	var branches []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line != "" {
			branches = append(branches, line)
		}
	}
	return branches, nil
}

const branchBaseConfigPrefix = "branch."
const branchBaseConfigSuffix = ".workmux-base"

func (g *Git) SetBranchBase(ctx context.Context, branch, base string) error {
	key := branchBaseConfigPrefix + branch + branchBaseConfigSuffix
	if _, err := g.run(ctx, "", "config", "--local", key, base); err != nil {
		return fmt.Errorf("storing base for branch %s: %w", branch, err)
	}
	return nil
}

func (g *Git) GetBranchBase(ctx context.Context, branch string) (string, error) {
	key := branchBaseConfigPrefix + branch + branchBaseConfigSuffix
	out, err := g.run(ctx, "", "config", "--local", "--get", key)
	if err != nil {
		return "", fmt.Errorf("reading stored base for branch %s: %w", branch, err)
	}
	return strings.TrimSpace(out), nil
}

func (g *Git) EnsureForkRemote(ctx context.Context, owner string) error {
	name := "fork-" + owner
	if g.RemoteExists(ctx, name) {
		return nil
	}
	out, err := g.run(ctx, "", "remote", "get-url", "origin")
	if err != nil {
		return fmt.Errorf("resolving origin url to derive fork remote: %w", err)
	}
	origin := strings.TrimSpace(out)
	forkURL, err := rewriteRemoteOwner(origin, owner)
	if err != nil {
		return fmt.Errorf("deriving fork url for owner %s: %w", owner, err)
	}
	if _, err := g.run(ctx, "", "remote", "add", name, forkURL); err != nil {
		return fmt.Errorf("adding fork remote %s: %w", name, err)
	}
	return nil
}

// rewriteRemoteOwner substitutes the owner segment of a github.com SSH or
// HTTPS remote URL, for the `owner:branch` fork-PR syntax (§4.A).
func rewriteRemoteOwner(remoteURL, owner string) (string, error) {
	switch {
	case strings.HasPrefix(remoteURL, "git@github.com:"):
		rest := strings.TrimPrefix(remoteURL, "git@github.com:")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("unrecognized remote url %q", remoteURL)
		}
		return "git@github.com:" + owner + "/" + parts[1], nil
	case strings.HasPrefix(remoteURL, "https://github.com/"):
		rest := strings.TrimPrefix(remoteURL, "https://github.com/")
		parts := strings.SplitN(rest, "/", 2)
		if len(parts) != 2 {
			return "", fmt.Errorf("unrecognized remote url %q", remoteURL)
		}
		return "https://github.com/" + owner + "/" + parts[1], nil
	default:
		return "", fmt.Errorf("unsupported remote url scheme %q", remoteURL)
	}
}

func (g *Git) Diff(ctx context.Context, path, revSpec string, includeUntracked bool) (string, error) {
	args := []string{"-c", "color.ui=false", "diff"}
	if revSpec != "" {
		args = append(args, revSpec)
	}
	out, err := g.run(ctx, path, args...)
	if err != nil {
		return "", fmt.Errorf("diffing: %w", err)
	}
	if !includeUntracked {
		return out, nil
	}
	untracked, err := g.run(ctx, path, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return out, nil
	}
	var buf strings.Builder
	buf.WriteString(out)
	for _, f := range strings.Split(strings.TrimSpace(untracked), "\n") {
		if f == "" {
			continue
		}
		diff, err := g.run(ctx, path, "-c", "color.ui=false", "diff", "--no-index", "/dev/null", f)
		if err != nil && diff == "" {
			continue
		}
		buf.WriteString(diff)
	}
	return buf.String(), nil
}

func (g *Git) ApplyPatch(ctx context.Context, path string, patch []byte, cached, reverse, threeWay bool) error {
	args := []string{"apply", "--recount"}
	if cached {
		args = append(args, "--cached")
	}
	if reverse {
		args = append(args, "--reverse")
	}
	if threeWay {
		args = append(args, "--3way")
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = path
	cmd.Stdin = bytes.NewReader(patch)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("applying patch: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// ParseRemoteBranchSpec splits "origin/feature" into ("origin", "feature").
func ParseRemoteBranchSpec(spec string) (remote, branch string, ok bool) {
	i := strings.Index(spec, "/")
	if i <= 0 || i == len(spec)-1 {
		return "", "", false
	}
	return spec[:i], spec[i+1:], true
}

// ParseForkBranchSpec splits "owner:feature" into ("owner", "feature").
func ParseForkBranchSpec(spec string) (owner, branch string, ok bool) {
	i := strings.Index(spec, ":")
	if i <= 0 || i == len(spec)-1 {
		return "", "", false
	}
	return spec[:i], spec[i+1:], true
}

func (g *Git) GetDefaultBranch(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "", "symbolic-ref", "refs/remotes/origin/HEAD")
	if err == nil {
		ref := strings.TrimSpace(out)
		return strings.TrimPrefix(ref, "refs/remotes/origin/"), nil
	}
	for _, candidate := range []string{"main", "master"} {
		if g.BranchExists(ctx, candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not determine default branch")
}
