// Package setup is the workspace materialization pipeline (spec §4.E):
// file copy/symlink operations with path-traversal guards, sequential
// post-create hook execution, and multiplexer pane layout, run against a
// freshly created worktree. Grounded on the teacher's internal/rig.CopyOverlay
// for the copy-with-permission-preservation idiom, generalized from a single
// fixed overlay directory to arbitrary glob patterns per spec §4.E.
package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileOpsResult records what CopyAndSymlink actually did, for callers that
// want to log or test against it.
type FileOpsResult struct {
	Copied    []string
	Symlinked []string
}

// CopyAndSymlink resolves copyPatterns and symlinkPatterns as globs
// relative to repoRoot, and materializes each matched file under destRoot
// at the same relative path. Every matched source is canonicalized and
// rejected if it escapes repoRoot (path-traversal defense); an existing
// destination is removed with symlink_metadata semantics — i.e. the
// destination entry itself is removed, never something it points to.
func CopyAndSymlink(repoRoot, destRoot string, copyPatterns, symlinkPatterns []string) (FileOpsResult, error) {
	var result FileOpsResult

	for _, pattern := range copyPatterns {
		matches, err := resolveGlob(repoRoot, pattern)
		if err != nil {
			return result, err
		}
		for _, rel := range matches {
			if err := copyFile(filepath.Join(repoRoot, rel), filepath.Join(destRoot, rel)); err != nil {
				return result, fmt.Errorf("copying %s: %w", rel, err)
			}
			result.Copied = append(result.Copied, rel)
		}
	}

	for _, pattern := range symlinkPatterns {
		matches, err := resolveGlob(repoRoot, pattern)
		if err != nil {
			return result, err
		}
		for _, rel := range matches {
			if err := symlinkRelative(repoRoot, destRoot, rel); err != nil {
				return result, fmt.Errorf("symlinking %s: %w", rel, err)
			}
			result.Symlinked = append(result.Symlinked, rel)
		}
	}

	return result, nil
}

// resolveGlob expands pattern against repoRoot and returns matches as
// paths relative to repoRoot, rejecting any match whose canonical form
// escapes repoRoot.
func resolveGlob(repoRoot, pattern string) ([]string, error) {
	canonicalRoot, err := filepath.EvalSymlinks(repoRoot)
	if err != nil {
		return nil, fmt.Errorf("resolving repo root: %w", err)
	}

	matches, err := filepath.Glob(filepath.Join(repoRoot, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
	}

	var rel []string
	for _, m := range matches {
		canonical, err := filepath.EvalSymlinks(m)
		if err != nil {
			// Symlink to a pattern under repoRoot whose target doesn't
			// resolve (e.g. dangling) is still a legitimate source for a
			// copy/symlink op; fall back to the non-symlink-resolved path
			// for the traversal check.
			canonical = m
		}
		relPath, err := filepath.Rel(canonicalRoot, canonical)
		if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			return nil, fmt.Errorf("path-traversal guard: %q escapes repo root", m)
		}
		if rel2, err := filepath.Rel(repoRoot, m); err == nil {
			rel = append(rel, rel2)
		}
	}
	return rel, nil
}

func copyFile(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("refusing to copy directory %s (copy patterns match files only)", src)
	}
	if err := removeDestination(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return nil
}

// symlinkRelative creates dest (under destRoot) as a symlink pointing at
// src (under repoRoot) using a relative target, so the worktree tree stays
// relocatable (spec §4.E: "copying the worktree tree elsewhere keeps links
// valid").
func symlinkRelative(repoRoot, destRoot, rel string) error {
	dest := filepath.Join(destRoot, rel)
	if err := removeDestination(dest); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	target, err := filepath.Rel(filepath.Dir(dest), filepath.Join(repoRoot, rel))
	if err != nil {
		return err
	}
	return os.Symlink(target, dest)
}

// removeDestination removes an existing destination entry using
// symlink_metadata semantics: it never follows into whatever an existing
// symlink points to, it just removes the link/file/empty-dir itself.
func removeDestination(dest string) error {
	if _, err := os.Lstat(dest); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return os.Remove(dest)
}
