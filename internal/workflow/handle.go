package workflow

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/workmux/workmux/internal/template"
)

// DeriveHandle computes a workspace handle from (branch, explicit name,
// naming strategy), matching spec §3: "Creation derives the handle from
// (branch, optional explicit name, naming strategy in config)".
func DeriveHandle(branch, explicitName, namingStrategy string) (string, error) {
	var handle string
	switch {
	case explicitName != "":
		handle = explicitName
	case namingStrategy == "slug":
		handle = template.Slugify(branch)
	default:
		handle = branch
	}
	if err := ValidateHandle(handle); err != nil {
		return "", err
	}
	return handle, nil
}

// ValidateHandle rejects the empty handle and any handle containing a path
// separator (spec §3 invariant).
func ValidateHandle(handle string) error {
	if handle == "" {
		return fmt.Errorf("handle cannot be empty")
	}
	if strings.ContainsRune(handle, '/') || strings.ContainsRune(handle, '\\') {
		return fmt.Errorf("handle %q cannot contain a path separator", handle)
	}
	return nil
}

// Handle returns the basename of a worktree path, the invariant spec §8
// tests as "handle(W) = basename(worktree_path(W))".
func Handle(worktreePath string) string {
	return filepath.Base(strings.TrimRight(worktreePath, "/"))
}

var duplicateHandleRe = regexp.MustCompile(`^(.*)-(\d+)$`)

// UniqueHandle scans existingNames (already prefix-stripped) for entries
// matching `{handle}(-N)?` and returns `handle-(max+1)`, with the first
// duplicate numbered -2 (spec §4.F `open --new`, window mode).
func UniqueHandle(handle string, existingNames []string) string {
	maxN := 1
	found := false
	for _, name := range existingNames {
		if name == handle {
			found = true
			continue
		}
		m := duplicateHandleRe.FindStringSubmatch(name)
		if m == nil || m[1] != handle {
			continue
		}
		n, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		found = true
		if n > maxN {
			maxN = n
		}
	}
	if !found {
		return handle
	}
	return fmt.Sprintf("%s-%d", handle, maxN+1)
}

// StripPrefix removes prefix from each name, dropping names that don't
// carry it, used to go from raw window/session names to bare handles.
func StripPrefix(names []string, prefix string) []string {
	var out []string
	for _, n := range names {
		if strings.HasPrefix(n, prefix) {
			out = append(out, strings.TrimPrefix(n, prefix))
		}
	}
	return out
}
