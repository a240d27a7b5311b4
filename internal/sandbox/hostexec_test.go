package sandbox

import (
	"strings"
	"testing"
)

func TestGenerateMacOSProfileUsesParams(t *testing.T) {
	profile := generateMacOSProfile()
	if !containsAll(profile, `(param "HOME_DIR")`, `(param "WORKTREE")`) {
		t.Fatalf("profile must reference HOME_DIR and WORKTREE only via (param ...): %s", profile)
	}
	for _, d := range denyReadDirs {
		if !containsAll(profile, d) {
			t.Errorf("profile missing deny rule for %s", d)
		}
	}
}

func TestGenerateMacOSProfileNeverInterpolatesRawPaths(t *testing.T) {
	profile := generateMacOSProfile()
	if containsAll(profile, "/Users/") {
		t.Fatalf("profile must not contain a literal home directory path: %s", profile)
	}
}

func TestDenyListsAreNonEmpty(t *testing.T) {
	if len(denyReadDirs) == 0 || len(denyReadFiles) == 0 {
		t.Fatal("expected non-empty deny lists")
	}
}

func containsAll(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
