package setup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestCopyAndSymlink(t *testing.T) {
	repo := t.TempDir()
	dest := t.TempDir()

	if err := os.WriteFile(filepath.Join(repo, ".env.local"), []byte("SECRET=1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(repo, "config"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(repo, "config", "secrets.yaml"), []byte("k: v\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := CopyAndSymlink(repo, dest, []string{".env.local"}, []string{"config/secrets.yaml"})
	if err != nil {
		t.Fatalf("CopyAndSymlink() error: %v", err)
	}
	if len(result.Copied) != 1 || len(result.Symlinked) != 1 {
		t.Fatalf("got result %+v", result)
	}

	data, err := os.ReadFile(filepath.Join(dest, ".env.local"))
	if err != nil || string(data) != "SECRET=1\n" {
		t.Errorf("copied file wrong: %v %q", err, data)
	}

	linkPath := filepath.Join(dest, "config", "secrets.yaml")
	info, err := os.Lstat(linkPath)
	if err != nil {
		t.Fatalf("lstat symlink: %v", err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Fatal("expected a symlink")
	}
	target, err := os.Readlink(linkPath)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.IsAbs(target) {
		t.Errorf("symlink target %q should be relative", target)
	}
}

// TestCopyAndSymlinkIdempotentSymlink verifies spec §8's round-trip
// property: running the symlink op twice yields the same relative target.
func TestCopyAndSymlinkIdempotentSymlink(t *testing.T) {
	repo := t.TempDir()
	dest := t.TempDir()
	if err := os.WriteFile(filepath.Join(repo, "secrets.yaml"), []byte("k: v\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := CopyAndSymlink(repo, dest, nil, []string{"secrets.yaml"}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	first, err := os.Readlink(filepath.Join(dest, "secrets.yaml"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := CopyAndSymlink(repo, dest, nil, []string{"secrets.yaml"}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	second, err := os.Readlink(filepath.Join(dest, "secrets.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Errorf("symlink target changed across runs: %q vs %q", first, second)
	}
}

func TestResolveGlobRejectsTraversal(t *testing.T) {
	repo := t.TempDir()
	outside := t.TempDir()
	if err := os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	rel, err := filepath.Rel(repo, filepath.Join(outside, "secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := resolveGlob(repo, rel); err == nil {
		t.Error("expected path-traversal guard to reject an escaping pattern")
	}
}

func TestRunHooksStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")
	err := RunHooks(context.Background(), dir, []string{
		"exit 1",
		"touch " + marker,
	})
	if err == nil {
		t.Fatal("expected error from failing hook")
	}
	if _, statErr := os.Stat(marker); statErr == nil {
		t.Error("later hook ran despite earlier failure")
	}
}
