package wmconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadNoConfig(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Backend != "tmux" {
		t.Errorf("expected default backend tmux, got %q", cfg.Backend)
	}
	if cfg.WindowPrefix != "wm-" {
		t.Errorf("expected default window prefix wm-, got %q", cfg.WindowPrefix)
	}
	if cfg.Mode != ModeWindow {
		t.Errorf("expected default mode window, got %q", cfg.Mode)
	}
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	content := "main_branch: trunk\nagent: claude\nfiles:\n  copy:\n    - .env.local\n"
	if err := os.WriteFile(filepath.Join(dir, "workmux.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MainBranch != "trunk" {
		t.Errorf("got main branch %q", cfg.MainBranch)
	}
	if len(cfg.Files.Copy) != 1 || cfg.Files.Copy[0] != ".env.local" {
		t.Errorf("got files %+v", cfg.Files)
	}
}

func TestLoadFindsNearestAncestor(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "workmux.yaml"), []byte("main_branch: trunk\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(sub)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MainBranch != "trunk" {
		t.Errorf("expected ancestor config to be found, got %+v", cfg)
	}
}

func TestInitRefusesExisting(t *testing.T) {
	dir := t.TempDir()
	if _, err := Init(dir); err != nil {
		t.Fatalf("first Init() error: %v", err)
	}
	if _, err := Init(dir); err == nil {
		t.Error("expected second Init() to fail")
	}
}

func TestResolveWorktreeDirDefault(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()
	got, err := cfg.ResolveWorktreeDir("/home/user/myproject")
	if err != nil {
		t.Fatalf("ResolveWorktreeDir() error: %v", err)
	}
	want := "/home/user/myproject__worktrees"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveWorktreeDirAbsolute(t *testing.T) {
	cfg := &Config{WorktreeDir: "/tmp/worktrees"}
	got, err := cfg.ResolveWorktreeDir("/home/user/myproject")
	if err != nil {
		t.Fatalf("ResolveWorktreeDir() error: %v", err)
	}
	if got != "/tmp/worktrees" {
		t.Errorf("got %q", got)
	}
}
