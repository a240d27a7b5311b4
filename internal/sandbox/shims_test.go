package sandbox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCreateShimDirectory(t *testing.T) {
	dir := t.TempDir()
	shimBin, err := CreateShimDirectory(dir, []string{"just", "cargo", "npm"})
	if err != nil {
		t.Fatalf("CreateShimDirectory() error: %v", err)
	}

	dispatcher := filepath.Join(shimBin, "_shim")
	data, err := os.ReadFile(dispatcher)
	if err != nil {
		t.Fatalf("reading dispatcher: %v", err)
	}
	if !strings.Contains(string(data), "workmux host-exec") {
		t.Errorf("dispatcher missing host-exec invocation: %q", data)
	}

	for _, cmd := range []string{"just", "cargo", "npm"} {
		link := filepath.Join(shimBin, cmd)
		info, err := os.Lstat(link)
		if err != nil {
			t.Fatalf("lstat %s: %v", cmd, err)
		}
		if info.Mode()&os.ModeSymlink == 0 {
			t.Errorf("%s is not a symlink", cmd)
		}
		target, err := os.Readlink(link)
		if err != nil || target != "_shim" {
			t.Errorf("%s symlink target = %q, %v", cmd, target, err)
		}
	}
}

func TestCreateShimDirectorySkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	shimBin, err := CreateShimDirectory(dir, []string{"valid", "/bin/evil", ""})
	if err != nil {
		t.Fatalf("CreateShimDirectory() error: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(shimBin, "valid")); err != nil {
		t.Errorf("expected valid shim to exist: %v", err)
	}
	if _, err := os.Lstat(filepath.Join(shimBin, "evil")); err == nil {
		t.Error("expected invalid command name to be skipped")
	}
}

func TestCreateShimDirectoryIdempotent(t *testing.T) {
	dir := t.TempDir()
	if _, err := CreateShimDirectory(dir, []string{"just"}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := CreateShimDirectory(dir, []string{"just"}); err != nil {
		t.Fatalf("second run: %v", err)
	}
}

func TestEffectiveHostCommands(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"empty", nil, []string{"afplay"}},
		{"merges user", []string{"just", "cargo"}, []string{"afplay", "just", "cargo"}},
		{"deduplicates", []string{"afplay", "just"}, []string{"afplay", "just"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveHostCommands(tt.in)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}
