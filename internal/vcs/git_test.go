package vcs

import "testing"

func TestParseRemoteBranchSpec(t *testing.T) {
	cases := []struct {
		spec       string
		remote     string
		branch     string
		ok         bool
	}{
		{"origin/feature", "origin", "feature", true},
		{"upstream/fix/thing", "upstream", "fix/thing", true},
		{"feature", "", "", false},
		{"origin/", "", "", false},
		{"/feature", "", "", false},
	}
	for _, c := range cases {
		remote, branch, ok := ParseRemoteBranchSpec(c.spec)
		if remote != c.remote || branch != c.branch || ok != c.ok {
			t.Errorf("ParseRemoteBranchSpec(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.spec, remote, branch, ok, c.remote, c.branch, c.ok)
		}
	}
}

func TestParseForkBranchSpec(t *testing.T) {
	cases := []struct {
		spec   string
		owner  string
		branch string
		ok     bool
	}{
		{"alice:feature", "alice", "feature", true},
		{"bob:fix/thing", "bob", "fix/thing", true},
		{"feature", "", "", false},
		{"alice:", "", "", false},
	}
	for _, c := range cases {
		owner, branch, ok := ParseForkBranchSpec(c.spec)
		if owner != c.owner || branch != c.branch || ok != c.ok {
			t.Errorf("ParseForkBranchSpec(%q) = (%q, %q, %v), want (%q, %q, %v)",
				c.spec, owner, branch, ok, c.owner, c.branch, c.ok)
		}
	}
}

func TestRewriteRemoteOwner(t *testing.T) {
	cases := []struct {
		url   string
		owner string
		want  string
	}{
		{"git@github.com:acme/repo.git", "alice", "git@github.com:alice/repo.git"},
		{"https://github.com/acme/repo.git", "alice", "https://github.com/alice/repo.git"},
	}
	for _, c := range cases {
		got, err := rewriteRemoteOwner(c.url, c.owner)
		if err != nil {
			t.Fatalf("rewriteRemoteOwner(%q, %q) error: %v", c.url, c.owner, err)
		}
		if got != c.want {
			t.Errorf("rewriteRemoteOwner(%q, %q) = %q, want %q", c.url, c.owner, got, c.want)
		}
	}
}

func TestRewriteRemoteOwnerUnsupportedScheme(t *testing.T) {
	if _, err := rewriteRemoteOwner("ssh://git@example.com/acme/repo.git", "alice"); err == nil {
		t.Error("expected error for unsupported remote scheme")
	}
}
