package difftool

import "testing"

const sampleDiff = `diff --git a/foo.go b/foo.go
index 1234567..89abcde 100644
--- a/foo.go
+++ b/foo.go
@@ -1,3 +1,3 @@
-old line
+new line
 context
@@ -10,3 +10,3 @@
-another old
+another new
 context
`

func TestParseHunksSplitsPerFile(t *testing.T) {
	hunks := ParseHunks(sampleDiff)
	if len(hunks) != 2 {
		t.Fatalf("expected 2 hunks, got %d", len(hunks))
	}
	for _, h := range hunks {
		if h.Filename != "foo.go" {
			t.Errorf("expected filename foo.go, got %q", h.Filename)
		}
		if h.FileHeader == "" {
			t.Error("expected non-empty file header")
		}
	}
}

func TestParseHunkHeader(t *testing.T) {
	oldStart, newStart, ok := ParseHunkHeader("@@ -10,5 +12,7 @@\n context")
	if !ok {
		t.Fatal("expected header to parse")
	}
	if oldStart != 10 || newStart != 12 {
		t.Errorf("got (%d, %d), want (10, 12)", oldStart, newStart)
	}
}

func TestSplitNoInteriorContext(t *testing.T) {
	hunks := ParseHunks(sampleDiff)
	if got := hunks[0].Split(); got != nil {
		t.Errorf("expected no split for small hunk, got %d sub-hunks", len(got))
	}
}

func TestSplitOnLongContextRun(t *testing.T) {
	h := Hunk{
		Filename:   "foo.go",
		FileHeader: "diff --git a/foo.go b/foo.go",
		HunkBody: "@@ -1,10 +1,10 @@\n" +
			"-removed\n" +
			"+added\n" +
			" ctx1\n" +
			" ctx2\n" +
			" ctx3\n" +
			" ctx4\n" +
			" ctx5\n" +
			"-removed2\n" +
			"+added2\n",
	}
	sub := h.Split()
	if len(sub) != 2 {
		t.Fatalf("expected 2 sub-hunks, got %d", len(sub))
	}
	for _, s := range sub {
		if _, _, ok := ParseHunkHeader(s.HunkBody); !ok {
			t.Errorf("sub-hunk has unparseable header: %q", s.HunkBody)
		}
	}
}

func TestPatchRendersApplyableForm(t *testing.T) {
	h := Hunk{FileHeader: "diff --git a/x b/x", HunkBody: "@@ -1 +1 @@\n-a\n+b"}
	patch := h.Patch()
	if patch != "diff --git a/x b/x\n@@ -1 +1 @@\n-a\n+b\n" {
		t.Errorf("unexpected patch form: %q", patch)
	}
}
