package template

import (
	"reflect"
	"testing"
)

func TestGenerateWorktreeSpecsSingle(t *testing.T) {
	specs, err := GenerateWorktreeSpecs("feature-x", nil, 0, nil, "")
	if err != nil {
		t.Fatalf("GenerateWorktreeSpecs() error: %v", err)
	}
	if len(specs) != 1 {
		t.Fatalf("got %d specs, want 1", len(specs))
	}
	if specs[0].Branch != "feature-x" {
		t.Errorf("got branch %q, want raw base_name preserved", specs[0].Branch)
	}
}

func TestGenerateWorktreeSpecsAgentsMulti(t *testing.T) {
	specs, err := GenerateWorktreeSpecs("auth", []string{"claude", "gemini"}, 0, nil, "{{ base_name }}-{{ agent }}")
	if err != nil {
		t.Fatalf("GenerateWorktreeSpecs() error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Branch != "auth-claude" || specs[1].Branch != "auth-gemini" {
		t.Errorf("got branches %q, %q", specs[0].Branch, specs[1].Branch)
	}
	seen := map[string]bool{}
	for _, s := range specs {
		if seen[s.Branch] {
			t.Errorf("duplicate branch name %q across specs", s.Branch)
		}
		seen[s.Branch] = true
	}
}

func TestGenerateWorktreeSpecsCount(t *testing.T) {
	specs, err := GenerateWorktreeSpecs("task", nil, 3, nil, "")
	if err != nil {
		t.Fatalf("GenerateWorktreeSpecs() error: %v", err)
	}
	if len(specs) != 3 {
		t.Fatalf("got %d specs, want 3", len(specs))
	}
	for i, s := range specs {
		if s.Context["num"] != i+1 {
			t.Errorf("spec %d: num = %v, want %d", i, s.Context["num"], i+1)
		}
	}
}

// TestForeachFiltersAllReservedKeys is the subtle behavior called out in
// spec §4.D: the `agent` foreach column becomes Spec.Agent and is excluded
// from foreach_vars, so a branch template referencing `agent` through the
// slugify filter doesn't also see it duplicated as a generic foreach var.
func TestForeachFiltersAllReservedKeys(t *testing.T) {
	rows := []map[string]string{
		{"agent": "claude", "base_name": "sneaky", "num": "99"},
		{"agent": "gemini", "base_name": "sneaky", "num": "99"},
	}
	specs, err := GenerateWorktreeSpecs("feature", nil, 0, rows, "{{ base_name }}-{{ agent | slugify }}")
	if err != nil {
		t.Fatalf("GenerateWorktreeSpecs() error: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[0].Agent != "claude" {
		t.Errorf("specs[0].Agent = %q, want claude", specs[0].Agent)
	}
	if specs[0].Branch != "feature-claude" {
		t.Errorf("got branch %q, want feature-claude (reserved base_name/num from the row must not override the real base_name)", specs[0].Branch)
	}
	fv, ok := specs[0].Context["foreach_vars"].(map[string]any)
	if !ok {
		t.Fatalf("foreach_vars missing or wrong type: %#v", specs[0].Context["foreach_vars"])
	}
	for _, reserved := range []string{"base_name", "agent", "num", "foreach_vars"} {
		if _, shadowed := fv[reserved]; shadowed {
			t.Errorf("foreach_vars contains reserved key %q, should have been filtered", reserved)
		}
	}
}

func TestParseForeachMatrix(t *testing.T) {
	rows, err := ParseForeachMatrix("k1:v1,v2;k2:w1,w2")
	if err != nil {
		t.Fatalf("ParseForeachMatrix() error: %v", err)
	}
	want := []map[string]string{
		{"k1": "v1", "k2": "w1"},
		{"k1": "v2", "k2": "w2"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Errorf("got %+v, want %+v", rows, want)
	}
}

func TestParseForeachMatrixErrors(t *testing.T) {
	cases := []string{
		"",
		"k:",
		"k:a;k:b",
		"k:a,b;j:c",
	}
	for _, s := range cases {
		if _, err := ParseForeachMatrix(s); err == nil {
			t.Errorf("ParseForeachMatrix(%q) expected error, got nil", s)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Hello World!":  "hello-world",
		"--Leading/Trailing--": "leading-trailing",
		"a___b":         "a-b",
		"UPPER CASE 123": "upper-case-123",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRenderUnknownFilterError(t *testing.T) {
	if _, err := Render("{{ x | nope }}", map[string]any{"x": "y"}); err == nil {
		t.Error("expected error for unknown filter")
	}
}

func TestRenderUndefinedKeyIsEmpty(t *testing.T) {
	got, err := Render("[{{ missing }}]", map[string]any{})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if got != "[]" {
		t.Errorf("got %q, want []", got)
	}
}

func TestParsePromptFileForeachRoundTrip(t *testing.T) {
	content := "---\nforeach:\n  agent: [claude, gemini]\n---\nDo the thing.\n"
	fm, body, err := ParsePromptFile(content)
	if err != nil {
		t.Fatalf("ParsePromptFile() error: %v", err)
	}
	if body != "Do the thing.\n" {
		t.Errorf("got body %q", body)
	}
	rows, err := fm.ForeachRows()
	if err != nil {
		t.Fatalf("ForeachRows() error: %v", err)
	}
	if len(rows) != 2 || rows[0]["agent"] != "claude" || rows[1]["agent"] != "gemini" {
		t.Errorf("got rows %+v", rows)
	}
}

func TestParsePromptFileNoFrontmatter(t *testing.T) {
	fm, body, err := ParsePromptFile("just a prompt\n")
	if err != nil {
		t.Fatalf("ParsePromptFile() error: %v", err)
	}
	if len(fm.Foreach) != 0 {
		t.Errorf("expected no foreach, got %+v", fm.Foreach)
	}
	if body != "just a prompt\n" {
		t.Errorf("got body %q", body)
	}
}
