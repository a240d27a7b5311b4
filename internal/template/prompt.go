package template

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptFrontmatter is the YAML block fenced by `---` at the start of a
// prompt file (spec §6): `foreach: { k: [v, v, ...], ... }`. All value
// lists must have equal length; `agent` is special-cased by the template
// engine, not here.
type PromptFrontmatter struct {
	Foreach map[string][]string `yaml:"foreach"`
}

// ParsePromptFile splits a prompt file into its frontmatter (if any) and
// body. A file with no `---`-fenced frontmatter returns a zero-value
// PromptFrontmatter and the file contents unchanged as the body.
func ParsePromptFile(content string) (PromptFrontmatter, string, error) {
	trimmed := strings.TrimLeft(content, "\n")
	if !strings.HasPrefix(trimmed, "---") {
		return PromptFrontmatter{}, content, nil
	}
	rest := strings.TrimPrefix(trimmed, "---")
	rest = strings.TrimPrefix(rest, "\n")
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return PromptFrontmatter{}, content, nil
	}
	fmBlock := rest[:end]
	body := rest[end+len("\n---"):]
	body = strings.TrimPrefix(body, "\n")

	var fm PromptFrontmatter
	if err := yaml.Unmarshal([]byte(fmBlock), &fm); err != nil {
		return PromptFrontmatter{}, "", fmt.Errorf("parsing prompt frontmatter: %w", err)
	}
	return fm, body, nil
}

// ForeachRows zips fm.Foreach's equal-length value lists into row dicts,
// the same shape ParseForeachMatrix produces from the CLI flag, so both
// entry points feed GenerateWorktreeSpecs identically.
func (fm PromptFrontmatter) ForeachRows() ([]map[string]string, error) {
	if len(fm.Foreach) == 0 {
		return nil, nil
	}
	rowCount := -1
	keys := make([]string, 0, len(fm.Foreach))
	for k := range fm.Foreach {
		keys = append(keys, k)
	}
	for _, k := range keys {
		n := len(fm.Foreach[k])
		if rowCount == -1 {
			rowCount = n
		} else if n != rowCount {
			return nil, fmt.Errorf("foreach key %q has %d values, expected %d", k, n, rowCount)
		}
	}
	rows := make([]map[string]string, rowCount)
	for i := 0; i < rowCount; i++ {
		row := make(map[string]string, len(keys))
		for _, k := range keys {
			row[k] = fm.Foreach[k][i]
		}
		rows[i] = row
	}
	return rows, nil
}
