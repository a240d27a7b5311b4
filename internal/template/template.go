// Package template is the multi-worktree generator (spec §4.D): it
// expands one `add` invocation into N consistent (branch, handle, agent,
// prompt-context) specs, renders branch-name/prompt-body templates with a
// small Jinja-like engine, and enforces the reserved-key policy that keeps
// foreach matrices from shadowing the context keys the workflow engine
// itself depends on.
package template

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReservedKeys cannot be shadowed by a foreach matrix column: they are
// filtered out of both the top-level template context and foreach_vars,
// but remain available for Spec.Agent extraction (spec §4.D, §GLOSSARY).
var ReservedKeys = map[string]bool{
	"base_name":    true,
	"agent":        true,
	"num":          true,
	"foreach_vars": true,
}

// Spec is one expanded worktree specification: a branch name, an optional
// agent, and the template context used to render prompt bodies.
type Spec struct {
	Branch  string
	Agent   string
	Context map[string]any
}

// GenerateWorktreeSpecs expands one `add` invocation into N specs,
// following the mode precedence in spec §4.D:
//
//   - Single: agents <= 1 && count == nil && foreachRows == nil emits one
//     spec with the raw baseName, completely unrendered, preserving user
//     intent verbatim.
//   - Foreach: one spec per row; the "agent" column becomes Spec.Agent and
//     is filtered out of the foreach-vars iteration.
//   - Count: emit count specs numbered 1..count, sharing the first agent
//     (if any).
//   - Agents: one spec per agent, with "agent" bound in the context.
func GenerateWorktreeSpecs(baseName string, agents []string, count int, foreachRows []map[string]string, branchTemplate string) ([]Spec, error) {
	switch {
	case len(agents) <= 1 && count == 0 && foreachRows == nil:
		var agent string
		if len(agents) == 1 {
			agent = agents[0]
		}
		return []Spec{{
			Branch: baseName,
			Agent:  agent,
			Context: map[string]any{
				"base_name": baseName,
				"agent":     agent,
			},
		}}, nil

	case foreachRows != nil:
		return generateForeachSpecs(baseName, foreachRows, branchTemplate)

	case count > 0:
		return generateCountSpecs(baseName, agents, count, branchTemplate)

	default:
		return generateAgentSpecs(baseName, agents, branchTemplate)
	}
}

func generateForeachSpecs(baseName string, rows []map[string]string, branchTemplate string) ([]Spec, error) {
	specs := make([]Spec, 0, len(rows))
	for _, row := range rows {
		agent := row["agent"]
		foreachVars := map[string]any{}
		ctx := map[string]any{
			"base_name": baseName,
			"agent":     agent,
		}
		for k, v := range row {
			if ReservedKeys[k] {
				continue
			}
			ctx[k] = v
			foreachVars[k] = v
		}
		ctx["foreach_vars"] = foreachVars

		branch := baseName
		if branchTemplate != "" {
			rendered, err := Render(branchTemplate, ctx)
			if err != nil {
				return nil, fmt.Errorf("rendering branch template: %w", err)
			}
			branch = rendered
		}
		specs = append(specs, Spec{Branch: branch, Agent: agent, Context: ctx})
	}
	return specs, nil
}

func generateCountSpecs(baseName string, agents []string, count int, branchTemplate string) ([]Spec, error) {
	var agent string
	if len(agents) > 0 {
		agent = agents[0]
	}
	specs := make([]Spec, 0, count)
	for n := 1; n <= count; n++ {
		ctx := map[string]any{
			"base_name": baseName,
			"agent":     agent,
			"num":       n,
		}
		branch := fmt.Sprintf("%s-%d", baseName, n)
		if branchTemplate != "" {
			rendered, err := Render(branchTemplate, ctx)
			if err != nil {
				return nil, fmt.Errorf("rendering branch template: %w", err)
			}
			branch = rendered
		}
		specs = append(specs, Spec{Branch: branch, Agent: agent, Context: ctx})
	}
	return specs, nil
}

func generateAgentSpecs(baseName string, agents []string, branchTemplate string) ([]Spec, error) {
	specs := make([]Spec, 0, len(agents))
	for _, agent := range agents {
		ctx := map[string]any{
			"base_name": baseName,
			"agent":     agent,
		}
		branch := fmt.Sprintf("%s-%s", baseName, agent)
		if branchTemplate != "" {
			rendered, err := Render(branchTemplate, ctx)
			if err != nil {
				return nil, fmt.Errorf("rendering branch template: %w", err)
			}
			branch = rendered
		}
		specs = append(specs, Spec{Branch: branch, Agent: agent, Context: ctx})
	}
	return specs, nil
}

// ParseForeachMatrix parses a CLI foreach string of the form
// "k1:v1,v2;k2:w1,w2" into row dicts, zipping (not cross-producting) the
// value lists, which must all share the same length (spec §4.D, §8).
func ParseForeachMatrix(s string) ([]map[string]string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty foreach matrix")
	}
	groups := strings.Split(s, ";")
	columns := make(map[string][]string, len(groups))
	order := make([]string, 0, len(groups))
	var rowCount = -1

	for _, group := range groups {
		group = strings.TrimSpace(group)
		if group == "" {
			continue
		}
		i := strings.Index(group, ":")
		if i <= 0 {
			return nil, fmt.Errorf("invalid foreach segment %q: expected key:v1,v2", group)
		}
		key := strings.TrimSpace(group[:i])
		valuesPart := group[i+1:]
		if valuesPart == "" {
			return nil, fmt.Errorf("foreach key %q has no values", key)
		}
		if _, dup := columns[key]; dup {
			return nil, fmt.Errorf("duplicate foreach key %q", key)
		}
		values := strings.Split(valuesPart, ",")
		for i, v := range values {
			values[i] = strings.TrimSpace(v)
			if values[i] == "" {
				return nil, fmt.Errorf("foreach key %q has an empty value", key)
			}
		}
		if rowCount == -1 {
			rowCount = len(values)
		} else if len(values) != rowCount {
			return nil, fmt.Errorf("foreach key %q has %d values, expected %d (all columns must zip to equal length)", key, len(values), rowCount)
		}
		columns[key] = values
		order = append(order, key)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("foreach matrix has no key:value groups")
	}

	rows := make([]map[string]string, rowCount)
	for i := 0; i < rowCount; i++ {
		row := make(map[string]string, len(order))
		for _, key := range order {
			row[key] = columns[key][i]
		}
		rows[i] = row
	}
	return rows, nil
}

var slugNonAlnum = regexp.MustCompile(`[^a-z0-9]+`)
var slugDashes = regexp.MustCompile(`-+`)

// Slugify lowercases s, replaces every run of non [a-z0-9] characters with
// a single dash, and strips leading/trailing dashes (spec §4.D). Case
// folding uses golang.org/x/text/cases so multi-byte casing (e.g. Turkish
// İ) is lowered before the ASCII filter runs.
func Slugify(s string) string {
	lower := cases.Lower(language.Und).String(s)
	dashed := slugNonAlnum.ReplaceAllString(lower, "-")
	collapsed := slugDashes.ReplaceAllString(dashed, "-")
	return strings.Trim(collapsed, "-")
}
