package template

import (
	"fmt"
	"regexp"
	"strings"
)

// exprPattern matches a Jinja-style `{{ name }}` or `{{ name | filter }}`
// substitution. The engine intentionally supports only bare-name lookups
// and a single trailing filter — branch names and prompt bodies never need
// more than that, and a fuller expression language would be its own
// dependency surface for no real benefit here.
var exprPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*(?:\|\s*([a-zA-Z0-9_]+)\s*)?\}\}`)

// filters are the named pipe transforms the renderer supports. Auto-escape
// is off per spec §4.D: values are substituted as their string form with no
// HTML/shell escaping, since the result feeds into branch names and plain
// text prompts, not markup.
var filters = map[string]func(string) string{
	"slugify": Slugify,
	"upper":   strings.ToUpper,
	"lower":   strings.ToLower,
}

// Render substitutes every `{{ key }}` / `{{ key | filter }}` occurrence in
// tmpl against ctx. An unknown key renders as the empty string (matching
// Jinja's default-undefined behavior) rather than erroring, since template
// bodies come from user-authored prompt frontmatter that may reference
// optional foreach columns.
func Render(tmpl string, ctx map[string]any) (string, error) {
	var renderErr error
	out := exprPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		sub := exprPattern.FindStringSubmatch(match)
		key, filterName := sub[1], sub[2]
		val, ok := ctx[key]
		if !ok {
			return ""
		}
		s := fmt.Sprint(val)
		if filterName == "" {
			return s
		}
		fn, ok := filters[filterName]
		if !ok {
			renderErr = fmt.Errorf("unknown template filter %q", filterName)
			return s
		}
		return fn(s)
	})
	if renderErr != nil {
		return "", renderErr
	}
	return out, nil
}
