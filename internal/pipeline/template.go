// Package pipeline provides query templating and the staged runner that
// research engines execute under.
package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderRe = regexp.MustCompile(`\{([a-zA-Z_][a-zA-Z0-9_]*)\}`)

// Template is a query string with {name} placeholders. Construction
// validates the syntax once so a typo fails at startup, not mid-run.
type Template struct {
	raw          string
	placeholders []string
}

// NewTemplate parses and validates raw. Unbalanced or empty braces are
// construction errors.
func NewTemplate(raw string) (Template, error) {
	stripped := placeholderRe.ReplaceAllString(raw, "")
	if strings.ContainsAny(stripped, "{}") {
		return Template{}, fmt.Errorf("template %q: stray or malformed braces", raw)
	}

	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(raw, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return Template{raw: raw, placeholders: names}, nil
}

// MustTemplate is NewTemplate for package-level literals.
func MustTemplate(raw string) Template {
	t, err := NewTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// Prompt parses raw without the stray-brace check. Prompt bodies carry
// literal JSON braces next to {name} placeholders, so only placeholder
// syntax is enforced; Render still fails fast on an unbound placeholder.
func Prompt(raw string) Template {
	seen := make(map[string]bool)
	var names []string
	for _, m := range placeholderRe.FindAllStringSubmatch(raw, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return Template{raw: raw, placeholders: names}
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t Template) Placeholders() []string {
	return append([]string(nil), t.placeholders...)
}

// Render substitutes vars into the template. Every placeholder must be
// bound; unused vars are fine.
func (t Template) Render(vars map[string]string) (string, error) {
	out := t.raw
	for _, name := range t.placeholders {
		v, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("template %q: missing value for {%s}", t.raw, name)
		}
		out = strings.ReplaceAll(out, "{"+name+"}", v)
	}
	return out, nil
}

// RenderCampus renders a single-placeholder campus template.
func (t Template) RenderCampus(campus string) (string, error) {
	return t.Render(map[string]string{"campus": campus})
}
