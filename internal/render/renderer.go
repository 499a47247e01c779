// Package render turns resolved templates into the final letter HTML handed
// to the rasterizer. Two interchangeable strategies share one variable map:
// a structural renderer for typed document trees and a flat token-substitution
// renderer for plain HTML templates.
package render

import (
	"regexp"
	"sort"

	"github.com/rowanrose/claimdocs/internal/doctree"
)

// Renderer produces a letter body from a variable map. Implementations are
// bound to one template at construction time.
type Renderer interface {
	RenderBody(vars map[string]string) (string, error)
}

// TreeRenderer walks a structured document, substituting variable and
// signature nodes, then applies the clause page-break workaround.
type TreeRenderer struct {
	Doc  *doctree.Node
	Logo string
}

// RenderBody implements Renderer.
func (r TreeRenderer) RenderBody(vars map[string]string) (string, error) {
	resolved := doctree.Resolve(r.Doc, vars)
	body := doctree.RenderHTML(resolved, r.Logo)
	return InsertClausePageBreak(body), nil
}

// FlatRenderer performs ordered token substitution over an HTML template.
// It is intentionally a dumb pass: no nesting, no conditionals.
type FlatRenderer struct {
	Template string
}

var leftoverToken = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// RenderBody implements Renderer. Every {{key}} occurrence is replaced
// case-insensitively; tokens referencing keys absent from the map are
// replaced with the empty string so placeholders never reach a letter.
// Keys substitute in sorted order so output is deterministic even when a
// substituted value itself contains a token.
func (r FlatRenderer) RenderBody(vars map[string]string) (string, error) {
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := r.Template
	for _, key := range keys {
		value := vars[key]
		pattern, err := regexp.Compile(`(?i)\{\{\s*` + regexp.QuoteMeta(key) + `\s*\}\}`)
		if err != nil {
			return "", err
		}
		out = pattern.ReplaceAllLiteralString(out, value)
	}
	return leftoverToken.ReplaceAllLiteralString(out, ""), nil
}
