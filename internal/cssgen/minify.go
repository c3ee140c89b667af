// internal/cssgen/minify.go
package cssgen

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	cssCommentRegex    = regexp.MustCompile(`/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`)
	whitespaceRegex    = regexp.MustCompile(`\s+`)
	aroundSymbolRegex  = regexp.MustCompile(`\s*([{}:;,>])\s*`)
	emptySemicolon     = regexp.MustCompile(`;+`)
	propertyShapeRegex = regexp.MustCompile(`^(--)?[a-zA-Z-][a-zA-Z0-9-]*$`)
)

// MinifyCSS strips comments, collapses whitespace, and removes redundant
// separators. Minifying already-minified CSS is a no-op.
func MinifyCSS(css string) string {
	out := cssCommentRegex.ReplaceAllString(css, "")
	out = whitespaceRegex.ReplaceAllString(out, " ")
	out = aroundSymbolRegex.ReplaceAllString(out, "$1")
	out = emptySemicolon.ReplaceAllString(out, ";")
	out = strings.ReplaceAll(out, ";}", "}")
	return strings.TrimSpace(out)
}

// ValidateCSS performs an advisory brace-balance and property-shape
// check. It is a sanity gate, not a parser; false positives on exotic
// but valid CSS are acceptable.
func ValidateCSS(css string) (bool, []string) {
	var problems []string

	depth := 0
	for i, r := range css {
		switch r {
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				problems = append(problems, fmt.Sprintf("unmatched closing brace at offset %d", i))
				depth = 0
			}
		}
	}
	if depth > 0 {
		problems = append(problems, fmt.Sprintf("%d unclosed brace(s)", depth))
	}

	problems = append(problems, checkPropertyNames(css)...)
	return len(problems) == 0, problems
}

// checkPropertyNames inspects declaration-shaped lines inside rule
// bodies for obviously malformed property names.
func checkPropertyNames(css string) []string {
	var problems []string
	stripped := cssCommentRegex.ReplaceAllString(css, "")
	// Force single-line rules apart so declarations land in their own
	// segments.
	stripped = strings.ReplaceAll(stripped, "{", "{\n")

	depth := 0
	for _, segment := range strings.FieldsFunc(stripped, func(r rune) bool { return r == ';' || r == '\n' }) {
		opens := strings.Count(segment, "{")
		closes := strings.Count(segment, "}")

		inBody := depth > 0
		depth += opens - closes
		if depth < 0 {
			depth = 0
		}
		if !inBody || opens > 0 {
			continue
		}

		trimmed := strings.TrimSpace(strings.TrimRight(segment, "}"))
		if trimmed == "" {
			continue
		}
		name, _, found := strings.Cut(trimmed, ":")
		if !found {
			problems = append(problems, fmt.Sprintf("declaration %q has no value", trimmed))
			continue
		}
		name = strings.TrimSpace(name)
		if !propertyShapeRegex.MatchString(name) {
			problems = append(problems, fmt.Sprintf("suspicious property name %q", name))
		}
	}
	return problems
}
