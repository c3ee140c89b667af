// internal/models/syntax.go
package models

import (
	"regexp"
	"strings"
)

// Accepted CSS color syntaxes: 3- or 6-digit hex, rgb(), rgba(), hsl(), hsla().
var cssColorRegexes = []*regexp.Regexp{
	regexp.MustCompile(`^#[0-9a-fA-F]{3}$`),
	regexp.MustCompile(`^#[0-9a-fA-F]{6}$`),
	regexp.MustCompile(`^rgb\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*\)$`),
	regexp.MustCompile(`^rgba\(\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*\d{1,3}\s*,\s*(0|1|0?\.\d+)\s*\)$`),
	regexp.MustCompile(`^hsl\(\s*\d{1,3}\s*,\s*\d{1,3}%\s*,\s*\d{1,3}%\s*\)$`),
	regexp.MustCompile(`^hsla\(\s*\d{1,3}\s*,\s*\d{1,3}%\s*,\s*\d{1,3}%\s*,\s*(0|1|0?\.\d+)\s*\)$`),
}

// cssLengthRegex accepts a number with a recognized CSS unit, or the
// literal 0.
var cssLengthRegex = regexp.MustCompile(`^(0|-?\d*\.?\d+(px|rem|em|vh|vw|vmin|vmax|%|ch|ex|pt))$`)

// IsCSSColor reports whether value matches one of the accepted CSS color
// syntaxes.
func IsCSSColor(value string) bool {
	trimmed := strings.TrimSpace(value)
	for _, re := range cssColorRegexes {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// IsCSSLength reports whether value is a CSS length with a recognized
// unit, or the literal 0.
func IsCSSLength(value string) bool {
	return cssLengthRegex.MatchString(strings.TrimSpace(value))
}

// IsFontWeight reports whether weight is a multiple of 100 in [100,900].
func IsFontWeight(weight int) bool {
	return weight >= 100 && weight <= 900 && weight%100 == 0
}
