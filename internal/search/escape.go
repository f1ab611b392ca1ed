package search

import (
	"regexp"
	"strings"
)

// soslReserved are the characters SOSL requires to be backslash-escaped.
const soslReserved = `?&|!{}[]()^~*:\"'+-`

// EscapeSOSL prefixes every SOSL reserved character in term with a backslash.
func EscapeSOSL(term string) string {
	var b strings.Builder
	b.Grow(len(term) * 2)
	for _, r := range term {
		if strings.ContainsRune(soslReserved, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// UnescapeSOSL removes one level of backslash escaping.
func UnescapeSOSL(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	escaped := false
	for _, r := range s {
		if r == '\\' && !escaped {
			escaped = true
			continue
		}
		escaped = false
		b.WriteRune(r)
	}
	return b.String()
}

// BuildSOSL renders the full-text fallback query for the given categories.
func BuildSOSL(term string, cats []Category) string {
	returning := make([]string, len(cats))
	for i, c := range cats {
		returning[i] = string(c) + "(Id, Name)"
	}
	return `FIND {"` + EscapeSOSL(term) + `"} IN ALL FIELDS RETURNING ` + strings.Join(returning, ", ")
}

// linePattern compiles a case-insensitive literal matcher for term. Regex
// metacharacters in user input are quoted so they match themselves.
func linePattern(term string) *regexp.Regexp {
	return regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
}
