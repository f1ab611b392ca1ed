package search

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// SnippetWindow is the number of characters kept on each side of a match.
	SnippetWindow = 50
	// MaxMatchesPerItem bounds the match list of a single item.
	MaxMatchesPerItem = 10

	ellipsis = "..."
)

// xmlTagLabels maps structured-document element names to readable labels.
var xmlTagLabels = map[string]string{
	"label":             "Element Label",
	"formula":           "Formula",
	"errorMessage":      "Error Message",
	"description":       "Description",
	"name":              "API Name",
	"processType":       "Process Type",
	"assignmentItems":   "Assignment",
	"conditions":        "Condition",
	"value":             "Value",
	"stringValue":       "String Value",
	"field":             "Field Reference",
	"object":            "Object",
	"elementReference":  "Element Reference",
	"inputAssignments":  "Input Assignment",
	"outputAssignments": "Output Assignment",
	"recordFilters":     "Record Filter",
	"actionName":        "Action Name",
	"targetReference":   "Target Reference",
}

var openingTag = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_.:-]*)`)

// Scanner finds line-level matches of one term.
type Scanner struct {
	pattern    *regexp.Regexp
	maxMatches int
}

// NewScanner builds a scanner for term. maxMatches <= 0 uses
// MaxMatchesPerItem.
func NewScanner(term string, maxMatches int) *Scanner {
	if maxMatches <= 0 {
		maxMatches = MaxMatchesPerItem
	}
	return &Scanner{
		pattern:    linePattern(term),
		maxMatches: maxMatches,
	}
}

// ScanBody returns the matches in body, top to bottom, stopping at the cap.
// Bodies of TargetDocument categories get XML element labels.
func (s *Scanner) ScanBody(body string, spec CategorySpec) []MatchRecord {
	if strings.TrimSpace(body) == "" {
		return nil
	}

	lines := strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n")
	structured := spec.Target == TargetDocument

	var matches []MatchRecord
	for i, line := range lines {
		loc := s.pattern.FindStringIndex(line)
		if loc == nil {
			continue
		}

		snippet, highlights := s.window(line, loc)
		matches = append(matches, MatchRecord{
			Line:       i + 1,
			Snippet:    snippet,
			Highlights: highlights,
			Context:    contextBlock(lines, i),
			Label:      lineLabel(line, i+1, spec, structured),
		})

		if len(matches) >= s.maxMatches {
			break
		}
	}
	return matches
}

// ScanFields tests each configured field of a record's values.
func (s *Scanner) ScanFields(values map[string]string, spec CategorySpec) []MatchRecord {
	var matches []MatchRecord
	for _, f := range spec.Fields {
		value := strings.TrimSpace(values[f.Name])
		if value == "" {
			continue
		}
		// Long descriptions may span lines; report the first matching one.
		for _, line := range strings.Split(value, "\n") {
			loc := s.pattern.FindStringIndex(line)
			if loc == nil {
				continue
			}
			snippet, highlights := s.window(line, loc)
			matches = append(matches, MatchRecord{
				Line:       0,
				Snippet:    snippet,
				Highlights: highlights,
				Context:    f.Label + ": " + strings.TrimSpace(line),
				Label:      fmt.Sprintf("%s (%s)", f.Label, spec.DisplayName),
			})
			break
		}
		if len(matches) >= s.maxMatches {
			break
		}
	}
	return matches
}

// Matches reports whether text contains the term.
func (s *Scanner) Matches(text string) bool {
	return s.pattern.MatchString(text)
}

// window cuts SnippetWindow characters on each side of the match at loc,
// trims surrounding whitespace and adds ellipsis markers where the line was
// clamped. Highlights cover every occurrence inside the snippet.
func (s *Scanner) window(line string, loc []int) (string, []Highlight) {
	start := backRunes(line, loc[0], SnippetWindow)
	end := forwardRunes(line, loc[1], SnippetWindow)

	text := line[start:end]
	matchStart, matchEnd := loc[0]-start, loc[1]-start

	lead := len(text) - len(strings.TrimLeft(text, " \t"))
	if lead > matchStart {
		lead = matchStart
	}
	trail := len(text) - len(strings.TrimRight(text, " \t"))
	if trail > len(text)-matchEnd {
		trail = len(text) - matchEnd
	}
	text = text[lead : len(text)-trail]

	prefix, suffix := "", ""
	if start > 0 {
		prefix = ellipsis
	}
	if end < len(line) {
		suffix = ellipsis
	}

	var highlights []Highlight
	for _, m := range s.pattern.FindAllStringIndex(text, -1) {
		highlights = append(highlights, Highlight{
			Start: m[0] + len(prefix),
			End:   m[1] + len(prefix),
		})
	}

	return prefix + text + suffix, highlights
}

// backRunes steps back up to n runes from byte offset pos.
func backRunes(s string, pos, n int) int {
	for i := 0; i < n && pos > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(s[:pos])
		pos -= size
	}
	return pos
}

// forwardRunes steps forward up to n runes from byte offset pos.
func forwardRunes(s string, pos, n int) int {
	for i := 0; i < n && pos < len(s); i++ {
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}
	return pos
}

// contextBlock returns the previous, current and next lines, skipping
// blank neighbours, each prefixed with its 1-based line number.
func contextBlock(lines []string, i int) string {
	var parts []string
	if i > 0 && strings.TrimSpace(lines[i-1]) != "" {
		parts = append(parts, fmt.Sprintf("%d: %s", i, strings.TrimSpace(lines[i-1])))
	}
	parts = append(parts, fmt.Sprintf("%d: %s", i+1, strings.TrimSpace(lines[i])))
	if i+1 < len(lines) && strings.TrimSpace(lines[i+1]) != "" {
		parts = append(parts, fmt.Sprintf("%d: %s", i+2, strings.TrimSpace(lines[i+1])))
	}
	return strings.Join(parts, "\n")
}

// lineLabel names where a match sits. Structured documents use the first
// opening tag on the line; plain source uses the line number.
func lineLabel(line string, lineNum int, spec CategorySpec, structured bool) string {
	if structured {
		if m := openingTag.FindStringSubmatch(line); m != nil {
			tag := m[1]
			if label, ok := xmlTagLabels[tag]; ok {
				return fmt.Sprintf("%s (%s)", label, spec.DisplayName)
			}
			return fmt.Sprintf("%s XML (%s)", spec.DisplayName, tag)
		}
	}
	return fmt.Sprintf("Line %d (%s)", lineNum, spec.DisplayName)
}
