package search

import (
	"strings"
	"time"
)

// Highlight marks a matched region in a snippet, as byte offsets.
type Highlight struct {
	Start int
	End   int
}

// MatchRecord is one hit inside an item. Line is 1-based for body matches
// and 0 for matches on a metadata field such as a name or label.
type MatchRecord struct {
	Line       int
	Snippet    string
	Highlights []Highlight
	Context    string // surrounding lines, "N: text" per line
	Label      string // human-readable location, e.g. "Line 5 (Apex Class)"
}

// Render returns the snippet with every highlighted region passed through
// mark, e.g. to bold it in a terminal.
func (m MatchRecord) Render(mark func(string) string) string {
	if len(m.Highlights) == 0 || mark == nil {
		return m.Snippet
	}

	var b strings.Builder
	last := 0
	for _, h := range m.Highlights {
		if h.Start < last || h.End > len(m.Snippet) || h.Start >= h.End {
			continue
		}
		b.WriteString(m.Snippet[last:h.Start])
		b.WriteString(mark(m.Snippet[h.Start:h.End]))
		last = h.End
	}
	b.WriteString(m.Snippet[last:])
	return b.String()
}

// Result is one matching metadata item.
type Result struct {
	ID           string // "{category}-{logicalId}"
	Category     Category
	CategoryName string
	Name         string
	Label        string
	FileName     string
	Matches      []MatchRecord
	TotalMatches int
}

// BranchStatus is how a dispatcher branch settled.
type BranchStatus string

const (
	BranchOK             BranchStatus = "ok"
	BranchFailed         BranchStatus = "failed"
	BranchTimedOut       BranchStatus = "timeout"
	BranchSessionExpired BranchStatus = "session_expired"
)

// BranchReport summarizes one dispatcher branch.
type BranchReport struct {
	Name     string
	Status   BranchStatus
	Items    int
	Duration time.Duration
	Err      error
}

// Response is what a search returns to the presentation layer.
type Response struct {
	Term     string
	Results  []Result
	Branches []BranchReport
	Duration time.Duration
}

// Partial reports whether any branch failed or timed out.
func (r *Response) Partial() bool {
	for _, b := range r.Branches {
		if b.Status != BranchOK {
			return true
		}
	}
	return false
}

// Options narrows a single search.
type Options struct {
	// Categories restricts dispatch; empty means every category.
	Categories []Category
	// Limit caps the result count below the service maximum.
	Limit int
}
