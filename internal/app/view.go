package app

import (
	"github.com/asteroid-belt/metascope/internal/models"
	"github.com/asteroid-belt/metascope/internal/search"
)

// SearchView is the JSON shape of a search, shared by `search --json` and
// the MCP search tool.
type SearchView struct {
	Term       string       `json:"term"`
	Results    []ResultView `json:"results"`
	Partial    bool         `json:"partial"`
	Branches   []BranchView `json:"branches,omitempty"`
	DurationMS int64        `json:"duration_ms"`
}

// ResultView is one matching item.
type ResultView struct {
	ID           string      `json:"id"`
	Category     string      `json:"category"`
	CategoryName string      `json:"category_name"`
	Name         string      `json:"name"`
	Label        string      `json:"label,omitempty"`
	FileName     string      `json:"file_name"`
	TotalMatches int         `json:"total_matches"`
	Matches      []MatchView `json:"matches"`
}

// MatchView is one hit within an item. Line 0 means a name or field match.
type MatchView struct {
	Line    int    `json:"line"`
	Label   string `json:"label"`
	Snippet string `json:"snippet"`
	Context string `json:"context,omitempty"`
}

// BranchView reports a branch that did not complete.
type BranchView struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HistoryView is one recorded search.
type HistoryView struct {
	Term        string `json:"term"`
	Categories  string `json:"categories,omitempty"`
	ResultCount int    `json:"result_count"`
	DurationMS  int64  `json:"duration_ms"`
	Partial     bool   `json:"partial"`
	TopResult   string `json:"top_result,omitempty"`
	SearchedAt  string `json:"searched_at"`
}

// NewSearchView converts a response. Only branches that did not finish
// cleanly are listed.
func NewSearchView(resp *search.Response) SearchView {
	v := SearchView{
		Term:       resp.Term,
		Results:    make([]ResultView, 0, len(resp.Results)),
		Partial:    resp.Partial(),
		DurationMS: resp.Duration.Milliseconds(),
	}

	for _, r := range resp.Results {
		rv := ResultView{
			ID:           r.ID,
			Category:     string(r.Category),
			CategoryName: r.CategoryName,
			Name:         r.Name,
			Label:        r.Label,
			FileName:     r.FileName,
			TotalMatches: r.TotalMatches,
			Matches:      make([]MatchView, 0, len(r.Matches)),
		}
		for _, m := range r.Matches {
			rv.Matches = append(rv.Matches, MatchView{
				Line:    m.Line,
				Label:   m.Label,
				Snippet: m.Snippet,
				Context: m.Context,
			})
		}
		v.Results = append(v.Results, rv)
	}

	for _, b := range resp.Branches {
		if b.Status == search.BranchOK {
			continue
		}
		bv := BranchView{Name: b.Name, Status: string(b.Status)}
		if b.Err != nil {
			bv.Error = b.Err.Error()
		}
		v.Branches = append(v.Branches, bv)
	}

	return v
}

// NewHistoryView converts stored history rows, newest first.
func NewHistoryView(rows []models.SearchHistory) []HistoryView {
	out := make([]HistoryView, 0, len(rows))
	for _, h := range rows {
		out = append(out, HistoryView{
			Term:        h.Term,
			Categories:  h.Categories,
			ResultCount: h.ResultCount,
			DurationMS:  h.DurationMS,
			Partial:     h.Partial,
			TopResult:   h.TopResult,
			SearchedAt:  h.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return out
}
