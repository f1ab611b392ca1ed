package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/asteroid-belt/metascope/internal/search"
)

var (
	fileStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00d4aa")).Bold(true)
	categoryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("141"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	markStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD700")).Bold(true)
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B6B6B"))
)

const rule = "──────────────────────────────────────────────────"

func highlight(s string) string { return markStyle.Render(s) }

// renderResponse prints results grouped by item, then a line saying which
// sources were searched.
func renderResponse(w io.Writer, resp *search.Response) {
	if len(resp.Results) == 0 {
		_, _ = fmt.Fprintf(w, "No matches for %q.\n", resp.Term)
	} else {
		total := 0
		for _, r := range resp.Results {
			total += r.TotalMatches
		}
		_, _ = fmt.Fprintf(w, "RESULTS (%d items, %d matches)\n", len(resp.Results), total)
		_, _ = fmt.Fprintln(w, rule)

		for _, r := range resp.Results {
			renderResult(w, r)
		}
	}

	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintln(w, renderCoverage(resp.Branches, resp.Duration))
	for _, b := range resp.Branches {
		if b.Status == search.BranchOK {
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s %s: %s\n", warnStyle.Render("!"), b.Name, branchReason(b))
	}
}

func renderResult(w io.Writer, r search.Result) {
	noun := "matches"
	if r.TotalMatches == 1 {
		noun = "match"
	}
	_, _ = fmt.Fprintf(w, "%s  %s  %s\n",
		fileStyle.Render(r.FileName),
		categoryStyle.Render(r.CategoryName),
		labelStyle.Render(fmt.Sprintf("(%d %s)", r.TotalMatches, noun)))

	for _, m := range r.Matches {
		_, _ = fmt.Fprintf(w, "    %s\n", labelStyle.Render(m.Label))
		_, _ = fmt.Fprintf(w, "      %s\n", m.Render(highlight))
	}
	if hidden := r.TotalMatches - len(r.Matches); hidden > 0 {
		_, _ = fmt.Fprintf(w, "    %s\n", dimStyle.Render(fmt.Sprintf("... and %d more", hidden)))
	}
	_, _ = fmt.Fprintln(w)
}

// renderCoverage draws how many branches completed as a bar.
func renderCoverage(branches []search.BranchReport, took time.Duration) string {
	total := len(branches)
	if total == 0 {
		return dimStyle.Render("No sources searched.")
	}

	done := 0
	for _, b := range branches {
		if b.Status == search.BranchOK {
			done++
		}
	}

	const width = 15
	filled := width * done / total
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	style := okStyle
	if done < total {
		style = warnStyle
	}
	return style.Render("["+bar+"]") +
		dimStyle.Render(fmt.Sprintf(" %d/%d sources in %s", done, total, took.Round(time.Millisecond)))
}

func branchReason(b search.BranchReport) string {
	switch b.Status {
	case search.BranchTimedOut:
		return warnStyle.Render("timed out")
	case search.BranchSessionExpired:
		return errorStyle.Render("session expired")
	default:
		if b.Err != nil {
			return errorStyle.Render(b.Err.Error())
		}
		return errorStyle.Render("failed")
	}
}
