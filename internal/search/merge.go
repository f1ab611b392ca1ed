package search

import (
	"fmt"
	"sort"
	"strings"
)

// Hit is one scanned item produced by a dispatcher branch.
type Hit struct {
	Category Category
	ID       string
	Name     string
	Label    string
	Object   string
	Matches  []MatchRecord
}

// identity returns the merge key for the hit. It panics on a hit that
// carries neither id nor name, which only a broken branch can produce.
func (h Hit) identity() string {
	switch {
	case h.ID != "":
		return string(h.Category) + "-" + h.ID
	case h.Name != "":
		return string(h.Category) + "-" + h.Name
	default:
		panic(fmt.Sprintf("search: %s hit has neither id nor name", h.Category))
	}
}

type matchKey struct {
	line    int
	snippet string
}

// Merge groups hits by identity, unions and dedupes their matches, ranks
// the groups and truncates to maxResults. Earlier hits win on metadata and
// later ones only fill in blanks.
// Items whose merged match list is empty are dropped.
func Merge(hits []Hit, maxMatches, maxResults int) []Result {
	if maxMatches <= 0 {
		maxMatches = MaxMatchesPerItem
	}

	type group struct {
		hit  Hit
		spec CategorySpec
		seen map[matchKey]bool
	}

	groups := make(map[string]*group)
	var order []string

	for _, h := range hits {
		spec, ok := Lookup(h.Category)
		if !ok {
			panic(fmt.Sprintf("search: hit with unknown category %q", h.Category))
		}
		key := h.identity()

		g, exists := groups[key]
		if !exists {
			g = &group{
				hit:  Hit{Category: h.Category, ID: h.ID},
				spec: spec,
				seen: make(map[matchKey]bool),
			}
			groups[key] = g
			order = append(order, key)
		}

		fillBlank(&g.hit.ID, h.ID)
		fillBlank(&g.hit.Name, h.Name)
		fillBlank(&g.hit.Label, h.Label)
		fillBlank(&g.hit.Object, h.Object)

		for _, m := range h.Matches {
			k := matchKey{line: m.Line, snippet: m.Snippet}
			if g.seen[k] {
				continue
			}
			g.seen[k] = true
			g.hit.Matches = append(g.hit.Matches, m)
		}
	}

	results := make([]Result, 0, len(order))
	for _, key := range order {
		g := groups[key]
		if len(g.hit.Matches) == 0 {
			continue
		}

		matches := g.hit.Matches
		sort.SliceStable(matches, func(i, j int) bool {
			if matches[i].Line != matches[j].Line {
				return matches[i].Line < matches[j].Line
			}
			return matches[i].Snippet < matches[j].Snippet
		})
		total := len(matches)
		if len(matches) > maxMatches {
			matches = matches[:maxMatches]
		}

		name := g.hit.Name
		if name == "" {
			name = g.hit.ID
		}

		results = append(results, Result{
			ID:           key,
			Category:     g.hit.Category,
			CategoryName: g.spec.DisplayName,
			Name:         name,
			Label:        g.hit.Label,
			FileName:     g.spec.FileName(name, g.hit.Object),
			Matches:      matches,
			TotalMatches: total,
		})
	}

	Rank(results)

	if maxResults > 0 && len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// Rank sorts results by match count descending, then name ascending
// (case-insensitive), then identity.
func Rank(results []Result) {
	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.TotalMatches != b.TotalMatches {
			return a.TotalMatches > b.TotalMatches
		}
		an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if an != bn {
			return an < bn
		}
		return a.ID < b.ID
	})
}

func fillBlank(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
