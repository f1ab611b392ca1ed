package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/asteroid-belt/metascope/internal/fanout"
	"github.com/asteroid-belt/metascope/internal/log"
	"github.com/asteroid-belt/metascope/internal/salesforce"
)

// FallbackBranch names the full-text search branch in reports and logs.
const FallbackBranch = "FullText"

// API is the subset of the Salesforce client the dispatcher calls.
type API interface {
	Query(ctx context.Context, sess salesforce.Session, soql string, limit int) ([]salesforce.Record, error)
	ToolingQuery(ctx context.Context, sess salesforce.Session, soql string, limit int) ([]salesforce.Record, error)
	Search(ctx context.Context, sess salesforce.Session, sosl string) ([]salesforce.Record, error)
	FetchDocument(ctx context.Context, sess salesforce.Session, sobject, id string) (string, error)
}

// candidate is one enumerated record before scanning.
type candidate struct {
	ID     string
	Name   string
	Label  string
	Object string
	Body   string
	Fields map[string]string
}

func candidateFrom(spec CategorySpec, rec salesforce.Record) candidate {
	c := candidate{
		ID:     rec.ID(),
		Name:   rec.String(spec.NameField),
		Fields: make(map[string]string, len(spec.Fields)),
	}
	if spec.LabelField != "" {
		c.Label = rec.String(spec.LabelField)
	}
	if spec.ObjectField != "" {
		c.Object = rec.String(spec.ObjectField)
	}
	if spec.BodyField != "" {
		c.Body = rec.String(spec.BodyField)
	}
	for _, f := range spec.Fields {
		c.Fields[f.Name] = rec.String(f.Name)
	}
	return c
}

// documentID returns the first non-empty document id field of rec.
func documentID(spec CategorySpec, rec salesforce.Record) string {
	for _, field := range spec.DocumentIDFields {
		if id := rec.String(field); id != "" {
			return id
		}
	}
	return ""
}

// dispatcher fans one search term out across category branches.
type dispatcher struct {
	api     API
	sink    log.Sink
	config  Config
	scanner *Scanner
	sess    salesforce.Session
	term    string
}

// run executes every branch at once, waits for all of them, and returns the
// hits in branch order with one report per branch. Full-text hits are kept
// only for items no category branch produced. A session-expired failure in
// any branch is returned after the join.
func (d *dispatcher) run(ctx context.Context, specs []CategorySpec) ([]Hit, []BranchReport, error) {
	// One slot per branch; each task writes only its own.
	slots := make([][]Hit, len(specs)+1)
	tasks := make([]fanout.Task, 0, len(specs)+1)

	var code []Category
	for i, spec := range specs {
		tasks = append(tasks, fanout.Task{
			Name:    string(spec.Category),
			Timeout: d.branchTimeout(spec),
			Run: func(ctx context.Context) error {
				hits, err := d.category(ctx, spec)
				slots[i] = hits
				return err
			},
		})
		if spec.Code() {
			code = append(code, spec.Category)
		}
	}

	if len(code) > 0 {
		fallback := len(specs)
		tasks = append(tasks, fanout.Task{
			Name:    FallbackBranch,
			Timeout: d.config.FallbackTimeout,
			Run: func(ctx context.Context) error {
				hits, err := d.fullText(ctx, code)
				slots[fallback] = hits
				return err
			},
		})
	}

	outcomes := fanout.Run(ctx, 0, tasks)

	var (
		hits    []Hit
		reports = make([]BranchReport, len(outcomes))
		expired error
	)
	for i, out := range outcomes {
		report := BranchReport{
			Name:     out.Name,
			Status:   branchStatus(out),
			Duration: out.Duration,
			Err:      out.Err,
		}
		if out.OK() {
			found := slots[i]
			if i == len(specs) {
				// The fallback is last, so every category hit is already in hits.
				found = unseen(found, hits)
			}
			report.Items = len(found)
			hits = append(hits, found...)
		}
		reports[i] = report

		if report.Status == BranchSessionExpired && expired == nil {
			expired = out.Err
		}

		log.Event("search", "branch").
			Detail("branch", report.Name).
			Detail("outcome", string(report.Status)).
			Detail("items", report.Items).
			Took(report.Duration).
			Write(d.sink, report.Err)
	}

	if expired != nil {
		return nil, reports, fmt.Errorf("search: %w", expired)
	}
	if err := ctx.Err(); err != nil {
		return nil, reports, err
	}
	return hits, reports, nil
}

// unseen returns the hits whose identity is not already in known.
func unseen(hits, known []Hit) []Hit {
	seen := make(map[string]bool, len(known))
	for _, h := range known {
		seen[h.identity()] = true
	}
	var out []Hit
	for _, h := range hits {
		if !seen[h.identity()] {
			out = append(out, h)
		}
	}
	return out
}

func (d *dispatcher) branchTimeout(spec CategorySpec) time.Duration {
	// Document categories bound the enumeration and each fetch separately.
	if spec.Target == TargetDocument {
		return 0
	}
	return d.timeout(spec)
}

func (d *dispatcher) timeout(spec CategorySpec) time.Duration {
	if t, ok := d.config.Timeouts[spec.Category]; ok && t > 0 {
		return t
	}
	return spec.Timeout
}

func branchStatus(out fanout.Outcome) BranchStatus {
	switch {
	case out.OK():
		return BranchOK
	case salesforce.IsSessionExpired(out.Err):
		return BranchSessionExpired
	case out.TimedOut, errors.Is(out.Err, context.DeadlineExceeded):
		return BranchTimedOut
	default:
		return BranchFailed
	}
}

// category enumerates one category and scans every candidate.
func (d *dispatcher) category(ctx context.Context, spec CategorySpec) ([]Hit, error) {
	if spec.Target == TargetDocument {
		return d.documents(ctx, spec)
	}

	records, err := d.enumerate(ctx, spec, d.config.BatchLimit)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, rec := range records {
		c := candidateFrom(spec, rec)
		var matches []MatchRecord
		if spec.Target == TargetBody {
			matches = d.scanner.ScanBody(c.Body, spec)
		} else {
			matches = d.scanner.ScanFields(c.Fields, spec)
		}
		if len(matches) == 0 {
			continue
		}
		hits = append(hits, hitFrom(spec, c, matches))
	}
	return hits, nil
}

func (d *dispatcher) enumerate(ctx context.Context, spec CategorySpec, limit int) ([]salesforce.Record, error) {
	soql := spec.SOQL(limit)
	if spec.Tooling {
		return d.api.ToolingQuery(ctx, d.sess, soql, limit)
	}
	return d.api.Query(ctx, d.sess, soql, limit)
}

// documents enumerates definitions, then fetches and scans one XML
// document per definition. A failed fetch skips that item only.
func (d *dispatcher) documents(ctx context.Context, spec CategorySpec) ([]Hit, error) {
	enumCtx, cancel := context.WithTimeout(ctx, d.timeout(spec))
	records, err := d.enumerate(enumCtx, spec, d.config.FlowBatchLimit)
	cancel()
	if err != nil {
		return nil, err
	}

	type item struct {
		cand  candidate
		docID string
	}
	var items []item
	for _, rec := range records {
		if id := documentID(spec, rec); id != "" {
			items = append(items, item{cand: candidateFrom(spec, rec), docID: id})
		}
	}

	bodies := make([]string, len(items))
	tasks := make([]fanout.Task, len(items))
	for i, it := range items {
		tasks[i] = fanout.Task{
			Name:    it.cand.Name,
			Timeout: d.config.DocumentTimeout,
			Run: func(ctx context.Context) error {
				body, err := d.api.FetchDocument(ctx, d.sess, spec.DocumentType, it.docID)
				bodies[i] = body
				return err
			},
		}
	}

	var hits []Hit
	for i, out := range fanout.Run(ctx, d.config.Concurrency, tasks) {
		if !out.OK() {
			if salesforce.IsSessionExpired(out.Err) {
				return nil, out.Err
			}
			log.Event("search", "document").
				Detail("branch", string(spec.Category)).
				Detail("item", out.Name).
				Detail("outcome", string(branchStatus(out))).
				Took(out.Duration).
				Write(d.sink, out.Err)
			continue
		}

		matches := d.scanner.ScanBody(bodies[i], spec)
		if len(matches) == 0 {
			continue
		}
		hits = append(hits, hitFrom(spec, items[i].cand, matches))
	}
	return hits, nil
}

// fullText runs the SOSL fallback over the code categories. Each hit gets a
// single field-level match; run drops hits for items a category branch
// already found.
func (d *dispatcher) fullText(ctx context.Context, cats []Category) ([]Hit, error) {
	records, err := d.api.Search(ctx, d.sess, BuildSOSL(d.term, cats))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for _, rec := range records {
		spec, ok := Lookup(Category(rec.Type()))
		if !ok || !spec.Code() {
			continue
		}
		id, name := rec.ID(), rec.String("Name")
		if id == "" && name == "" {
			continue
		}
		hits = append(hits, Hit{
			Category: spec.Category,
			ID:       id,
			Name:     name,
			Matches: []MatchRecord{{
				Line:    0,
				Snippet: name,
				Context: "Full-text match: " + name,
				Label:   fmt.Sprintf("Full-text match (%s)", spec.DisplayName),
			}},
		})
	}
	return hits, nil
}

func hitFrom(spec CategorySpec, c candidate, matches []MatchRecord) Hit {
	return Hit{
		Category: spec.Category,
		ID:       c.ID,
		Name:     c.Name,
		Label:    c.Label,
		Object:   c.Object,
		Matches:  matches,
	}
}
