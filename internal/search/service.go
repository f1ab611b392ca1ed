package search

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asteroid-belt/metascope/internal/log"
	"github.com/asteroid-belt/metascope/internal/salesforce"
)

// MinTermLength is the shortest term that triggers any remote call.
const MinTermLength = 2

// MaxResults bounds the ranked result list.
const MaxResults = 50

// Service searches org metadata across every category.
type Service struct {
	api    API
	sink   log.Sink
	config Config
}

// Config holds search service configuration.
type Config struct {
	MaxResults        int
	MaxMatchesPerItem int
	BatchLimit        int // enumeration limit for body and field categories
	FlowBatchLimit    int // enumeration limit for document categories
	Concurrency       int // concurrent document fetches per branch; <= 0 means unbounded

	// Timeouts overrides the per-category branch timeout.
	Timeouts        map[Category]time.Duration
	FallbackTimeout time.Duration
	DocumentTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxResults:        MaxResults,
		MaxMatchesPerItem: MaxMatchesPerItem,
		BatchLimit:        50,
		FlowBatchLimit:    30,
		Concurrency:       8,
		FallbackTimeout:   12 * time.Second,
		DocumentTimeout:   10 * time.Second,
	}
}

// New creates a search service. A nil sink discards branch events.
func New(api API, sink log.Sink, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = def.MaxResults
	}
	if cfg.MaxMatchesPerItem <= 0 {
		cfg.MaxMatchesPerItem = def.MaxMatchesPerItem
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = def.BatchLimit
	}
	if cfg.FlowBatchLimit <= 0 {
		cfg.FlowBatchLimit = def.FlowBatchLimit
	}
	if cfg.FallbackTimeout <= 0 {
		cfg.FallbackTimeout = def.FallbackTimeout
	}
	if cfg.DocumentTimeout <= 0 {
		cfg.DocumentTimeout = def.DocumentTimeout
	}
	if sink == nil {
		sink = log.Discard
	}

	return &Service{
		api:    api,
		sink:   sink,
		config: cfg,
	}
}

// Search runs one independent search of term against the org behind sess.
//
// Terms shorter than MinTermLength return an empty response without any
// remote call. Failed or timed-out branches are reported in the response and
// contribute nothing. The only remote failure returned as an error is an
// expired session, matching salesforce.ErrSessionExpired.
//
// Search keeps no state between calls; a caller superseding an in-flight
// search cancels its context.
func (s *Service) Search(ctx context.Context, sess salesforce.Session, term string, opts Options) (*Response, error) {
	start := time.Now()
	term = strings.TrimSpace(term)

	resp := &Response{
		Term:    term,
		Results: []Result{},
	}
	if utf8.RuneCountInString(term) < MinTermLength {
		return resp, nil
	}

	if err := sess.Validate(); err != nil {
		return nil, err
	}
	specs, err := selectCategories(opts.Categories)
	if err != nil {
		return nil, err
	}

	limit := s.config.MaxResults
	if opts.Limit > 0 && opts.Limit < limit {
		limit = opts.Limit
	}

	d := &dispatcher{
		api:     s.api,
		sink:    s.sink,
		config:  s.config,
		scanner: NewScanner(term, s.config.MaxMatchesPerItem),
		sess:    sess,
		term:    term,
	}

	hits, reports, err := d.run(ctx, specs)
	resp.Branches = reports
	resp.Duration = time.Since(start)
	if err != nil {
		log.Event("search", "done").
			Detail("term_len", utf8.RuneCountInString(term)).
			Took(resp.Duration).
			Write(s.sink, err)
		return nil, err
	}

	resp.Results = Merge(hits, s.config.MaxMatchesPerItem, limit)
	resp.Duration = time.Since(start)

	log.Event("search", "done").
		Detail("term_len", utf8.RuneCountInString(term)).
		Detail("results", len(resp.Results)).
		Detail("partial", resp.Partial()).
		Took(resp.Duration).
		Write(s.sink, nil)

	return resp, nil
}

// selectCategories resolves a category filter to specs in dispatch order.
func selectCategories(filter []Category) ([]CategorySpec, error) {
	all := Categories()
	if len(filter) == 0 {
		return all, nil
	}

	want := make(map[Category]bool, len(filter))
	for _, c := range filter {
		if _, ok := Lookup(c); !ok {
			return nil, fmt.Errorf("unknown category %q", c)
		}
		want[c] = true
	}

	specs := make([]CategorySpec, 0, len(want))
	for _, spec := range all {
		if want[spec.Category] {
			specs = append(specs, spec)
		}
	}
	return specs, nil
}
