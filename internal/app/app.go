// Package app wires configuration, storage, authentication and the search
// service together for the CLI and the MCP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/asteroid-belt/metascope/internal/auth"
	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/log"
	"github.com/asteroid-belt/metascope/internal/models"
	"github.com/asteroid-belt/metascope/internal/salesforce"
	"github.com/asteroid-belt/metascope/internal/search"
	"github.com/asteroid-belt/metascope/internal/telemetry"
)

// App is one process's view of metascope.
type App struct {
	Config    *config.Config
	DB        *db.DB
	Auth      *auth.Authenticator
	Client    *salesforce.Client
	Search    *search.Service
	Telemetry telemetry.Client
}

// Open builds an App around an open database. The caller keeps ownership
// of database.
func Open(cfg *config.Config, database *db.DB, tc telemetry.Client) *App {
	if tc == nil {
		tc = telemetry.New(nil)
	}

	client := salesforce.NewClient(salesforce.Config{
		RateLimit: cfg.Salesforce.RateLimit,
		CacheTTL:  time.Duration(cfg.Salesforce.CacheSeconds) * time.Second,
	})

	var store auth.Store
	if database != nil {
		store = database
	}

	return &App{
		Config:    cfg,
		DB:        database,
		Auth:      auth.New(store, cfg.Salesforce, nil),
		Client:    client,
		Search:    search.New(client, log.Default(), SearchConfig(cfg.Search)),
		Telemetry: tc,
	}
}

// SearchConfig maps configured limits onto the search service.
func SearchConfig(sc config.SearchConfig) search.Config {
	cfg := search.DefaultConfig()
	cfg.MaxResults = sc.MaxResults
	cfg.MaxMatchesPerItem = sc.MaxMatchesPerItem
	cfg.BatchLimit = sc.BatchLimit
	cfg.FlowBatchLimit = sc.FlowBatchLimit
	cfg.Concurrency = sc.Concurrency
	return cfg
}

// RunSearch searches with the current session, refreshing and retrying
// once if the org rejects it, then records the search in history.
func (a *App) RunSearch(ctx context.Context, term string, opts search.Options, surface string) (*search.Response, error) {
	attempts := 0
	var resp *search.Response
	a.Client.ResetStats()
	err := a.Auth.Do(ctx, func(ctx context.Context, sess salesforce.Session) error {
		attempts++
		r, err := a.Search.Search(ctx, sess, term, opts)
		resp = r
		return err
	})

	switch {
	case errors.Is(err, auth.ErrReauthRequired):
		a.Telemetry.TrackSessionRefreshed(false)
	case attempts > 1:
		a.Telemetry.TrackSessionRefreshed(err == nil)
	}
	requests, hits, _ := a.Client.Stats()
	log.Event("app", "search").
		Detail("surface", surface).
		Detail("attempts", attempts).
		Detail("requests", requests).
		Detail("cache_hits", hits).
		Write(log.Default(), err)
	if err != nil {
		return nil, err
	}

	if utf8.RuneCountInString(resp.Term) >= search.MinTermLength {
		a.record(resp, opts)
	}

	a.Telemetry.TrackSearchPerformed(telemetry.SearchStats{
		Surface:        surface,
		TermLength:     utf8.RuneCountInString(resp.Term),
		CategoryFilter: len(opts.Categories),
		ResultCount:    len(resp.Results),
		DurationMs:     resp.Duration.Milliseconds(),
		Partial:        resp.Partial(),
		FailedBranches: failedBranches(resp),
	})

	return resp, nil
}

// Logout forgets the session and drops responses cached under it.
func (a *App) Logout() error {
	a.Client.ClearCache()
	return a.Auth.Logout()
}

// record stores the search in history. Failures are logged, not returned.
func (a *App) record(resp *search.Response, opts search.Options) {
	if a.DB == nil {
		return
	}

	cats := make([]string, len(opts.Categories))
	for i, c := range opts.Categories {
		cats[i] = string(c)
	}

	entry := &models.SearchHistory{
		Term:        resp.Term,
		Categories:  strings.Join(cats, ","),
		ResultCount: len(resp.Results),
		DurationMS:  resp.Duration.Milliseconds(),
		Partial:     resp.Partial(),
	}
	if len(resp.Results) > 0 {
		entry.TopResult = resp.Results[0].FileName
	}

	if err := a.DB.RecordSearch(entry); err != nil {
		log.Errorf("record search history: %v", err)
	}
}

func failedBranches(resp *search.Response) int {
	n := 0
	for _, b := range resp.Branches {
		if b.Status != search.BranchOK {
			n++
		}
	}
	return n
}

// ParseCategories resolves user-supplied category names.
func ParseCategories(names []string) ([]search.Category, error) {
	var cats []search.Category
	for _, name := range names {
		for _, part := range strings.Split(name, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			c, err := search.ParseCategory(part)
			if err != nil {
				return nil, fmt.Errorf("invalid category: %w", err)
			}
			cats = append(cats, c)
		}
	}
	return cats, nil
}
