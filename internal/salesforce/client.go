// Package salesforce is a small REST client for the Salesforce data, tooling
// and search endpoints used by metascope.
package salesforce

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/asteroid-belt/metascope/internal/hash"
	"github.com/asteroid-belt/metascope/pkg/version"
)

const (
	// DefaultRateLimit is requests per second when none is configured.
	DefaultRateLimit = 20

	// DefaultCacheTTL is how long successful responses are reused.
	DefaultCacheTTL = time.Minute

	// maxBodySize bounds how much of a response body is read.
	maxBodySize = 16 << 20
)

// Session identifies an authenticated org. It is passed explicitly into
// every call and never mutated by the client.
type Session struct {
	InstanceURL string
	AccessToken string
	APIVersion  string // without the leading "v", e.g. "60.0"
}

// Validate reports whether the session has enough information to make calls.
func (s Session) Validate() error {
	if s.InstanceURL == "" {
		return errors.New("session has no instance url")
	}
	if s.AccessToken == "" {
		return errors.New("session has no access token")
	}
	if s.APIVersion == "" {
		return errors.New("session has no api version")
	}
	return nil
}

func (s Session) endpoint(path string) string {
	return strings.TrimRight(s.InstanceURL, "/") + "/services/data/v" + strings.TrimPrefix(s.APIVersion, "v") + path
}

// ResponseCache provides TTL-based caching for API responses.
type ResponseCache struct {
	data map[string]cacheEntry
	ttl  time.Duration
	mu   sync.RWMutex
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewResponseCache creates a new cache with the specified TTL.
func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{
		data: make(map[string]cacheEntry),
		ttl:  ttl,
	}
}

// Get retrieves a value from the cache if it exists and hasn't expired.
func (c *ResponseCache) Get(key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.data[key]
	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.value, true
}

// Set stores a value in the cache.
func (c *ResponseCache) Set(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = cacheEntry{
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}
}

// Clear removes all entries from the cache.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]cacheEntry)
}

// Len returns the number of entries in the cache.
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

// Config configures a Client.
type Config struct {
	// RateLimit is requests per second (DefaultRateLimit when <= 0).
	RateLimit int
	// CacheTTL is the response cache lifetime; zero disables caching.
	CacheTTL time.Duration
	// HTTPClient overrides the underlying client (tests use httptest).
	HTTPClient *http.Client
}

// Client wraps the Salesforce REST API with rate limiting and caching.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cache   *ResponseCache
	mu      sync.Mutex

	// Stats tracking
	requestCount int
	cacheHits    int
	cacheMisses  int
}

// NewClient creates a client. Authentication is supplied per call through a
// Session.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	rateLimit := cfg.RateLimit
	if rateLimit <= 0 {
		rateLimit = DefaultRateLimit
	}

	var cache *ResponseCache
	if cfg.CacheTTL > 0 {
		cache = NewResponseCache(cfg.CacheTTL)
	}

	return &Client{
		http:    httpClient,
		limiter: rate.NewLimiter(rate.Limit(rateLimit), rateLimit),
		cache:   cache,
	}
}

// queryResponse is the envelope returned by the query endpoints.
type queryResponse struct {
	TotalSize      int      `json:"totalSize"`
	Done           bool     `json:"done"`
	NextRecordsURL string   `json:"nextRecordsUrl"`
	Records        []Record `json:"records"`
}

// searchResponse is the envelope returned by the search endpoint.
type searchResponse struct {
	SearchRecords []Record `json:"searchRecords"`
}

// Query runs SOQL against the record-data endpoint. limit caps the number of
// records collected across pages; zero means no cap.
func (c *Client) Query(ctx context.Context, sess Session, soql string, limit int) ([]Record, error) {
	return c.query(ctx, sess, "/query/", soql, limit)
}

// ToolingQuery runs SOQL against the tooling (metadata) endpoint.
func (c *Client) ToolingQuery(ctx context.Context, sess Session, soql string, limit int) ([]Record, error) {
	return c.query(ctx, sess, "/tooling/query/", soql, limit)
}

func (c *Client) query(ctx context.Context, sess Session, path, soql string, limit int) ([]Record, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	next := sess.endpoint(path) + "?" + url.Values{"q": {soql}}.Encode()
	var records []Record

	for next != "" {
		body, err := c.get(ctx, sess, next, "application/json")
		if err != nil {
			return nil, err
		}

		var page queryResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode query response: %w", err)
		}
		records = append(records, page.Records...)

		if limit > 0 && len(records) >= limit {
			return records[:limit], nil
		}
		if page.Done || page.NextRecordsURL == "" {
			break
		}
		next = strings.TrimRight(sess.InstanceURL, "/") + page.NextRecordsURL
	}

	return records, nil
}

// Search runs a SOSL expression against the search endpoint.
func (c *Client) Search(ctx context.Context, sess Session, sosl string) ([]Record, error) {
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	target := sess.endpoint("/search/") + "?" + url.Values{"q": {sosl}}.Encode()
	body, err := c.get(ctx, sess, target, "application/json")
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err == nil {
		return resp.SearchRecords, nil
	}

	// Older API versions return a bare array.
	var records []Record
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return records, nil
}

// FetchDocument retrieves a tooling sObject as raw XML, for line scanning.
func (c *Client) FetchDocument(ctx context.Context, sess Session, sobject, id string) (string, error) {
	if err := sess.Validate(); err != nil {
		return "", err
	}
	if sobject == "" || id == "" {
		return "", errors.New("fetch document: sobject type and id are required")
	}

	target := sess.endpoint("/tooling/sobjects/" + url.PathEscape(sobject) + "/" + url.PathEscape(id))
	body, err := c.get(ctx, sess, target, "application/xml")
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// get performs an authenticated GET, consulting the cache first.
func (c *Client) get(ctx context.Context, sess Session, target, accept string) ([]byte, error) {
	cacheKey := hash.Key(sess.AccessToken, accept, target)

	if c.cache != nil {
		if cached, ok := c.cache.Get(cacheKey); ok {
			c.mu.Lock()
			c.cacheHits++
			c.mu.Unlock()
			return cached, nil
		}
		c.mu.Lock()
		c.cacheMisses++
		c.mu.Unlock()
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, waitError(ctx, err)
	}

	c.mu.Lock()
	c.requestCount++
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	token := &oauth2.Token{AccessToken: sess.AccessToken, TokenType: "Bearer"}
	token.SetAuthHeader(req)
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", "metascope/"+version.Short())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, body)
	}

	if c.cache != nil {
		c.cache.Set(cacheKey, body)
	}
	return body, nil
}

// Stats returns request and cache counters.
func (c *Client) Stats() (requests, cacheHits, cacheMisses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount, c.cacheHits, c.cacheMisses
}

// waitError reports a refused limiter wait. The limiter refuses up front when
// the wait would outlast ctx's deadline, without wrapping the context error.
func waitError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("rate limit wait: %w", ctxErr)
	}
	if _, ok := ctx.Deadline(); ok {
		return fmt.Errorf("rate limit wait: %w: %v", context.DeadlineExceeded, err)
	}
	return fmt.Errorf("rate limit wait: %w", err)
}

// ResetStats zeroes the counters.
func (c *Client) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requestCount = 0
	c.cacheHits = 0
	c.cacheMisses = 0
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	if c.cache != nil {
		c.cache.Clear()
	}
}
