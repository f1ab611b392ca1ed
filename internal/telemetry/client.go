// Package telemetry provides anonymous usage tracking via PostHog.
//
// Search terms, org URLs and metadata names are never sent; search events
// carry only sizes, counts and timings.
package telemetry

import (
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// PostHogAPIKey is set at compile time via ldflags.
var PostHogAPIKey string

// TrackingIDProvider is an interface for getting tracking IDs.
// This allows for testing without a real database.
type TrackingIDProvider interface {
	GetOrCreateTrackingID() string
}

// Client interface for telemetry operations.
type Client interface {
	Track(event string, properties map[string]interface{})
	Close()
	GetTrackingID() string

	// CLI events
	TrackAppStarted(mode string, loggedIn bool)
	TrackAppExited(mode string, sessionDurationMs int64)
	TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64)
	TrackCLIError(commandName, errorType string)
	TrackLogin(hasRefreshToken bool)
	TrackLogout()
	TrackResultCopied(category string)

	// Shared events (CLI and MCP)
	TrackSearchPerformed(s SearchStats)
	TrackSessionRefreshed(success bool)
	TrackCategoriesListed(surface string)
	TrackHistoryViewed(entryCount int, surface string)

	// MCP events
	TrackMCPToolCalled(toolName string, durationMs int64, success bool)
}

// SearchStats describes one search without its term.
type SearchStats struct {
	Surface        string // "cli" or "mcp"
	TermLength     int
	CategoryFilter int // number of categories requested; 0 means all
	ResultCount    int
	DurationMs     int64
	Partial        bool
	FailedBranches int
}

// posthogClient wraps the PostHog SDK.
type posthogClient struct {
	client    posthog.Client
	sessionID string
	mu        sync.Mutex
}

// noopClient does nothing (for disabled telemetry).
type noopClient struct{}

// IsEnabled returns true if telemetry is enabled.
// Telemetry is opt-out: enabled by default unless METASCOPE_TELEMETRY_TRACKING_ENABLED=false.
func IsEnabled() bool {
	return os.Getenv("METASCOPE_TELEMETRY_TRACKING_ENABLED") != "false" && PostHogAPIKey != ""
}

// New creates a new telemetry client with a persistent tracking ID from the database.
// If provider is nil, a new UUID is generated per session.
func New(provider TrackingIDProvider) Client {
	if !IsEnabled() {
		return &noopClient{}
	}

	client, err := posthog.NewWithConfig(PostHogAPIKey, posthog.Config{
		Endpoint:  "https://us.i.posthog.com",
		BatchSize: 250,
		Interval:  5 * time.Second,
	})
	if err != nil {
		return &noopClient{}
	}

	var sessionID string
	if provider != nil {
		sessionID = provider.GetOrCreateTrackingID()
	} else {
		sessionID = uuid.New().String()
	}

	return &posthogClient{
		client:    client,
		sessionID: sessionID,
	}
}

// Track sends an event to PostHog.
func (c *posthogClient) Track(event string, properties map[string]interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	props := posthog.NewProperties()
	props.Set("$process_person_profile", true)
	props.Set("$geoip_disable", true)

	for k, v := range properties {
		props.Set(k, v)
	}

	_ = c.client.Enqueue(posthog.Capture{
		DistinctId: c.sessionID,
		Event:      event,
		Properties: props,
	})
}

// Close flushes remaining events and closes the client.
func (c *posthogClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.client.Close()
}

// GetTrackingID returns the anonymous tracking ID for the session.
func (c *posthogClient) GetTrackingID() string {
	return c.sessionID
}

func (c *noopClient) Track(event string, properties map[string]interface{}) {}
func (c *noopClient) Close()                                                {}
func (c *noopClient) GetTrackingID() string                                 { return "" }
