package mcp

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/telemetry"
	"github.com/asteroid-belt/metascope/internal/testutil"
)

// mockTelemetryClient records tool calls and searches.
type mockTelemetryClient struct {
	mu        sync.Mutex
	toolCalls []toolCall
	searches  []telemetry.SearchStats
}

type toolCall struct {
	name    string
	success bool
}

func (m *mockTelemetryClient) Track(event string, properties map[string]interface{})     {}
func (m *mockTelemetryClient) Close()                                                    {}
func (m *mockTelemetryClient) GetTrackingID() string                                     { return "test-tracking-id" }
func (m *mockTelemetryClient) TrackAppStarted(mode string, loggedIn bool)                {}
func (m *mockTelemetryClient) TrackAppExited(mode string, sessionDurationMs int64)       {}
func (m *mockTelemetryClient) TrackCLIError(commandName, errorType string)               {}
func (m *mockTelemetryClient) TrackLogin(hasRefreshToken bool)                           {}
func (m *mockTelemetryClient) TrackLogout()                                              {}
func (m *mockTelemetryClient) TrackResultCopied(category string)                         {}
func (m *mockTelemetryClient) TrackSessionRefreshed(success bool)                        {}
func (m *mockTelemetryClient) TrackCategoriesListed(surface string)                      {}
func (m *mockTelemetryClient) TrackHistoryViewed(entryCount int, surface string)         {}
func (m *mockTelemetryClient) TrackCLICommandExecuted(name string, flags bool, ms int64) {}

func (m *mockTelemetryClient) TrackSearchPerformed(s telemetry.SearchStats) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, s)
}

func (m *mockTelemetryClient) TrackMCPToolCalled(toolName string, durationMs int64, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolCalls = append(m.toolCalls, toolCall{name: toolName, success: success})
}

func (m *mockTelemetryClient) lastCall() toolCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.toolCalls) == 0 {
		return toolCall{}
	}
	return m.toolCalls[len(m.toolCalls)-1]
}

var _ telemetry.Client = (*mockTelemetryClient)(nil)

// setupServer builds a server against a fake org accepting "tok".
func setupServer(t *testing.T) (*Server, *testutil.FakeOrg, *mockTelemetryClient) {
	t.Helper()

	org := testutil.NewFakeOrg(t, "tok")

	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.Salesforce.InstanceURL = org.URL
	cfg.Salesforce.AccessToken = "tok"
	cfg.Salesforce.CacheSeconds = 0

	database, err := db.New(db.DefaultConfig(filepath.Join(cfg.BaseDir, "metascope.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	tc := &mockTelemetryClient{}
	return NewServer(app.Open(cfg, database, tc), tc), org, tc
}

func TestNewServer(t *testing.T) {
	s, _, _ := setupServer(t)

	assert.NotNil(t, s.server)
	assert.NotNil(t, s.app)
	assert.NotNil(t, s.telemetry)
}

func TestToolDefinitions(t *testing.T) {
	search := searchTool()
	assert.Equal(t, "metascope_search", search.Name)
	assert.Contains(t, search.InputSchema.Required, "term")
	assert.Contains(t, search.InputSchema.Properties, "categories")
	assert.Contains(t, search.InputSchema.Properties, "limit")

	assert.Equal(t, "metascope_categories", categoriesTool().Name)

	recent := recentTool()
	assert.Equal(t, "metascope_recent", recent.Name)
	assert.Contains(t, recent.InputSchema.Properties, "limit")
}

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name string
		args map[string]any
		want int
	}{
		{"missing", map[string]any{}, 20},
		{"valid", map[string]any{"limit": float64(5)}, 5},
		{"capped", map[string]any{"limit": float64(500)}, 50},
		{"zero", map[string]any{"limit": float64(0)}, 20},
		{"wrong type", map[string]any{"limit": "5"}, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseLimit(tt.args, defaultSearchLimit, maxSearchLimit))
		})
	}
}
