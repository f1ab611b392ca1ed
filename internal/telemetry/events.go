package telemetry

import (
	"runtime"

	"github.com/asteroid-belt/metascope/pkg/version"
)

// Event names - CLI
const (
	EventAppStarted         = "app_started"
	EventAppExited          = "app_exited"
	EventCLICommandExecuted = "cli_command_executed"
	EventCLIErrorOccurred   = "cli_error_occurred"
	EventLogin              = "login"
	EventLogout             = "logout"
	EventResultCopied       = "result_copied"
)

// Event names - shared
const (
	EventSearchPerformed  = "search_performed"
	EventSessionRefreshed = "session_refreshed"
	EventCategoriesListed = "categories_listed"
	EventHistoryViewed    = "history_viewed"
)

// Event names - MCP
const (
	EventMCPToolCalled = "mcp_tool_called"
)

// baseProperties returns common properties for all events.
func baseProperties() map[string]interface{} {
	return map[string]interface{}{
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"version":    version.Short(),
		"prerelease": version.IsPrerelease(),
		"dev_build":  version.IsDevBuild(),
	}
}

// TrackAppStarted tracks application startup.
func (c *posthogClient) TrackAppStarted(mode string, loggedIn bool) {
	props := baseProperties()
	props["mode"] = mode
	props["logged_in"] = loggedIn
	c.Track(EventAppStarted, props)
}

// TrackAppExited tracks application exit.
func (c *posthogClient) TrackAppExited(mode string, sessionDurationMs int64) {
	props := baseProperties()
	props["mode"] = mode
	props["session_duration_ms"] = sessionDurationMs
	c.Track(EventAppExited, props)
}

// TrackCLICommandExecuted tracks CLI command execution.
func (c *posthogClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {
	props := baseProperties()
	props["command_name"] = commandName
	props["has_flags"] = hasFlags
	props["execution_duration_ms"] = durationMs
	c.Track(EventCLICommandExecuted, props)
}

// TrackCLIError tracks CLI errors by class, never by message.
func (c *posthogClient) TrackCLIError(commandName, errorType string) {
	props := baseProperties()
	props["command_name"] = commandName
	props["error_type"] = errorType
	c.Track(EventCLIErrorOccurred, props)
}

// TrackLogin tracks a stored login.
func (c *posthogClient) TrackLogin(hasRefreshToken bool) {
	props := baseProperties()
	props["has_refresh_token"] = hasRefreshToken
	c.Track(EventLogin, props)
}

// TrackLogout tracks removal of the stored login.
func (c *posthogClient) TrackLogout() {
	c.Track(EventLogout, baseProperties())
}

// TrackResultCopied tracks copying a result file name.
func (c *posthogClient) TrackResultCopied(category string) {
	props := baseProperties()
	props["category"] = category
	c.Track(EventResultCopied, props)
}

// TrackSearchPerformed tracks a completed search.
func (c *posthogClient) TrackSearchPerformed(s SearchStats) {
	props := baseProperties()
	props["surface"] = s.Surface
	props["term_length"] = s.TermLength
	props["category_filter"] = s.CategoryFilter
	props["result_count"] = s.ResultCount
	props["duration_ms"] = s.DurationMs
	props["partial"] = s.Partial
	props["failed_branches"] = s.FailedBranches
	c.Track(EventSearchPerformed, props)
}

// TrackSessionRefreshed tracks a refresh-and-retry attempt.
func (c *posthogClient) TrackSessionRefreshed(success bool) {
	props := baseProperties()
	props["success"] = success
	c.Track(EventSessionRefreshed, props)
}

// TrackCategoriesListed tracks category listing.
func (c *posthogClient) TrackCategoriesListed(surface string) {
	props := baseProperties()
	props["surface"] = surface
	c.Track(EventCategoriesListed, props)
}

// TrackHistoryViewed tracks history listing.
func (c *posthogClient) TrackHistoryViewed(entryCount int, surface string) {
	props := baseProperties()
	props["entry_count"] = entryCount
	props["surface"] = surface
	c.Track(EventHistoryViewed, props)
}

// TrackMCPToolCalled tracks MCP tool invocations.
func (c *posthogClient) TrackMCPToolCalled(toolName string, durationMs int64, success bool) {
	props := baseProperties()
	props["tool_name"] = toolName
	props["duration_ms"] = durationMs
	props["success"] = success
	c.Track(EventMCPToolCalled, props)
}

// --- noopClient ---

func (c *noopClient) TrackAppStarted(mode string, loggedIn bool)                                  {}
func (c *noopClient) TrackAppExited(mode string, sessionDurationMs int64)                         {}
func (c *noopClient) TrackCLICommandExecuted(commandName string, hasFlags bool, durationMs int64) {}
func (c *noopClient) TrackCLIError(commandName, errorType string)                                 {}
func (c *noopClient) TrackLogin(hasRefreshToken bool)                                             {}
func (c *noopClient) TrackLogout()                                                                {}
func (c *noopClient) TrackResultCopied(category string)                                           {}
func (c *noopClient) TrackSearchPerformed(s SearchStats)                                          {}
func (c *noopClient) TrackSessionRefreshed(success bool)                                          {}
func (c *noopClient) TrackCategoriesListed(surface string)                                        {}
func (c *noopClient) TrackHistoryViewed(entryCount int, surface string)                           {}
func (c *noopClient) TrackMCPToolCalled(toolName string, durationMs int64, success bool)          {}
