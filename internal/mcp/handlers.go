package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/search"
)

// Pagination constants for MCP tool handlers.
const (
	defaultSearchLimit = 20
	maxSearchLimit     = search.MaxResults
	defaultRecentLimit = 10
	maxRecentLimit     = 50
)

// parseLimit extracts and validates a limit parameter from MCP tool arguments.
// Returns defaultVal if not present, caps at maxVal if exceeded.
func parseLimit(arguments map[string]any, defaultVal, maxVal int) int {
	if l, ok := arguments["limit"].(float64); ok && l > 0 {
		limit := int(l)
		if limit > maxVal {
			return maxVal
		}
		return limit
	}
	return defaultVal
}

// parseCategories accepts either a JSON array of names or a comma
// separated string.
func parseCategories(arguments map[string]any) ([]search.Category, error) {
	var names []string
	switch v := arguments["categories"].(type) {
	case nil:
	case string:
		names = []string{v}
	case []any:
		for _, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid category %v: must be a string", item)
			}
			names = append(names, name)
		}
	case []string:
		names = v
	default:
		return nil, fmt.Errorf("invalid categories: expected an array of strings")
	}
	return app.ParseCategories(names)
}

// trackToolCall is a helper to track MCP tool invocations.
func (s *Server) trackToolCall(toolName string, start time.Time, success bool) {
	if s.telemetry != nil {
		durationMs := time.Since(start).Milliseconds()
		s.telemetry.TrackMCPToolCalled(toolName, durationMs, success)
	}
}

// CategoryResponse describes a searchable category.
type CategoryResponse struct {
	Category     string `json:"category"`
	Name         string `json:"name"`
	Alias        string `json:"alias"`
	FileTemplate string `json:"file_template"`
	Tooling      bool   `json:"tooling"`
	Target       string `json:"target"`
	FullText     bool   `json:"full_text"`
	TimeoutMS    int64  `json:"timeout_ms"`
}

func toCategoryResponse(spec search.CategorySpec) CategoryResponse {
	return CategoryResponse{
		Category:     string(spec.Category),
		Name:         spec.DisplayName,
		Alias:        spec.Alias,
		FileTemplate: spec.FileTemplate,
		Tooling:      spec.Tooling,
		Target:       spec.Target.String(),
		FullText:     spec.Code(),
		TimeoutMS:    spec.Timeout.Milliseconds(),
	}
}

// handleSearch handles the metascope_search tool.
func (s *Server) handleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	term, ok := req.Params.Arguments["term"].(string)
	if !ok || term == "" {
		s.trackToolCall("metascope_search", start, false)
		return mcp.NewToolResultError("term parameter is required"), nil
	}

	cats, err := parseCategories(req.Params.Arguments)
	if err != nil {
		s.trackToolCall("metascope_search", start, false)
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := parseLimit(req.Params.Arguments, defaultSearchLimit, maxSearchLimit)

	resp, err := s.app.RunSearch(ctx, term, search.Options{Categories: cats, Limit: limit}, "mcp")
	if err != nil {
		s.trackToolCall("metascope_search", start, false)
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}

	data, err := json.Marshal(app.NewSearchView(resp))
	if err != nil {
		s.trackToolCall("metascope_search", start, false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal results: %v", err)), nil
	}

	s.trackToolCall("metascope_search", start, true)
	return mcp.NewToolResultText(string(data)), nil
}

// handleCategories handles the metascope_categories tool.
func (s *Server) handleCategories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	specs := search.Categories()
	results := make([]CategoryResponse, 0, len(specs))
	for _, spec := range specs {
		results = append(results, toCategoryResponse(spec))
	}

	data, err := json.Marshal(results)
	if err != nil {
		s.trackToolCall("metascope_categories", start, false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal categories: %v", err)), nil
	}

	if s.telemetry != nil {
		s.telemetry.TrackCategoriesListed("mcp")
	}

	s.trackToolCall("metascope_categories", start, true)
	return mcp.NewToolResultText(string(data)), nil
}

// handleRecent handles the metascope_recent tool.
func (s *Server) handleRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	start := time.Now()

	limit := parseLimit(req.Params.Arguments, defaultRecentLimit, maxRecentLimit)

	rows, err := s.app.DB.RecentSearches(limit)
	if err != nil {
		s.trackToolCall("metascope_recent", start, false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to get recent searches: %v", err)), nil
	}

	data, err := json.Marshal(app.NewHistoryView(rows))
	if err != nil {
		s.trackToolCall("metascope_recent", start, false)
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal history: %v", err)), nil
	}

	if s.telemetry != nil {
		s.telemetry.TrackHistoryViewed(len(rows), "mcp")
	}

	s.trackToolCall("metascope_recent", start, true)
	return mcp.NewToolResultText(string(data)), nil
}
