package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchTool returns the metascope_search tool definition.
func searchTool() mcp.Tool {
	return mcp.NewTool("metascope_search",
		mcp.WithDescription("Search the connected Salesforce org's Apex classes and triggers, Flows, Lightning and Aura components, validation rules, page layouts and record types for a literal, case-insensitive term. Returns matching items with line-level snippets, ranked by match count. 'partial' is true when some sources failed or timed out."),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("Text to find, at least 2 characters"),
		),
		mcp.WithArray("categories",
			mcp.Description("Restrict to these categories, e.g. [\"apex-class\", \"flow\"]. See metascope_categories. Default: all"),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of results to return (default: 20, max: 50)"),
		),
	)
}

// categoriesTool returns the metascope_categories tool definition.
func categoriesTool() mcp.Tool {
	return mcp.NewTool("metascope_categories",
		mcp.WithDescription("List the metadata categories metascope searches, with the alias accepted by metascope_search and the file name pattern of results."),
	)
}

// recentTool returns the metascope_recent tool definition.
func recentTool() mcp.Tool {
	return mcp.NewTool("metascope_recent",
		mcp.WithDescription("List recent searches, newest first, with result counts and the top result."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of searches to return (default: 10, max: 50)"),
		),
	)
}
