package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/asteroid-belt/metascope/internal/search"
)

// resourcePrefix is the URI scheme for metascope resources.
const resourcePrefix = "metascope://"

// parseCategoryURI resolves a metascope://category/{name} URI. name may be
// an API name, alias or display name.
func parseCategoryURI(uri string) (search.Category, error) {
	if !strings.HasPrefix(uri, resourcePrefix+"category/") {
		return "", fmt.Errorf("invalid URI scheme: %s", uri)
	}

	name := strings.TrimPrefix(uri, resourcePrefix+"category/")
	if name == "" {
		return "", fmt.Errorf("empty category in URI: %s", uri)
	}

	return search.ParseCategory(name)
}

// handleCategoryResource handles metascope://category/{name} resources.
func (s *Server) handleCategoryResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cat, err := parseCategoryURI(req.Params.URI)
	if err != nil {
		return nil, err
	}

	spec, ok := search.Lookup(cat)
	if !ok {
		return nil, fmt.Errorf("category not found: %s", cat)
	}

	data, err := json.Marshal(toCategoryResponse(spec))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal category: %v", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
