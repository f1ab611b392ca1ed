// Package mcp provides the Model Context Protocol server for metascope.
//
// The server exposes org search to MCP clients over stdio. It shares the
// app wiring with the CLI, so sessions, refresh and history behave the same.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/telemetry"
	"github.com/asteroid-belt/metascope/pkg/version"
)

// Server wraps the MCP server with metascope tools.
type Server struct {
	app       *app.App
	server    *server.MCPServer
	telemetry telemetry.Client
}

// NewServer creates a new MCP server instance.
func NewServer(a *app.App, tc telemetry.Client) *Server {
	s := &Server{
		app:       a,
		telemetry: tc,
	}

	s.server = server.NewMCPServer(
		"metascope",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
	)

	s.registerTools()
	s.registerResources()

	return s
}

// Serve runs the server over stdio until stdin closes.
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.server)
}

func (s *Server) registerTools() {
	s.server.AddTool(searchTool(), s.handleSearch)
	s.server.AddTool(categoriesTool(), s.handleCategories)
	s.server.AddTool(recentTool(), s.handleRecent)
}

func (s *Server) registerResources() {
	s.server.AddResourceTemplate(
		mcp.NewResourceTemplate(
			resourcePrefix+"category/{name}",
			"Search category",
			mcp.WithTemplateDescription("How a metadata category is enumerated, matched and named"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.handleCategoryResource,
	)
}
