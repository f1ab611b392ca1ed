// Package main provides the metascope-mcp server.
//
// metascope-mcp exposes Salesforce org search via the Model Context Protocol,
// so MCP clients can find where a field, object or term is used in Apex,
// Flows, components and configuration.
//
// Usage:
//
//	metascope-mcp [flags]
//
// The server communicates via JSON-RPC 2.0 over stdio (stdin/stdout).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/auth"
	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/log"
	"github.com/asteroid-belt/metascope/internal/mcp"
	"github.com/asteroid-belt/metascope/internal/telemetry"
	"github.com/asteroid-belt/metascope/pkg/version"
)

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("metascope-mcp %s\n", versionString())
		os.Exit(0)
	}

	if len(os.Args) > 1 && (os.Args[1] == "--help" || os.Args[1] == "-h") {
		printHelp()
		os.Exit(0)
	}

	os.Exit(run())
}

func run() int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	// stdout carries the protocol; diagnostics go to the log file only.
	paths := config.GetPaths(cfg)
	if err := log.Init(paths.Logs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
	}
	defer func() { _ = log.Close() }()

	database, err := db.New(db.DefaultConfig(paths.Database))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer func() { _ = database.Close() }()

	tc := telemetry.New(database)
	defer tc.Close()

	a := app.Open(cfg, database, tc)
	_, sessErr := a.Auth.Session()
	tc.TrackAppStarted("mcp", sessErr == nil)
	if errors.Is(sessErr, auth.ErrNotLoggedIn) {
		fmt.Fprintln(os.Stderr, "metascope-mcp: not logged in; searches will fail until 'metascope login' is run")
	}

	server := mcp.NewServer(a, tc)
	if err := server.Serve(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		return 1
	}
	return 0
}

func versionString() string {
	switch {
	case version.IsDevBuild():
		return version.Short() + " (dev build)"
	case version.IsPrerelease():
		return version.Short() + " (prerelease)"
	default:
		return version.Short()
	}
}

func printHelp() {
	help := `metascope-mcp - MCP server for Salesforce org search

USAGE:
    metascope-mcp [FLAGS]

FLAGS:
    -h, --help       Print this help message
    -v, --version    Print version information

DESCRIPTION:
    metascope-mcp is a Model Context Protocol (MCP) server that searches the
    Apex, Flows, Lightning and Aura components, validation rules, layouts and
    record types of a Salesforce org.

    The server communicates via JSON-RPC 2.0 over stdio (stdin/stdout).
    It uses the login stored by 'metascope login', or METASCOPE_INSTANCE_URL
    and METASCOPE_ACCESS_TOKEN from the environment.

CONFIGURATION:
    {
      "mcpServers": {
        "metascope": {
          "type": "stdio",
          "command": "metascope-mcp"
        }
      }
    }

TOOLS PROVIDED:
    metascope_search      Search org metadata for a term
    metascope_categories  List searchable categories
    metascope_recent      List recent searches

RESOURCES PROVIDED:
    metascope://category/{name}  Category definition as JSON
`
	fmt.Print(help)
}
