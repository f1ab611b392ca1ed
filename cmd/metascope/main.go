// metascope searches the code and configuration of a Salesforce org.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/asteroid-belt/metascope/internal/cli"
	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/log"
	"github.com/asteroid-belt/metascope/internal/telemetry"
)

func main() {
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
		os.Exit(1)
	}

	paths := config.GetPaths(cfg)
	if err := log.Init(paths.Logs); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open log: %v\n", err)
	}

	// Open database for persistent tracking ID
	database, err := db.New(db.DefaultConfig(paths.Database))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	telemetryClient := telemetry.New(database)
	_ = database.Close()

	err = cli.Execute(ctx, telemetryClient)
	telemetryClient.Close()
	_ = log.Close()
	if err != nil {
		os.Exit(1)
	}
}
