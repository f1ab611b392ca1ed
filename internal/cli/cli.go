// Package cli provides the command-line interface for metascope.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/auth"
	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/salesforce"
	"github.com/asteroid-belt/metascope/internal/telemetry"
	"github.com/asteroid-belt/metascope/pkg/version"
)

var telemetryClient telemetry.Client

var commandStartTime time.Time

var rootCmd = &cobra.Command{
	Use:   "metascope",
	Short: "Search the code and configuration of a Salesforce org",
	Long: `Search the code and configuration of a Salesforce org

metascope searches Apex classes and triggers, Flows, Lightning and Aura
components, validation rules, page layouts and record types for a term,
and shows every matching line.

Log in once with 'metascope login', or set METASCOPE_INSTANCE_URL and
METASCOPE_ACCESS_TOKEN.

Telemetry:
  Telemetry is enabled by default, always anonymous, and never includes
  search terms, org names or IP addresses.

  Opt-out with:
  	METASCOPE_TELEMETRY_TRACKING_ENABLED=false`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "metascope" {
			durationMs := time.Since(commandStartTime).Milliseconds()
			hasFlags := cmd.Flags().NFlag() > 0
			telemetryClient.TrackCLICommandExecuted(cmd.Name(), hasFlags, durationMs)
		}
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(categoriesCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context, tc telemetry.Client) error {
	if tc == nil {
		tc = telemetry.New(nil)
	}
	telemetryClient = tc

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Short()),
		fang.WithCommit(version.Commit),
	)

	if rootCmd.CalledAs() != "" {
		durationMs := time.Since(commandStartTime).Milliseconds()
		telemetryClient.TrackAppExited("cli", durationMs)
	}

	return err
}

// openApp loads configuration and opens the database. Callers must call
// the returned close func.
func openApp() (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	paths := config.GetPaths(cfg)
	database, err := db.New(db.DefaultConfig(paths.Database))
	if err != nil {
		return nil, nil, fmt.Errorf("initialize database: %w", err)
	}

	return app.Open(cfg, database, telemetryClient), func() { _ = database.Close() }, nil
}

// trackCLIError wraps an error with telemetry tracking.
// Call this before returning errors from CLI commands.
func trackCLIError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	errorType := classifyError(err)
	telemetryClient.TrackCLIError(cmdName, errorType)
	return err
}

// classifyError determines the error type for telemetry.
func classifyError(err error) string {
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		return "not_logged_in"
	case errors.Is(err, auth.ErrReauthRequired):
		return "reauth_required"
	case errors.Is(err, salesforce.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, context.DeadlineExceeded):
		return "network_error"
	}

	errStr := err.Error()
	switch {
	case containsAny(errStr, "config", "configuration"):
		return "config_error"
	case containsAny(errStr, "database", "db"):
		return "database_error"
	case containsAny(errStr, "network", "timeout", "connection"):
		return "network_error"
	case containsAny(errStr, "permission", "access denied", "insufficient_access"):
		return "permission_error"
	case containsAny(errStr, "not found", "does not exist"):
		return "not_found_error"
	case containsAny(errStr, "invalid", "parse", "format", "unknown category"):
		return "validation_error"
	default:
		return "unknown_error"
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}

// formatTimeSince formats a duration since a time in a human-readable way.
func formatTimeSince(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02")
	}
}
