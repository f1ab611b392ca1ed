package cli

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/asteroid-belt/metascope/internal/auth"
)

// defaultRedirectURL is the callback registered on the Salesforce CLI
// connected app and most custom ones.
const defaultRedirectURL = "http://localhost:1717/OauthRedirect"

var (
	loginInstanceURL  string
	loginAccessToken  string
	loginRefreshToken string
	loginAuthURL      bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store the Salesforce session to search with",
	Long: `Store an org login in the local database.

Supply an instance URL and access token, e.g. from 'sf org display'.
With a refresh token and a configured OAuth client id (client_id in
config.yaml or METASCOPE_CLIENT_ID), expired sessions are renewed
automatically.

Use --auth-url to print the browser URL for an OAuth web-server flow.`,
	Args: cobra.NoArgs,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored Salesforce session",
	Args:  cobra.NoArgs,
	RunE:  runLogout,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show which org metascope is connected to",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	loginCmd.Flags().StringVar(&loginInstanceURL, "instance-url", "", "Org instance URL, e.g. https://acme.my.salesforce.com")
	loginCmd.Flags().StringVar(&loginAccessToken, "access-token", "", "Session id or OAuth access token")
	loginCmd.Flags().StringVar(&loginRefreshToken, "refresh-token", "", "OAuth refresh token (optional)")
	loginCmd.Flags().BoolVar(&loginAuthURL, "auth-url", false, "Print the OAuth authorization URL and exit")
}

func runLogin(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, closeApp, err := openApp()
	if err != nil {
		return trackCLIError("login", err)
	}
	defer closeApp()

	if loginAuthURL {
		if a.Config.Salesforce.ClientID == "" {
			return trackCLIError("login", errors.New("invalid configuration: client_id is required for --auth-url"))
		}
		_, _ = fmt.Fprintln(out, a.Auth.AuthCodeURL(uuid.NewString(), defaultRedirectURL))
		return nil
	}

	if loginInstanceURL == "" || loginAccessToken == "" {
		return trackCLIError("login", errors.New("invalid arguments: --instance-url and --access-token are required"))
	}

	cred, err := a.Auth.Login(loginInstanceURL, loginAccessToken, loginRefreshToken)
	if err != nil {
		return trackCLIError("login", err)
	}
	telemetryClient.TrackLogin(cred.CanRefresh())

	successStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	_, _ = fmt.Fprintf(out, "%s Logged in to %s\n", successStyle.Render("✓"), cred.Host())
	if !cred.CanRefresh() {
		_, _ = fmt.Fprintln(out, warnStyle.Render("  No refresh token: run 'metascope login' again when the session expires."))
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, closeApp, err := openApp()
	if err != nil {
		return trackCLIError("logout", err)
	}
	defer closeApp()

	if err := a.Logout(); err != nil {
		return trackCLIError("logout", fmt.Errorf("delete credential: %w", err))
	}
	telemetryClient.TrackLogout()

	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	a, closeApp, err := openApp()
	if err != nil {
		return trackCLIError("status", err)
	}
	defer closeApp()

	sess, err := a.Auth.Session()
	switch {
	case errors.Is(err, auth.ErrNotLoggedIn):
		_, _ = fmt.Fprintln(out, "Not logged in.")
		_, _ = fmt.Fprintln(out, "\nUse 'metascope login' or set METASCOPE_INSTANCE_URL and METASCOPE_ACCESS_TOKEN.")
	case err != nil:
		return trackCLIError("status", err)
	default:
		_, _ = fmt.Fprintf(out, "Org: %s\n", sess.InstanceURL)
		_, _ = fmt.Fprintf(out, "API version: v%s\n", sess.APIVersion)
		_, _ = fmt.Fprintf(out, "Session from: %s\n", a.Auth.Source())

		cred, err := a.DB.GetCredential()
		if err == nil && cred != nil {
			_, _ = fmt.Fprintf(out, "Auto-refresh: %v\n", cred.CanRefresh() && a.Config.Salesforce.ClientID != "")
		}
	}

	stats, err := a.DB.GetStats()
	if err != nil {
		return trackCLIError("status", fmt.Errorf("database stats: %w", err))
	}
	_, _ = fmt.Fprintf(out, "\nSearches recorded: %d\n", stats.Searches)
	if state, err := a.DB.GetUserState(); err == nil && state.HasSearched() {
		_, _ = fmt.Fprintf(out, "Last search: %s\n", formatTimeSince(state.LastSearchAt))
	}
	_, _ = fmt.Fprintf(out, "Database: %s (%d KB)\n", a.DB.Path(), stats.CacheSizeBytes/1024)
	return nil
}
