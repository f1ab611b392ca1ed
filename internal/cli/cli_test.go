package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/metascope/internal/app"
	"github.com/asteroid-belt/metascope/internal/auth"
	"github.com/asteroid-belt/metascope/internal/salesforce"
	"github.com/asteroid-belt/metascope/internal/telemetry"
	"github.com/asteroid-belt/metascope/internal/testutil"
)

func TestMain(m *testing.M) {
	_ = os.Setenv("METASCOPE_TELEMETRY_TRACKING_ENABLED", "false")
	telemetryClient = telemetry.New(nil)
	os.Exit(m.Run())
}

// resetFlags puts every flag back to its default; cobra keeps parsed values
// in package variables between executions.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	})
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// run executes the root command with args against an isolated home dir.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// withOrg points the CLI at a fake org through the environment.
func withOrg(t *testing.T) *testutil.FakeOrg {
	t.Helper()
	org := testutil.NewFakeOrg(t, "tok")
	t.Setenv("METASCOPE_HOME", t.TempDir())
	t.Setenv("METASCOPE_INSTANCE_URL", org.URL)
	t.Setenv("METASCOPE_ACCESS_TOKEN", "tok")
	return org
}

func seedAccount(org *testutil.FakeOrg) {
	org.SetRecords("ApexClass", map[string]any{
		"attributes": map[string]any{"type": "ApexClass"},
		"Id":         "01p000000000001",
		"Name":       "AccountService",
		"Body":       "public class AccountService {\n  Account a;\n}",
	})
}

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "metascope", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.Contains(t, rootCmd.Long, "METASCOPE_TELEMETRY_TRACKING_ENABLED=false")
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	var names []string
	for _, cmd := range rootCmd.Commands() {
		names = append(names, cmd.Name())
	}

	for _, want := range []string{"search", "categories", "login", "logout", "status", "history"} {
		assert.Contains(t, names, want)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{auth.ErrNotLoggedIn, "not_logged_in"},
		{fmt.Errorf("search: %w", auth.ErrReauthRequired), "reauth_required"},
		{&salesforce.APIError{StatusCode: 401, Code: "INVALID_SESSION_ID"}, "session_expired"},
		{context.DeadlineExceeded, "network_error"},
		{errors.New("load config: bad yaml"), "config_error"},
		{errors.New("connection refused"), "network_error"},
		{errors.New(`invalid category: unknown category "x"`), "validation_error"},
		{errors.New("boom"), "unknown_error"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyError(tt.err), tt.err.Error())
	}
}

func TestFormatTimeSince(t *testing.T) {
	assert.Equal(t, "just now", formatTimeSince(time.Now()))
	assert.Equal(t, "5 minutes ago", formatTimeSince(time.Now().Add(-5*time.Minute-time.Second)))
	assert.Equal(t, "1 hour ago", formatTimeSince(time.Now().Add(-61*time.Minute)))
	assert.Equal(t, "2 days ago", formatTimeSince(time.Now().Add(-49*time.Hour)))

	old := time.Date(2020, 1, 2, 0, 0, 0, 0, time.Local)
	assert.Equal(t, "2020-01-02", formatTimeSince(old))
}

func TestSearch_ShortTermMakesNoCalls(t *testing.T) {
	org := withOrg(t)

	out, err := run(t, "search", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "at least 2 characters")
	assert.Zero(t, org.Requests())
}

func TestSearch_RendersResults(t *testing.T) {
	org := withOrg(t)
	seedAccount(org)

	out, err := run(t, "search", "account")
	require.NoError(t, err)
	assert.Contains(t, out, "RESULTS (1 items, 2 matches)")
	assert.Contains(t, out, "AccountService.cls")
	assert.Contains(t, out, "Line 2 (Apex Class)")
}

func TestSearch_JSON(t *testing.T) {
	org := withOrg(t)
	seedAccount(org)

	out, err := run(t, "search", "account", "--json", "--category", "apex-class")
	require.NoError(t, err)

	var view app.SearchView
	require.NoError(t, json.Unmarshal([]byte(out), &view))
	assert.Equal(t, "account", view.Term)
	require.Len(t, view.Results, 1)
	assert.Equal(t, "ApexClass", view.Results[0].Category)
	assert.Equal(t, 2, view.Results[0].TotalMatches)
	assert.False(t, view.Partial)
}

func TestSearch_UnknownCategory(t *testing.T) {
	org := withOrg(t)

	_, err := run(t, "search", "account", "--category", "dashboard")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category")
	assert.Zero(t, org.Requests())
}

func TestSearch_CopyTopResult(t *testing.T) {
	org := withOrg(t)
	seedAccount(org)

	var copied string
	orig := copyToClipboard
	copyToClipboard = func(s string) error { copied = s; return nil }
	defer func() { copyToClipboard = orig }()

	out, err := run(t, "search", "account", "--copy")
	require.NoError(t, err)
	assert.Equal(t, "AccountService.cls", copied)
	assert.Contains(t, out, "Copied AccountService.cls")
}

func TestSearch_ExpiredSessionWithoutRefresh(t *testing.T) {
	org := withOrg(t)
	org.ExpireToken()

	_, err := run(t, "search", "account")
	assert.ErrorIs(t, err, auth.ErrReauthRequired)
}

func TestLoginStatusLogout(t *testing.T) {
	t.Setenv("METASCOPE_HOME", t.TempDir())

	out, err := run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")

	out, err = run(t, "login", "--instance-url", "https://acme.my.salesforce.com/", "--access-token", "00D!abc")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged in to acme.my.salesforce.com")
	assert.Contains(t, out, "No refresh token")

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Org: https://acme.my.salesforce.com")
	assert.Contains(t, out, "Session from: stored")

	out, err = run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out.")

	out, err = run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in.")
}

func TestLogin_RejectsPlainHTTP(t *testing.T) {
	t.Setenv("METASCOPE_HOME", t.TempDir())

	_, err := run(t, "login", "--instance-url", "http://acme.my.salesforce.com", "--access-token", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "https")
}

func TestLogin_AuthURL(t *testing.T) {
	t.Setenv("METASCOPE_HOME", t.TempDir())
	t.Setenv("METASCOPE_CLIENT_ID", "client-123")

	out, err := run(t, "login", "--auth-url")
	require.NoError(t, err)
	assert.Contains(t, out, "https://login.salesforce.com/services/oauth2/authorize?")
	assert.Contains(t, out, "client_id=client-123")
}

func TestHistory(t *testing.T) {
	org := withOrg(t)
	seedAccount(org)

	out, err := run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "No searches yet.")

	_, err = run(t, "search", "account")
	require.NoError(t, err)

	out, err = run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "RECENT SEARCHES (1)")
	assert.Contains(t, out, `"account"`)
	assert.Contains(t, out, "top: ")

	out, err = run(t, "history", "--json")
	require.NoError(t, err)
	var rows []app.HistoryView
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].ResultCount)

	out, err = run(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared")
}

func TestCategories(t *testing.T) {
	out, err := run(t, "categories")
	require.NoError(t, err)
	assert.Contains(t, out, "apex-class")
	assert.Contains(t, out, "{name}.flow-meta.xml")
}
