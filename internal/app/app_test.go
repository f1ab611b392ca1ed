package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/metascope/internal/auth"
	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/models"
	"github.com/asteroid-belt/metascope/internal/search"
	"github.com/asteroid-belt/metascope/internal/testutil"
)

func setup(t *testing.T, org *testutil.FakeOrg, cred *models.Credential) *App {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.BaseDir = t.TempDir()
	cfg.Salesforce.LoginURL = org.URL
	cfg.Salesforce.ClientID = "client-id"
	cfg.Salesforce.CacheSeconds = 0

	database, err := db.New(db.DefaultConfig(filepath.Join(cfg.BaseDir, "metascope.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	if cred != nil {
		require.NoError(t, database.SaveCredential(cred))
	}
	return Open(cfg, database, nil)
}

func seedOrg(org *testutil.FakeOrg) {
	org.SetRecords("ApexClass", map[string]any{
		"attributes": map[string]any{"type": "ApexClass"},
		"Id":         "01p000000000001",
		"Name":       "AccountService",
		"Body":       "public class AccountService {\n  Account a;\n}",
	})
}

func TestRunSearch_RecordsHistory(t *testing.T) {
	org := testutil.NewFakeOrg(t, "tok")
	seedOrg(org)
	a := setup(t, org, &models.Credential{InstanceURL: org.URL, AccessToken: "tok"})

	resp, err := a.RunSearch(context.Background(), "account", search.Options{}, "cli")
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "AccountService.cls", resp.Results[0].FileName)
	assert.Equal(t, 2, resp.Results[0].TotalMatches)

	rows, err := a.DB.RecentSearches(5)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "account", rows[0].Term)
	assert.Equal(t, 1, rows[0].ResultCount)
	assert.Equal(t, "AccountService.cls", rows[0].TopResult)
}

func TestRunSearch_ShortTermSkipsHistory(t *testing.T) {
	org := testutil.NewFakeOrg(t, "tok")
	a := setup(t, org, &models.Credential{InstanceURL: org.URL, AccessToken: "tok"})

	resp, err := a.RunSearch(context.Background(), "a", search.Options{}, "cli")
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, org.Requests())

	rows, err := a.DB.RecentSearches(5)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestRunSearch_RefreshesExpiredSession(t *testing.T) {
	org := testutil.NewFakeOrg(t, "tok")
	seedOrg(org)
	org.ExpireToken()
	a := setup(t, org, &models.Credential{InstanceURL: org.URL, AccessToken: "tok", RefreshToken: "refresh"})

	resp, err := a.RunSearch(context.Background(), "account", search.Options{}, "cli")
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, 1, org.Refreshes())

	cred, err := a.DB.GetCredential()
	require.NoError(t, err)
	assert.Equal(t, org.RefreshedToken(), cred.AccessToken)
	assert.Equal(t, "refresh", cred.RefreshToken)
}

func TestRunSearch_ExpiredWithoutRefreshToken(t *testing.T) {
	org := testutil.NewFakeOrg(t, "tok")
	org.ExpireToken()
	a := setup(t, org, &models.Credential{InstanceURL: org.URL, AccessToken: "tok"})

	_, err := a.RunSearch(context.Background(), "account", search.Options{}, "cli")
	assert.ErrorIs(t, err, auth.ErrReauthRequired)
	assert.Zero(t, org.Refreshes())
}

func TestRunSearch_NotLoggedIn(t *testing.T) {
	org := testutil.NewFakeOrg(t, "tok")
	a := setup(t, org, nil)

	_, err := a.RunSearch(context.Background(), "account", search.Options{}, "cli")
	assert.ErrorIs(t, err, auth.ErrNotLoggedIn)
}

func TestParseCategories(t *testing.T) {
	cats, err := ParseCategories([]string{"apex-class,flow", " lwc "})
	require.NoError(t, err)
	assert.Equal(t, []search.Category{search.CategoryApexClass, search.CategoryFlow, search.CategoryLWC}, cats)

	cats, err = ParseCategories(nil)
	require.NoError(t, err)
	assert.Empty(t, cats)

	_, err = ParseCategories([]string{"dashboard"})
	assert.Error(t, err)
}

func TestSearchConfig(t *testing.T) {
	sc := config.DefaultSearchConfig()
	sc.Concurrency = 3

	cfg := SearchConfig(sc)
	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30, cfg.FlowBatchLimit)
	assert.Equal(t, search.DefaultConfig().FallbackTimeout, cfg.FallbackTimeout)
}
