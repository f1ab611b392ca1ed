package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/metascope/internal/config"
	"github.com/asteroid-belt/metascope/internal/db"
	"github.com/asteroid-belt/metascope/internal/search"
	"github.com/asteroid-belt/metascope/internal/testutil"
)

// TestIntegration_SearchRealOrg searches a real org for a term every org
// has. Needs METASCOPE_INSTANCE_URL and METASCOPE_ACCESS_TOKEN.
func TestIntegration_SearchRealOrg(t *testing.T) {
	testutil.SkipIntegrationTests(t)
	if os.Getenv("METASCOPE_INSTANCE_URL") == "" || os.Getenv("METASCOPE_ACCESS_TOKEN") == "" {
		t.Skip("METASCOPE_INSTANCE_URL and METASCOPE_ACCESS_TOKEN are required")
	}
	t.Setenv("METASCOPE_HOME", t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	database, err := db.New(db.DefaultConfig(filepath.Join(cfg.BaseDir, "metascope.db")))
	require.NoError(t, err)
	defer func() { _ = database.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	a := Open(cfg, database, nil)
	resp, err := a.RunSearch(ctx, "Account", search.Options{
		Categories: []search.Category{search.CategoryApexClass, search.CategoryLayout},
	}, "cli")
	require.NoError(t, err)

	for _, b := range resp.Branches {
		t.Logf("%s: %s (%d items, %s)", b.Name, b.Status, b.Items, b.Duration)
	}
	assert.LessOrEqual(t, len(resp.Results), search.MaxResults)
	for _, r := range resp.Results {
		assert.NotEmpty(t, r.FileName)
		assert.LessOrEqual(t, len(r.Matches), search.MaxMatchesPerItem)
	}
}
