package db

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asteroid-belt/metascope/internal/models"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(DefaultConfig(filepath.Join(t.TempDir(), "test.db")))
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Logf("Failed to close test database: %v", err)
		}
	})

	return db
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dirs", "metascope.db")

	db, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
	assert.Equal(t, dbPath, db.Path())
}

func TestNew_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "metascope.db")

	first, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)
	id := first.GetOrCreateTrackingID()
	require.NoError(t, first.Close())

	second, err := New(DefaultConfig(dbPath))
	require.NoError(t, err)
	defer func() { _ = second.Close() }()

	assert.Equal(t, id, second.GetOrCreateTrackingID())
}

func TestCredentials(t *testing.T) {
	db := testDB(t)

	cred, err := db.GetCredential()
	require.NoError(t, err)
	assert.Nil(t, cred)

	issued := time.Now().Truncate(time.Second)
	require.NoError(t, db.SaveCredential(&models.Credential{
		InstanceURL:  "https://acme.my.salesforce.com",
		AccessToken:  "00D!first",
		RefreshToken: "5Aep",
		IssuedAt:     issued,
	}))

	cred, err = db.GetCredential()
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, models.DefaultCredentialID, cred.ID)
	assert.Equal(t, "00D!first", cred.AccessToken)
	assert.True(t, cred.CanRefresh())

	// A second save replaces the single row.
	require.NoError(t, db.SaveCredential(&models.Credential{
		InstanceURL: "https://acme.my.salesforce.com",
		AccessToken: "00D!second",
		IssuedAt:    issued.Add(time.Hour),
	}))
	cred, err = db.GetCredential()
	require.NoError(t, err)
	assert.Equal(t, "00D!second", cred.AccessToken)
	assert.False(t, cred.CanRefresh())

	var count int64
	require.NoError(t, db.Model(&models.Credential{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.DeleteCredential())
	require.NoError(t, db.DeleteCredential())
	cred, err = db.GetCredential()
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestSearchHistory(t *testing.T) {
	db := testDB(t)
	base := time.Now().Add(-time.Hour)

	for i, term := range []string{"Account", "Contact", "Opportunity"} {
		require.NoError(t, db.RecordSearch(&models.SearchHistory{
			Term:        term,
			ResultCount: i,
			CreatedAt:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	rows, err := db.RecentSearches(2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Opportunity", rows[0].Term)
	assert.Equal(t, "Contact", rows[1].Term)
	assert.Len(t, rows[0].ID, 36)

	state, err := db.GetUserState()
	require.NoError(t, err)
	assert.True(t, state.HasSearched())

	stats, err := db.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Searches)
	assert.False(t, stats.LoggedIn)

	require.NoError(t, db.ClearHistory())
	rows, err = db.RecentSearches(10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSearchHistory_Prunes(t *testing.T) {
	db := testDB(t)
	base := time.Now().Add(-24 * time.Hour)

	for i := 0; i < MaxHistory+5; i++ {
		require.NoError(t, db.RecordSearch(&models.SearchHistory{
			Term:      "term",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	var count int64
	require.NoError(t, db.Model(&models.SearchHistory{}).Count(&count).Error)
	assert.Equal(t, int64(MaxHistory), count)
}

func TestGetOrCreateTrackingID(t *testing.T) {
	db := testDB(t)

	id := db.GetOrCreateTrackingID()
	assert.Len(t, id, 36)
	assert.Equal(t, id, db.GetOrCreateTrackingID())
}
