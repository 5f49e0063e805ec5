package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema creates all tables needed for testing
const testSchema = `
CREATE TABLE item_catalog (source TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE recipes (item_id TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);
CREATE TABLE player_identity (username TEXT PRIMARY KEY, data TEXT NOT NULL, expires_at INTEGER NOT NULL);

CREATE INDEX idx_item_catalog_expires ON item_catalog(expires_at);
CREATE INDEX idx_recipes_expires ON recipes(expires_at);
CREATE INDEX idx_player_identity_expires ON player_identity(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func insertRaw(t *testing.T, db *sql.DB, table, keyCol, key, data string, expiresAt int64) {
	_, err := db.Exec("INSERT INTO "+table+" ("+keyCol+", data, expires_at) VALUES (?, ?, ?)", key, data, expiresAt)
	require.NoError(t, err)
}

func TestNewRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	assert.NotNil(t, repo)
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	data := map[string]int{"STICK": 1, "STRING": 3}
	err := repo.Store(TableRecipes, "FISHING_ROD", data, TTLRecipe)
	require.NoError(t, err)

	var storedData string
	var expiresAt int64
	err = db.QueryRow("SELECT data, expires_at FROM recipes WHERE item_id = ?", "FISHING_ROD").Scan(&storedData, &expiresAt)
	require.NoError(t, err)

	var parsed map[string]int
	require.NoError(t, json.Unmarshal([]byte(storedData), &parsed))
	assert.Equal(t, 3, parsed["STRING"])

	expected := time.Now().Add(TTLRecipe).Unix()
	assert.InDelta(t, expected, expiresAt, 5)
}

func TestStoreUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)

	require.NoError(t, repo.Store(TablePlayerIdentity, "notch", map[string]string{"id": "old"}, time.Hour))
	require.NoError(t, repo.Store(TablePlayerIdentity, "notch", map[string]string{"id": "new"}, time.Hour))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM player_identity").Scan(&count))
	assert.Equal(t, 1, count)

	raw, err := repo.Get(TablePlayerIdentity, "notch")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"new"}`, string(raw))
}

func TestGetIfFresh_Fresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TableItemCatalog, "hypixel", map[string]string{"stick": "STICK"}, time.Hour))

	raw, err := repo.GetIfFresh(TableItemCatalog, "hypixel")
	require.NoError(t, err)
	assert.JSONEq(t, `{"stick":"STICK"}`, string(raw))
}

func TestGetIfFresh_Expired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insertRaw(t, db, TableItemCatalog, "source", "hypixel", `{"stick":"STICK"}`, time.Now().Add(-time.Hour).Unix())

	repo := NewRepository(db)
	raw, err := repo.GetIfFresh(TableItemCatalog, "hypixel")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestGet_ReturnsStaleData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	insertRaw(t, db, TableRecipes, "item_id", "FISHING_ROD", `{"STICK":3}`, time.Now().Add(-24*time.Hour).Unix())

	repo := NewRepository(db)

	fresh, err := repo.GetIfFresh(TableRecipes, "FISHING_ROD")
	require.NoError(t, err)
	assert.Nil(t, fresh)

	stale, err := repo.Get(TableRecipes, "FISHING_ROD")
	require.NoError(t, err)
	assert.JSONEq(t, `{"STICK":3}`, string(stale))
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	raw, err := repo.Get(TableRecipes, "NOPE")
	require.NoError(t, err)
	assert.Nil(t, raw)
}

func TestLoad(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	insertRaw(t, db, TableRecipes, "item_id", "OLD", `{"STICK":3}`, time.Now().Add(-time.Hour).Unix())
	require.NoError(t, repo.Store(TableRecipes, "NEW", map[string]int{"STRING": 2}, time.Hour))

	t.Run("fresh entry", func(t *testing.T) {
		var out map[string]int
		found, err := repo.Load(TableRecipes, "NEW", &out, false)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 2, out["STRING"])
	})

	t.Run("expired entry without stale fallback", func(t *testing.T) {
		var out map[string]int
		found, err := repo.Load(TableRecipes, "OLD", &out, false)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("expired entry with stale fallback", func(t *testing.T) {
		var out map[string]int
		found, err := repo.Load(TableRecipes, "OLD", &out, true)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 3, out["STICK"])
	})

	t.Run("undecodable entry", func(t *testing.T) {
		insertRaw(t, db, TableRecipes, "item_id", "BROKEN", `not json`, time.Now().Add(time.Hour).Unix())
		var out map[string]int
		found, err := repo.Load(TableRecipes, "BROKEN", &out, false)
		assert.Error(t, err)
		assert.False(t, found)
	})
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	require.NoError(t, repo.Store(TablePlayerIdentity, "notch", map[string]string{"id": "abc"}, time.Hour))
	require.NoError(t, repo.Delete(TablePlayerIdentity, "notch"))

	raw, err := repo.Get(TablePlayerIdentity, "notch")
	require.NoError(t, err)
	assert.Nil(t, raw)

	// Deleting a missing key is not an error
	assert.NoError(t, repo.Delete(TablePlayerIdentity, "nobody"))
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	now := time.Now()
	insertRaw(t, db, TableRecipes, "item_id", "EXPIRED_1", `{}`, now.Add(-2*time.Hour).Unix())
	insertRaw(t, db, TableRecipes, "item_id", "EXPIRED_2", `{}`, now.Add(-time.Minute).Unix())
	insertRaw(t, db, TableRecipes, "item_id", "FRESH", `{}`, now.Add(time.Hour).Unix())

	repo := NewRepository(db)
	deleted, err := repo.DeleteExpired(TableRecipes)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM recipes").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDeleteAllExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	past := time.Now().Add(-time.Hour).Unix()
	future := time.Now().Add(time.Hour).Unix()
	insertRaw(t, db, TableItemCatalog, "source", "old", `{}`, past)
	insertRaw(t, db, TableRecipes, "item_id", "OLD_A", `{}`, past)
	insertRaw(t, db, TableRecipes, "item_id", "OLD_B", `{}`, past)
	insertRaw(t, db, TablePlayerIdentity, "username", "fresh", `{}`, future)

	repo := NewRepository(db)
	results, err := repo.DeleteAllExpired()
	require.NoError(t, err)

	assert.Equal(t, int64(1), results[TableItemCatalog])
	assert.Equal(t, int64(2), results[TableRecipes])
	assert.Equal(t, int64(0), results[TablePlayerIdentity])
}

func TestKeyColumn(t *testing.T) {
	tests := []struct {
		table    string
		expected string
	}{
		{TableItemCatalog, "source"},
		{TableRecipes, "item_id"},
		{TablePlayerIdentity, "username"},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			col, err := keyColumn(tt.table)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, col)
		})
	}
}

func TestInvalidTableName(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db)
	bad := "recipes; DROP TABLE recipes"

	assert.Error(t, repo.Store(bad, "k", "v", time.Hour))
	_, err := repo.Get(bad, "k")
	assert.Error(t, err)
	_, err = repo.GetIfFresh(bad, "k")
	assert.Error(t, err)
	assert.Error(t, repo.Delete(bad, "k"))
	_, err = repo.DeleteExpired(bad)
	assert.Error(t, err)
}
