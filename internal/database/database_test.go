package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZanzyTHEbar/impact-effort-matrix/internal/types"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "evaluations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func records() []types.PersonRecord {
	return []types.PersonRecord{
		{PersonName: "Zoe", Features: []types.FeatureInput{
			{FeatureName: "Pairing Guide", MacroArea: "Discovery & Education", Impact: types.Float(4.5), Effort: types.Float(2), Selected: true},
			{FeatureName: "Price Alerts", Description: "Notify on drops", Impact: types.Float(2), Effort: nil},
		}},
		{PersonName: "Adam", Features: []types.FeatureInput{}},
		{PersonName: "Mia", Features: []types.FeatureInput{
			{FeatureName: "Cellar Tracker", Impact: types.Float(3), Effort: types.Float(4)},
		}},
	}
}

func TestRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))

	result, err := repo.ReplaceAll(ctx, records())
	require.NoError(t, err)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, 3, result.People)
	assert.Equal(t, 3, result.Evaluations)

	loaded, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, records(), loaded)

	counts, err := repo.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, Counts{People: 3, Evaluations: 3}, counts)
}

func TestRepository_ReplaceAllOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(openTestDB(t))

	_, err := repo.ReplaceAll(ctx, records())
	require.NoError(t, err)
	_, err = repo.ReplaceAll(ctx, records()[2:])
	require.NoError(t, err)

	loaded, err := repo.LoadRecords(ctx)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "Mia", loaded[0].PersonName)
}

func TestRepository_Empty(t *testing.T) {
	repo := NewRepository(openTestDB(t))

	loaded, err := repo.LoadRecords(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestDB_PreparedStatements(t *testing.T) {
	db := openTestDB(t)

	_, err := db.GetPreparedStatement("insert_person")
	assert.NoError(t, err)
	_, err = db.GetPreparedStatement("drop_everything")
	assert.Error(t, err)

	stats := db.GetPoolStats()
	assert.Equal(t, 4, stats["max_open_connections"])
}
