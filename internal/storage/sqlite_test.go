package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/richdownie/healthme/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStorage(t *testing.T) *SQLiteStorage {
	store, err := Open(context.Background(), Options{
		Backend:    BackendSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "healthme.db"),
	}, internal.NewNopLogger())
	require.NoError(t, err)
	s, ok := store.(*SQLiteStorage)
	require.True(t, ok)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStorageContract(t *testing.T) {
	testStoreContract(t, newTestSQLiteStorage(t))
}

func TestSQLiteMigrationsIdempotent(t *testing.T) {
	s := newTestSQLiteStorage(t)
	require.NoError(t, s.Migrate(context.Background()))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(1) FROM schema_migrations`).Scan(&count))
	assert.Equal(t, len(sqliteMigrations), count)

	var diastolicCols int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(1) FROM pragma_table_info('activities') WHERE name = 'diastolic'`).Scan(&diastolicCols))
	assert.Equal(t, 1, diastolicCols)
}
