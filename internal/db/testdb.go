package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB returns a fresh in-memory database with the schema applied.
// It is closed when the test ends.
func NewTestDB(t testing.TB) *sql.DB {
	t.Helper()

	database, err := Open(":memory:")
	require.NoError(t, err, "opening test database")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, EnsureSchema(database), "creating test database schema")
	return database
}
