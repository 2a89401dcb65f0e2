package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathFromURL(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"sqlite:////var/lib/lostfound.db", "/var/lib/lostfound.db", false},
		{"sqlite:///instance/lost_found.db", "instance/lost_found.db", false},
		{"sqlite://", ":memory:", false},
		{"file:test.db?cache=shared", "file:test.db?cache=shared", false},
		{":memory:", ":memory:", false},
		{"lostfound.sqlite3", "lostfound.sqlite3", false},
		{"sqlite:///", "", true},
		{"sqlite://host/lost_found.db", "", true},
		{"postgres://localhost/lostfound", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := PathFromURL(tt.url)
		if tt.wantErr {
			assert.Error(t, err, tt.url)
			continue
		}
		require.NoError(t, err, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestDSNAppendsPragmas(t *testing.T) {
	const params = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_time_format=sqlite"
	assert.Equal(t, "a.db?"+params, dsn("a.db"))
	assert.Equal(t, "file:a.db?mode=rwc&"+params, dsn("file:a.db?mode=rwc"))
}

func TestEnsureSchemaIdempotent(t *testing.T) {
	database := NewTestDB(t)
	require.NoError(t, EnsureSchema(database))

	var fk int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)
}
