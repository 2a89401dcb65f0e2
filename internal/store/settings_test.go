package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/db"
)

func TestGetSessionSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetSessionSecret(ctx, database)
	require.NoError(t, err)
	assert.Len(t, secret1, 64) // 32 bytes hex encoded

	secret2, err := GetSessionSecret(ctx, database)
	require.NoError(t, err)
	assert.Equal(t, secret1, secret2)

	stored, ok, err := GetSetting(ctx, database, SessionSecretKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, secret1, stored)
}

func TestInitSettingKeepsFirstValue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	_, ok, err := GetSetting(ctx, database, "greeting")
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := InitSetting(ctx, database, "greeting", "hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)

	v, err = InitSetting(ctx, database, "greeting", "bye")
	require.NoError(t, err)
	assert.Equal(t, "hello", v)
}
