package seed

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/store"
)

func newSeeder(t *testing.T, seed int64) (*Seeder, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	acc := &accounts.Service{DB: database, Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}}
	return New(acc, &catalog.Service{DB: database}, &messaging.Service{DB: database}, seed), database
}

func TestRun(t *testing.T) {
	s, database := newSeeder(t, 42)
	ctx := context.Background()

	res, err := s.Run(ctx, Options{Users: 4, Items: 10, Messages: 6, ResolvedShare: 0.3})
	require.NoError(t, err)
	assert.Equal(t, 4, res.Users)
	assert.Equal(t, 10, res.Items)
	assert.Equal(t, 6, res.Messages)

	users, err := store.ListUsers(ctx, database)
	require.NoError(t, err)
	assert.Len(t, users, 4)

	// Seeded accounts can log in.
	_, err = s.Accounts.Authenticate(ctx, users[0].Username, Password)
	assert.NoError(t, err)

	page, err := s.Catalog.Browse(ctx, catalog.BrowseFilter{})
	require.NoError(t, err)
	assert.Equal(t, res.Items-res.Resolved, page.Total)
}

func TestRunIsReproducible(t *testing.T) {
	ctx := context.Background()
	names := func() []string {
		s, database := newSeeder(t, 7)
		_, err := s.Run(ctx, Options{Users: 3})
		require.NoError(t, err)
		users, err := store.ListUsers(ctx, database)
		require.NoError(t, err)
		var out []string
		for _, u := range users {
			out = append(out, u.Username)
		}
		return out
	}
	assert.Equal(t, names(), names())
}

func TestRunSingleUserSkipsMessages(t *testing.T) {
	s, _ := newSeeder(t, 1)
	res, err := s.Run(context.Background(), Options{Users: 1, Items: 2, Messages: 5})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Items)
	assert.Zero(t, res.Messages)
}

func TestUsernameChars(t *testing.T) {
	assert.Equal(t, "oconnor", usernameChars("o'connor"))
	assert.Equal(t, "anne-marie", usernameChars("anne-marie"))
	assert.Empty(t, usernameChars("李"))
}
