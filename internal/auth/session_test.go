package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/store"
)

func TestSessionsLifecycle(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, database, "alice", "alice@campus.edu", "hash", "", "")
	require.NoError(t, err)

	sessions := NewSessions("secret", database)

	token, expires, err := sessions.Issue(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(TokenExpiry), expires, time.Second)

	got, err := sessions.Verify(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, sessions.Revoke(ctx, token))

	_, err = sessions.Verify(ctx, token)
	assert.True(t, apperror.IsAuthentication(err), "revoked token: %v", err)
}

func TestSessionsDeletedUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, database, "bob", "bob@campus.edu", "hash", "", "")
	require.NoError(t, err)

	sessions := NewSessions("secret", database)
	token, _, err := sessions.Issue(user)
	require.NoError(t, err)

	require.NoError(t, store.DeleteUser(ctx, database, user.ID))

	_, err = sessions.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionsRejectsForeignToken(t *testing.T) {
	database := db.NewTestDB(t)

	user, err := store.CreateUser(context.Background(), database, "alice", "alice@campus.edu", "hash", "", "")
	require.NoError(t, err)

	other, _, err := NewSessions("other-secret", database).Issue(user)
	require.NoError(t, err)

	sessions := NewSessions("secret", database)
	_, err = sessions.Verify(context.Background(), other)
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = sessions.Verify(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidSession)

	// Revoking garbage is a no-op.
	assert.NoError(t, sessions.Revoke(context.Background(), "garbage"))
}

func TestSessionsExpire(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := store.CreateUser(ctx, database, "carol", "carol@campus.edu", "hash", "", "")
	require.NoError(t, err)

	now := time.Now()
	sessions := NewSessions("secret", database)
	sessions.Now = func() time.Time { return now }

	token, expires, err := sessions.Issue(user)
	require.NoError(t, err)
	assert.Equal(t, now.Add(TokenExpiry), expires)

	claims, err := sessions.parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "carol", claims.Username)
	assert.NotEmpty(t, claims.ID)

	now = now.Add(TokenExpiry - time.Minute)
	_, err = sessions.Verify(ctx, token)
	assert.NoError(t, err, "still valid just before expiry")

	now = now.Add(time.Hour)
	_, err = sessions.Verify(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidSession)
}

func TestSessionIDsAreUnique(t *testing.T) {
	database := db.NewTestDB(t)

	user, err := store.CreateUser(context.Background(), database, "dave", "dave@campus.edu", "hash", "", "")
	require.NoError(t, err)

	sessions := NewSessions("secret", database)
	a, _, err := sessions.Issue(user)
	require.NoError(t, err)
	b, _, err := sessions.Issue(user)
	require.NoError(t, err)

	ca, err := sessions.parse(a)
	require.NoError(t, err)
	cb, err := sessions.parse(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: 4}

	hash, err := h.Hash("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.NoError(t, h.Compare(hash, "correct horse"))
	assert.Error(t, h.Compare(hash, "wrong"))
}
