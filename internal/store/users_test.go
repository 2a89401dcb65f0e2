package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
)

func mustUser(t *testing.T, database *sql.DB, username string) *model.User {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, username+"@campus.edu", "hash", "", "")
	require.NoError(t, err)
	return u
}

func mustItem(t *testing.T, database *sql.DB, owner *model.User, title string, status model.Status, category model.Category, created time.Time) *model.Item {
	t.Helper()
	item := &model.Item{
		Title:         title,
		Description:   "Description of " + title,
		Category:      category,
		Status:        status,
		DateLostFound: "2024-03-01",
		CreatedAt:     created,
		UpdatedAt:     created,
		UserID:        owner.ID,
	}
	id, err := InsertItem(context.Background(), database, item)
	require.NoError(t, err)
	item.ID = id
	return item
}

func TestCreateAndGetUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "testuser", "test@campus.edu", "hash123", "Test User", "555-0100")
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "Test User", user.FullName)
	assert.False(t, user.CreatedAt.IsZero())

	got, err := GetUser(ctx, database, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "test@campus.edu", got.Email)
	assert.Equal(t, "555-0100", got.Phone)

	missing, err := GetUser(ctx, database, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUsernameAndEmailUniqueCaseInsensitive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	mustUser(t, database, "alice")

	_, err := CreateUser(ctx, database, "ALICE", "other@campus.edu", "hash", "", "")
	assert.Error(t, err)
	_, err = CreateUser(ctx, database, "alice2", "Alice@Campus.edu", "hash", "", "")
	assert.Error(t, err)

	userTaken, emailTaken, err := UserTaken(ctx, database, "Alice", "nobody@campus.edu")
	require.NoError(t, err)
	assert.True(t, userTaken)
	assert.False(t, emailTaken)

	userTaken, emailTaken, err = UserTaken(ctx, database, "bob", "ALICE@campus.edu")
	require.NoError(t, err)
	assert.False(t, userTaken)
	assert.True(t, emailTaken)
}

func TestGetUserByLogin(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice := mustUser(t, database, "alice")

	byName, err := GetUserByLogin(ctx, database, "alice")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, alice.ID, byName.ID)

	byEmail, err := GetUserByLogin(ctx, database, "alice@campus.edu")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, alice.ID, byEmail.ID)

	missing, err := GetUserByLogin(ctx, database, "bob")
	require.NoError(t, err)
	assert.Nil(t, missing)

	byUsername, err := GetUserByUsername(ctx, database, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, byUsername)
	assert.Equal(t, alice.ID, byUsername.ID)
}

func TestListUsers(t *testing.T) {
	database := db.NewTestDB(t)

	mustUser(t, database, "a")
	mustUser(t, database, "b")

	users, err := ListUsers(context.Background(), database)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDeleteUserCascades(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	alice := mustUser(t, database, "alice")
	bob := mustUser(t, database, "bob")

	aliceItem := mustItem(t, database, alice, "Blue Backpack", model.StatusLost, model.CategoryBags, now)
	bobItem := mustItem(t, database, bob, "Keys", model.StatusFound, model.CategoryKeys, now)

	// One message in each direction.
	_, err := InsertMessage(ctx, database, &model.Message{Subject: "s", Body: "b", SenderID: bob.ID, ReceiverID: alice.ID, CreatedAt: now})
	require.NoError(t, err)
	_, err = InsertMessage(ctx, database, &model.Message{Subject: "s", Body: "b", SenderID: alice.ID, ReceiverID: bob.ID, ItemID: &bobItem.ID, CreatedAt: now})
	require.NoError(t, err)

	require.NoError(t, DeleteUser(ctx, database, alice.ID))

	got, err := GetItem(ctx, database, aliceItem.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "alice's item should be deleted")

	got, err = GetItem(ctx, database, bobItem.ID)
	require.NoError(t, err)
	assert.NotNil(t, got, "bob's item should survive")

	inbox, err := ListInbox(ctx, database, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, inbox)
	sent, err := ListSent(ctx, database, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, sent)
}
