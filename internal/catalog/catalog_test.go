package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/db"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/uploads"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	for x := 0; x < 20; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.RGBA{0, 128, 255, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T) (*Service, *uploads.Store) {
	t.Helper()
	images, err := uploads.New(t.TempDir())
	require.NoError(t, err)
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	return &Service{DB: db.NewTestDB(t), Images: images, Now: c.now}, images
}

func newUser(t *testing.T, svc *Service, username string) *model.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), svc.DB, username, username+"@campus.edu", "hash", "", "")
	require.NoError(t, err)
	return u
}

func backpack() ItemInput {
	return ItemInput{
		Title:         "Blue Backpack",
		Description:   "Navy blue with a laptop sleeve",
		Category:      "Bags",
		Status:        "lost",
		Location:      "Student Union",
		DateLostFound: "2024-03-01",
	}
}

func TestCreateAndBrowseScenario(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	item, err := svc.Create(ctx, alice, backpack())
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Empty(t, item.ImageFilename)

	ids := func(f BrowseFilter) []int64 {
		page, err := svc.Browse(ctx, f)
		require.NoError(t, err)
		var out []int64
		for _, it := range page.Items {
			out = append(out, it.ID)
		}
		return out
	}

	assert.Equal(t, []int64{item.ID}, ids(BrowseFilter{Status: "lost"}))
	assert.Equal(t, []int64{item.ID}, ids(BrowseFilter{Category: "Bags"}))
	assert.Empty(t, ids(BrowseFilter{Status: "found"}))
	assert.Equal(t, []int64{item.ID}, ids(BrowseFilter{Query: "student union"}), "location-only match")

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.OwnerUsername)
	assert.Equal(t, "2024-03-01", got.DateLostFound)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	tests := []struct {
		name   string
		mutate func(*ItemInput)
	}{
		{"missing title", func(in *ItemInput) { in.Title = "   " }},
		{"missing description", func(in *ItemInput) { in.Description = "" }},
		{"bad status", func(in *ItemInput) { in.Status = "stolen" }},
		{"bad category", func(in *ItemInput) { in.Category = "Furniture" }},
		{"missing date", func(in *ItemInput) { in.DateLostFound = "" }},
		{"bad date", func(in *ItemInput) { in.DateLostFound = "2024-13-45" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := backpack()
			tt.mutate(&in)
			_, err := svc.Create(ctx, alice, in)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}

	n, err := store.CountItems(ctx, svc.DB, store.ItemFilter{IncludeResolved: true})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateWithImage(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	in := backpack()
	in.Image = &Upload{Filename: "my backpack.png", Content: bytes.NewReader(pngBytes(t))}
	item, err := svc.Create(ctx, alice, in)
	require.NoError(t, err)

	want := fmt.Sprintf("%d_20240301_120001_my_backpack.png", alice.ID)
	assert.Equal(t, want, item.ImageFilename)
	assert.FileExists(t, images.Path(want))

	got, err := svc.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got.ImageFilename)
}

func TestCreateSkipsDisallowedImage(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	for _, up := range []*Upload{
		{Filename: "notes.pdf", Content: bytes.NewReader([]byte("%PDF"))},
		{Filename: "fake.png", Content: bytes.NewReader([]byte("not an image"))},
		{Filename: "", Content: bytes.NewReader(nil)},
	} {
		in := backpack()
		in.Image = up
		item, err := svc.Create(ctx, alice, in)
		require.NoError(t, err, up.Filename)
		assert.Empty(t, item.ImageFilename, up.Filename)
	}

	entries, err := os.ReadDir(images.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "only the thumbs dir")
}

func TestCreateCommitFailureRemovesImage(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	images, err := uploads.New(t.TempDir())
	require.NoError(t, err)
	svc := &Service{DB: mockDB, Images: images}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO items").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectExec("UPDATE items SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	in := backpack()
	in.Image = &Upload{Filename: "bag.png", Content: bytes.NewReader(pngBytes(t))}
	_, err = svc.Create(context.Background(), &model.User{ID: 1, Username: "alice"}, in)
	assert.Equal(t, apperror.Internal, apperror.KindOf(err))

	entries, err := os.ReadDir(images.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "image removed after failed commit")

	thumbs, err := os.ReadDir(images.Dir + "/" + uploads.ThumbDir)
	require.NoError(t, err)
	assert.Empty(t, thumbs)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type failingImages struct{}

func (failingImages) Save(int64, string, io.Reader, time.Time) (string, error) {
	return "", errors.New("disk full")
}

func (failingImages) Remove(string) error { return nil }

func TestCreateImageFailureRollsBack(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	svc := &Service{DB: mockDB, Images: failingImages{}}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO items").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectRollback()

	in := backpack()
	in.Image = &Upload{Filename: "bag.png", Content: bytes.NewReader(nil)}
	_, err = svc.Create(context.Background(), &model.User{ID: 1, Username: "alice"}, in)
	assert.Equal(t, apperror.Internal, apperror.KindOf(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBrowsePagination(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	var last *model.Item
	for i := 0; i < PageSize+1; i++ {
		in := backpack()
		in.Title = fmt.Sprintf("Item %02d", i)
		item, err := svc.Create(ctx, alice, in)
		require.NoError(t, err)
		last = item
	}

	page, err := svc.Browse(ctx, BrowseFilter{Page: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 2, page.Pages)
	assert.Equal(t, PageSize+1, page.Total)
	assert.Len(t, page.Items, PageSize)
	assert.Equal(t, last.ID, page.Items[0].ID, "newest first")
	assert.False(t, page.HasPrev())
	assert.True(t, page.HasNext())

	page, err = svc.Browse(ctx, BrowseFilter{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "Item 00", page.Items[0].Title)
	assert.True(t, page.HasPrev())
	assert.False(t, page.HasNext())

	page, err = svc.Browse(ctx, BrowseFilter{Page: 99})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 99, page.Page)

	// Offsets for huge page numbers must not wrap around to page 1.
	for _, p := range []int{math.MaxInt/PageSize + 2, math.MaxInt} {
		page, err = svc.Browse(ctx, BrowseFilter{Page: p})
		require.NoError(t, err)
		assert.Empty(t, page.Items, "page %d", p)
		assert.False(t, page.HasNext())
	}
}

func TestBrowseUnknownFiltersMeanAll(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	_, err := svc.Create(ctx, alice, backpack())
	require.NoError(t, err)

	page, err := svc.Browse(ctx, BrowseFilter{Status: "stolen", Category: "bogus"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, FilterAll, page.Filter.Status)
	assert.Equal(t, FilterAll, page.Filter.Category)
}

func TestResolvedHiddenFromBrowse(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	item, err := svc.Create(ctx, alice, backpack())
	require.NoError(t, err)

	resolved, err := svc.Resolve(ctx, item.ID, alice)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)

	// Idempotent.
	_, err = svc.Resolve(ctx, item.ID, alice)
	require.NoError(t, err)

	for _, f := range []BrowseFilter{{}, {Status: "lost"}, {Category: "Bags"}, {Query: "backpack"}} {
		page, err := svc.Browse(ctx, f)
		require.NoError(t, err)
		assert.Empty(t, page.Items, "%+v", f)
	}

	recent, err := svc.Recent(ctx, model.StatusLost, RecentLimit)
	require.NoError(t, err)
	assert.Empty(t, recent)

	lost, _, err := svc.Dashboard(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, lost, 1, "dashboard keeps resolved items")
}

func TestOwnershipChecks(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")
	bob := newUser(t, svc, "bob")

	item, err := svc.Create(ctx, alice, backpack())
	require.NoError(t, err)

	_, err = svc.Update(ctx, item.ID, bob, backpack())
	assert.True(t, apperror.IsAuthorization(err))

	_, err = svc.Resolve(ctx, item.ID, bob)
	assert.True(t, apperror.IsAuthorization(err))

	err = svc.Delete(ctx, item.ID, bob)
	assert.True(t, apperror.IsAuthorization(err))

	assert.ErrorIs(t, CanModify(item, nil), ErrNotOwner)
	assert.NoError(t, CanModify(item, alice))

	_, err = svc.Get(ctx, item.ID+100)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdate(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	in := backpack()
	in.Image = &Upload{Filename: "old.png", Content: bytes.NewReader(pngBytes(t))}
	item, err := svc.Create(ctx, alice, in)
	require.NoError(t, err)
	oldImage := item.ImageFilename
	require.FileExists(t, images.Path(oldImage))

	edit := backpack()
	edit.Title = "Navy Backpack"
	edit.Status = "found"
	edit.DateLostFound = ""
	updated, err := svc.Update(ctx, item.ID, alice, edit)
	require.NoError(t, err)
	assert.Equal(t, "Navy Backpack", updated.Title)
	assert.Equal(t, model.StatusFound, updated.Status)
	assert.Equal(t, "2024-03-01", updated.DateLostFound, "empty date keeps the old one")
	assert.Equal(t, oldImage, updated.ImageFilename, "no new image keeps the old one")

	edit.Image = &Upload{Filename: "new.png", Content: bytes.NewReader(pngBytes(t))}
	updated, err = svc.Update(ctx, item.ID, alice, edit)
	require.NoError(t, err)
	assert.NotEqual(t, oldImage, updated.ImageFilename)
	assert.FileExists(t, images.Path(updated.ImageFilename))
	assert.NoFileExists(t, images.Path(oldImage), "old image removed")

	edit.Status = "stolen"
	_, err = svc.Update(ctx, item.ID, alice, edit)
	assert.True(t, apperror.IsValidation(err))
}

func TestDeleteKeepsSameSecondUpload(t *testing.T) {
	svc, images := newService(t)
	svc.Now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	ctx := context.Background()
	alice := newUser(t, svc, "alice")

	var items []*model.Item
	for i := 0; i < 2; i++ {
		in := backpack()
		in.Image = &Upload{Filename: "photo.png", Content: bytes.NewReader(pngBytes(t))}
		item, err := svc.Create(ctx, alice, in)
		require.NoError(t, err)
		items = append(items, item)
	}
	a, b := items[0], items[1]
	require.NotEqual(t, a.ImageFilename, b.ImageFilename)

	require.NoError(t, svc.Delete(ctx, b.ID, alice))
	assert.FileExists(t, images.Path(a.ImageFilename))
	assert.NoFileExists(t, images.Path(b.ImageFilename))
}

func TestDeleteRemovesImageAndMessages(t *testing.T) {
	svc, images := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")
	bob := newUser(t, svc, "bob")

	in := backpack()
	in.Image = &Upload{Filename: "bag.png", Content: bytes.NewReader(pngBytes(t))}
	item, err := svc.Create(ctx, alice, in)
	require.NoError(t, err)

	msgID, err := store.InsertMessage(ctx, svc.DB, &model.Message{
		Subject: "Found it?", Body: "b", SenderID: bob.ID, ReceiverID: alice.ID, ItemID: &item.ID, CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, item.ID, alice))

	_, err = svc.Get(ctx, item.ID)
	assert.True(t, apperror.IsNotFound(err))
	assert.NoFileExists(t, images.Path(item.ImageFilename))
	assert.NoFileExists(t, images.ThumbPath(item.ImageFilename))

	m, err := store.GetMessage(ctx, svc.DB, msgID)
	require.NoError(t, err)
	assert.Nil(t, m)
}

func TestDashboardAndRecent(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	alice := newUser(t, svc, "alice")
	bob := newUser(t, svc, "bob")

	lostIn := backpack()
	foundIn := backpack()
	foundIn.Status = "found"
	foundIn.Title = "Umbrella"

	_, err := svc.Create(ctx, alice, lostIn)
	require.NoError(t, err)
	_, err = svc.Create(ctx, alice, foundIn)
	require.NoError(t, err)
	_, err = svc.Create(ctx, bob, foundIn)
	require.NoError(t, err)

	lost, found, err := svc.Dashboard(ctx, alice)
	require.NoError(t, err)
	assert.Len(t, lost, 1)
	assert.Len(t, found, 1)

	recent, err := svc.Recent(ctx, model.StatusFound, RecentLimit)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "bob", recent[0].OwnerUsername, "newest first")
}
