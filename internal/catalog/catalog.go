// Package catalog implements lost and found item postings: creating,
// editing and resolving them, and the paginated board.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/uploads"
	"github.com/erazemk/lostfound/internal/validation"
)

// PageSize is the number of items on one board page.
const PageSize = 12

// RecentLimit is the number of items per status on the homepage.
const RecentLimit = 6

// ErrNotOwner is returned when the actor does not own the item.
var ErrNotOwner = apperror.NewAuthorization("You can only modify your own items.")

// ImageStore persists item photos.
type ImageStore interface {
	Save(ownerID int64, original string, r io.Reader, now time.Time) (string, error)
	Remove(name string) error
}

// Upload is an image attached to an item form.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ItemInput is the item form used for posting and editing.
type ItemInput struct {
	Title         string  `validate:"required,max=200" label:"Title"`
	Description   string  `validate:"required,max=5000" label:"Description"`
	Category      string  `validate:"required,item_category" label:"Category"`
	Status        string  `validate:"required,item_status" label:"Status"`
	Location      string  `validate:"max=200" label:"Location"`
	DateLostFound string  `validate:"required,datetime=2006-01-02" label:"Date"`
	Image         *Upload `validate:"-"`
}

func (in *ItemInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	in.Status = strings.TrimSpace(in.Status)
	in.Location = strings.TrimSpace(in.Location)
	in.DateLostFound = strings.TrimSpace(in.DateLostFound)
}

func (in *ItemInput) apply(item *model.Item) {
	item.Title = in.Title
	item.Description = in.Description
	item.Category = model.Category(in.Category)
	item.Status = model.Status(in.Status)
	item.Location = in.Location
	item.DateLostFound = in.DateLostFound
}

// Service implements item operations.
type Service struct {
	DB     *sql.DB
	Images ImageStore
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// CanModify returns ErrNotOwner unless actor owns item.
func CanModify(item *model.Item, actor *model.User) error {
	if actor == nil || item.UserID != actor.ID {
		return ErrNotOwner
	}
	return nil
}

// saveImage stores the upload, if any. An upload that is not an accepted
// image is skipped and returns "".
func (s *Service) saveImage(owner *model.User, up *Upload, now time.Time) (string, error) {
	if up == nil || up.Filename == "" || up.Content == nil {
		return "", nil
	}
	name, err := s.Images.Save(owner.ID, up.Filename, up.Content, now)
	if errors.Is(err, uploads.ErrNotAllowed) {
		slog.Warn("skipping image upload", "user", owner.Username, "file", up.Filename, "error", err)
		metrics.UploadsRejected.Inc()
		return "", nil
	}
	if err != nil {
		return "", apperror.NewInternal("saving image", err)
	}
	return name, nil
}

// removeImage deletes a stored image, logging failures.
func (s *Service) removeImage(name string) {
	if name == "" {
		return
	}
	if err := s.Images.Remove(name); err != nil {
		slog.Warn("failed to remove image", "file", name, "error", err)
	}
}

// Create posts a new item for owner. The record and its image are written
// together: a failed image write rolls back the insert, and a failed commit
// removes the written image.
func (s *Service) Create(ctx context.Context, owner *model.User, in ItemInput) (*model.Item, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	item := &model.Item{UserID: owner.ID, CreatedAt: now, UpdatedAt: now, OwnerUsername: owner.Username}
	in.apply(item)

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.NewInternal("starting transaction", err)
	}
	defer tx.Rollback()

	item.ID, err = store.InsertItem(ctx, tx, item)
	if err != nil {
		return nil, apperror.NewInternal("creating item", err)
	}

	item.ImageFilename, err = s.saveImage(owner, in.Image, now)
	if err != nil {
		return nil, err
	}
	if item.ImageFilename != "" {
		if err := store.UpdateItem(ctx, tx, item); err != nil {
			s.removeImage(item.ImageFilename)
			return nil, apperror.NewInternal("attaching image", err)
		}
	}

	if err := tx.Commit(); err != nil {
		s.removeImage(item.ImageFilename)
		return nil, apperror.NewInternal("committing item", err)
	}

	slog.Info("item posted", "user", owner.Username, "item", item.ID, "status", item.Status, "image", item.ImageFilename != "")
	metrics.ItemsPosted.WithLabelValues(string(item.Status)).Inc()
	return item, nil
}

// Get returns the item with id, including resolved ones.
func (s *Service) Get(ctx context.Context, id int64) (*model.Item, error) {
	item, err := store.GetItem(ctx, s.DB, id)
	if err != nil {
		return nil, apperror.NewInternal("loading item", err)
	}
	if item == nil {
		return nil, apperror.NewNotFound("Item not found.")
	}
	return item, nil
}

// getOwned loads an item and checks that actor owns it.
func (s *Service) getOwned(ctx context.Context, id int64, actor *model.User) (*model.Item, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := CanModify(item, actor); err != nil {
		return nil, err
	}
	return item, nil
}

// Update edits an item owned by actor. An empty date keeps the stored one. A
// newly accepted image replaces the old one, which is removed after commit.
func (s *Service) Update(ctx context.Context, id int64, actor *model.User, in ItemInput) (*model.Item, error) {
	item, err := s.getOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	in.normalize()
	if in.DateLostFound == "" {
		in.DateLostFound = item.DateLostFound
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.now()
	in.apply(item)
	item.UpdatedAt = now

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperror.NewInternal("starting transaction", err)
	}
	defer tx.Rollback()

	oldImage := item.ImageFilename
	newImage, err := s.saveImage(actor, in.Image, now)
	if err != nil {
		return nil, err
	}
	if newImage != "" {
		item.ImageFilename = newImage
	}

	if err := store.UpdateItem(ctx, tx, item); err != nil {
		s.removeImage(newImage)
		return nil, apperror.NewInternal("updating item", err)
	}
	if err := tx.Commit(); err != nil {
		s.removeImage(newImage)
		return nil, apperror.NewInternal("committing item", err)
	}

	if newImage != "" && oldImage != newImage {
		s.removeImage(oldImage)
	}

	slog.Info("item updated", "user", actor.Username, "item", item.ID)
	return item, nil
}

// Resolve marks an item owned by actor as claimed or returned. Resolving an
// already resolved item succeeds.
func (s *Service) Resolve(ctx context.Context, id int64, actor *model.User) (*model.Item, error) {
	item, err := s.getOwned(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if item.IsResolved {
		return item, nil
	}

	if err := store.ResolveItem(ctx, s.DB, id, s.now()); err != nil {
		return nil, apperror.NewInternal("resolving item", err)
	}
	item.IsResolved = true

	slog.Info("item resolved", "user", actor.Username, "item", id)
	metrics.ItemsResolved.Inc()
	return item, nil
}

// Delete removes an item owned by actor, its messages and its image.
func (s *Service) Delete(ctx context.Context, id int64, actor *model.User) error {
	item, err := s.getOwned(ctx, id, actor)
	if err != nil {
		return err
	}

	if err := store.DeleteItem(ctx, s.DB, id); err != nil {
		return apperror.NewInternal("deleting item", err)
	}
	s.removeImage(item.ImageFilename)

	slog.Info("item deleted", "user", actor.Username, "item", id)
	return nil
}

// Dashboard returns the owner's items split by status, newest first,
// resolved ones included.
func (s *Service) Dashboard(ctx context.Context, owner *model.User) (lost, found []model.Item, err error) {
	f := store.ItemFilter{UserID: owner.ID, IncludeResolved: true, Status: model.StatusLost}
	lost, err = store.ListItems(ctx, s.DB, f)
	if err != nil {
		return nil, nil, apperror.NewInternal("listing lost items", err)
	}

	f.Status = model.StatusFound
	found, err = store.ListItems(ctx, s.DB, f)
	if err != nil {
		return nil, nil, apperror.NewInternal("listing found items", err)
	}
	return lost, found, nil
}

// Recent returns up to limit unresolved items of status, newest first.
func (s *Service) Recent(ctx context.Context, status model.Status, limit int) ([]model.Item, error) {
	items, err := store.ListItems(ctx, s.DB, store.ItemFilter{Status: status, Limit: limit})
	if err != nil {
		return nil, apperror.NewInternal("listing recent items", err)
	}
	return items, nil
}
