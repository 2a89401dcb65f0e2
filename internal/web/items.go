package web

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/model"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

type itemFormPage struct {
	PageData
	Item *model.Item
	Form catalog.ItemInput
}

// Browse handles GET /items/browse.
func (s *Server) Browse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := s.Catalog.Browse(r.Context(), catalog.BrowseFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     page,
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "browse.html", &struct {
		PageData
		Result *catalog.Page
	}{
		PageData: s.page(w, r, "Browse Items"),
		Result:   result,
	})
}

// ItemDetail handles GET /items/{id}.
func (s *Server) ItemDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	pd := s.page(w, r, item.Title)
	s.Templates.Render(w, "item_detail.html", &struct {
		PageData
		Item    *model.Item
		IsOwner bool
	}{
		PageData: pd,
		Item:     item,
		IsOwner:  catalog.CanModify(item, pd.User) == nil,
	})
}

// readItemForm parses the item form. The returned cleanup closes the
// uploaded file.
func (s *Server) readItemForm(w http.ResponseWriter, r *http.Request) (catalog.ItemInput, func(), error) {
	noop := func() {}
	if s.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadSize)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return catalog.ItemInput{}, noop, errTooLarge
		}
		return catalog.ItemInput{}, noop, apperror.NewValidation("Could not read the submitted form.")
	}

	in := catalog.ItemInput{
		Title:         r.FormValue("title"),
		Description:   r.FormValue("description"),
		Category:      r.FormValue("category"),
		Status:        r.FormValue("status"),
		Location:      r.FormValue("location"),
		DateLostFound: r.FormValue("date_lost_found"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		// No file attached.
		return in, noop, nil
	}
	in.Image = &catalog.Upload{Filename: header.Filename, Content: file}
	return in, func() { closeFile(file) }, nil
}

var errTooLarge = &apperror.Error{Kind: apperror.Validation, Message: "The uploaded file is too large."}

func closeFile(f multipart.File) {
	if err := f.Close(); err != nil {
		slog.Warn("failed to close upload", "error", err)
	}
}

// renderItemForm re-renders the post or edit form with an error notice.
func (s *Server) renderItemForm(w http.ResponseWriter, r *http.Request, title string, item *model.Item, in catalog.ItemInput, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, errTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	pd := s.page(w, r, title)
	pd.Flash = &Flash{Category: FlashError, Message: apperror.Message(err)}
	in.Image = nil
	s.Templates.RenderStatus(w, status, "item_form.html", &itemFormPage{PageData: pd, Item: item, Form: in})
}

// ItemPostPage handles GET /items/post.
func (s *Server) ItemPostPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "item_form.html", &itemFormPage{
		PageData: s.page(w, r, "Post an Item"),
		Form:     catalog.ItemInput{Status: r.URL.Query().Get("status")},
	})
}

// ItemPostSubmit handles POST /items/post.
func (s *Server) ItemPostSubmit(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())

	in, cleanup, err := s.readItemForm(w, r)
	defer cleanup()
	if err != nil {
		s.renderItemForm(w, r, "Post an Item", nil, in, err)
		return
	}

	item, err := s.Catalog.Create(r.Context(), user, in)
	if err != nil {
		if apperror.IsValidation(err) {
			s.renderItemForm(w, r, "Post an Item", nil, in, err)
			return
		}
		s.fail(w, r, err)
		return
	}

	redirect(w, r, fmt.Sprintf("/items/%d", item.ID), FlashSuccess,
		fmt.Sprintf("Your %s item has been posted successfully!", item.Status))
}

// ItemEditPage handles GET /items/{id}/edit.
func (s *Server) ItemEditPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	item, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := catalog.CanModify(item, CurrentUser(r.Context())); err != nil {
		redirect(w, r, fmt.Sprintf("/items/%d", id), FlashError, "You can only edit your own items.")
		return
	}

	s.Templates.Render(w, "item_form.html", &itemFormPage{
		PageData: s.page(w, r, "Edit Item"),
		Item:     item,
		Form: catalog.ItemInput{
			Title:         item.Title,
			Description:   item.Description,
			Category:      string(item.Category),
			Status:        string(item.Status),
			Location:      item.Location,
			DateLostFound: item.DateLostFound,
		},
	})
}

// ItemEditSubmit handles POST /items/{id}/edit.
func (s *Server) ItemEditSubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail := fmt.Sprintf("/items/%d", id)
	user := CurrentUser(r.Context())

	// Ownership is settled before the body is read.
	item, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := catalog.CanModify(item, user); err != nil {
		redirect(w, r, detail, FlashError, "You can only edit your own items.")
		return
	}

	in, cleanup, err := s.readItemForm(w, r)
	defer cleanup()
	if err != nil {
		s.renderItemForm(w, r, "Edit Item", item, in, err)
		return
	}

	_, err = s.Catalog.Update(r.Context(), id, user, in)
	switch {
	case err == nil:
		redirect(w, r, detail, FlashSuccess, "Item updated successfully!")
	case apperror.IsAuthorization(err):
		redirect(w, r, detail, FlashError, "You can only edit your own items.")
	case apperror.IsValidation(err):
		s.renderItemForm(w, r, "Edit Item", item, in, err)
	default:
		s.fail(w, r, err)
	}
}

// ItemResolve handles POST /items/{id}/resolve.
func (s *Server) ItemResolve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	detail := fmt.Sprintf("/items/%d", id)

	_, err = s.Catalog.Resolve(r.Context(), id, CurrentUser(r.Context()))
	switch {
	case err == nil:
		redirect(w, r, detail, FlashSuccess, "Item marked as resolved!")
	case apperror.IsAuthorization(err):
		redirect(w, r, detail, FlashError, "You can only resolve your own items.")
	default:
		s.fail(w, r, err)
	}
}

// ItemDelete handles POST /items/{id}/delete.
func (s *Server) ItemDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	err = s.Catalog.Delete(r.Context(), id, CurrentUser(r.Context()))
	switch {
	case err == nil:
		redirect(w, r, "/items/browse", FlashInfo, "Item deleted successfully.")
	case apperror.IsAuthorization(err):
		redirect(w, r, fmt.Sprintf("/items/%d", id), FlashError, "You can only delete your own items.")
	default:
		s.fail(w, r, err)
	}
}
