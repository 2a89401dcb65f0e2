package web

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/model"
)

type composePage struct {
	PageData
	Form messaging.ComposeInput
	Item *model.Item
}

type messagePage struct {
	PageData
	Message  *model.Message
	CanReply bool
	Body     string
}

// Inbox handles GET /messages/inbox.
func (s *Server) Inbox(w http.ResponseWriter, r *http.Request) {
	msgs, unread, err := s.Messages.Inbox(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "inbox.html", &struct {
		PageData
		Messages    []model.Message
		UnreadCount int
	}{
		PageData:    s.page(w, r, "Inbox"),
		Messages:    msgs,
		UnreadCount: unread,
	})
}

// Sent handles GET /messages/sent.
func (s *Server) Sent(w http.ResponseWriter, r *http.Request) {
	msgs, err := s.Messages.Sent(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "sent.html", &struct {
		PageData
		Messages []model.Message
	}{
		PageData: s.page(w, r, "Sent Messages"),
		Messages: msgs,
	})
}

// lookupItem resolves an optional item_id form value. Unknown or malformed
// ids yield nil.
func (s *Server) lookupItem(r *http.Request, raw string) *model.Item {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil
	}
	item, err := s.Catalog.Get(r.Context(), id)
	if err != nil {
		return nil
	}
	return item
}

// ComposePage handles GET /messages/compose.
func (s *Server) ComposePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	item := s.lookupItem(r, q.Get("item_id"))

	form := messaging.ComposeInput{To: q.Get("to")}
	if item != nil {
		form.ItemID = &item.ID
		form.Subject = "Re: " + item.Title
		if form.To == "" {
			form.To = item.OwnerUsername
		}
	}

	s.Templates.Render(w, "compose.html", &composePage{
		PageData: s.page(w, r, "Compose Message"),
		Form:     form,
		Item:     item,
	})
}

// ComposeSubmit handles POST /messages/compose.
func (s *Server) ComposeSubmit(w http.ResponseWriter, r *http.Request) {
	in := messaging.ComposeInput{
		To:      r.FormValue("receiver"),
		Subject: r.FormValue("subject"),
		Body:    r.FormValue("body"),
	}

	var item *model.Item
	if raw := strings.TrimSpace(r.FormValue("item_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			id = -1
		}
		in.ItemID = &id
		item = s.lookupItem(r, raw)
	}

	if _, err := s.Messages.Compose(r.Context(), CurrentUser(r.Context()), in); err != nil {
		if !apperror.IsValidation(err) && !apperror.IsNotFound(err) {
			s.fail(w, r, err)
			return
		}
		pd := s.page(w, r, "Compose Message")
		pd.Flash = &Flash{Category: FlashError, Message: apperror.Message(err)}
		s.Templates.RenderStatus(w, apperror.StatusCode(err), "compose.html", &composePage{PageData: pd, Form: in, Item: item})
		return
	}

	redirect(w, r, "/messages/sent", FlashSuccess, "Message sent successfully!")
}

// MessageView handles GET /messages/{id}.
func (s *Server) MessageView(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user := CurrentUser(r.Context())
	m, err := s.Messages.View(r.Context(), id, user)
	if err != nil {
		if apperror.IsAuthorization(err) {
			redirect(w, r, "/messages/inbox", FlashError, apperror.Message(err))
			return
		}
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "message.html", &messagePage{
		PageData: s.page(w, r, m.Subject),
		Message:  m,
		CanReply: messaging.CanReply(m, user),
	})
}

// ReplyPage handles GET /messages/{id}/reply.
func (s *Server) ReplyPage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	m, err := s.Messages.Original(r.Context(), id, CurrentUser(r.Context()))
	if err != nil {
		if apperror.IsAuthorization(err) {
			redirect(w, r, "/messages/inbox", FlashError, apperror.Message(err))
			return
		}
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "reply.html", &messagePage{
		PageData: s.page(w, r, "Reply"),
		Message:  m,
	})
}

// ReplySubmit handles POST /messages/{id}/reply.
func (s *Server) ReplySubmit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	user := CurrentUser(r.Context())
	body := r.FormValue("body")

	_, err = s.Messages.Reply(r.Context(), id, user, body)
	switch {
	case err == nil:
		redirect(w, r, "/messages/sent", FlashSuccess, "Reply sent successfully!")
	case apperror.IsAuthorization(err):
		redirect(w, r, "/messages/inbox", FlashError, apperror.Message(err))
	case apperror.IsValidation(err):
		original, oerr := s.Messages.Original(r.Context(), id, user)
		if oerr != nil {
			s.fail(w, r, oerr)
			return
		}
		pd := s.page(w, r, "Reply")
		pd.Flash = &Flash{Category: FlashError, Message: apperror.Message(err)}
		s.Templates.RenderStatus(w, http.StatusBadRequest, "reply.html", &messagePage{PageData: pd, Message: original, Body: body})
	default:
		s.fail(w, r, err)
	}
}

// MessageDelete handles POST /messages/{id}/delete.
func (s *Server) MessageDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	err = s.Messages.Delete(r.Context(), id, CurrentUser(r.Context()))
	switch {
	case err == nil:
		redirect(w, r, "/messages/inbox", FlashInfo, "Message deleted.")
	case apperror.IsAuthorization(err):
		redirect(w, r, "/messages/inbox", FlashError, apperror.Message(err))
	default:
		s.fail(w, r, err)
	}
}
