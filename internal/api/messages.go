package api

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/model"
)

// MessagesHandler exposes the caller's mailbox.
type MessagesHandler struct {
	Messages *messaging.Service
}

// Inbox handles GET /api/messages/inbox. Listing does not mark messages read.
func (h *MessagesHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	msgs, unread, err := h.Messages.Inbox(r.Context(), GetUser(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	if msgs == nil {
		msgs = []model.Message{}
	}
	jsonResponse(w, http.StatusOK, map[string]any{
		"messages": msgs,
		"unread":   unread,
	})
}

// Unread handles GET /api/messages/unread.
func (h *MessagesHandler) Unread(w http.ResponseWriter, r *http.Request) {
	n, err := h.Messages.UnreadCount(r.Context(), GetUser(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]int{"unread": n})
}
