// Package messaging implements private messages between users: composing,
// replying, inbox and sent views, and read state.
package messaging

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/metrics"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/validation"
)

// Service implements message operations.
type Service struct {
	DB  *sql.DB
	Now func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

// ComposeInput is the new message form.
type ComposeInput struct {
	To      string `validate:"required" label:"Recipient"`
	Subject string `validate:"required,max=200" label:"Subject"`
	Body    string `validate:"required,max=5000" label:"Message"`
	ItemID  *int64 `validate:"-"`
}

// IsParticipant reports whether actor sent or received m.
func IsParticipant(m *model.Message, actor *model.User) bool {
	return actor != nil && (m.SenderID == actor.ID || m.ReceiverID == actor.ID)
}

// CanReply reports whether actor may reply to m. Only the receiver may.
func CanReply(m *model.Message, actor *model.User) bool {
	return actor != nil && m.ReceiverID == actor.ID
}

func (s *Service) get(ctx context.Context, id int64) (*model.Message, error) {
	m, err := store.GetMessage(ctx, s.DB, id)
	if err != nil {
		return nil, apperror.NewInternal("loading message", err)
	}
	if m == nil {
		return nil, apperror.NewNotFound("Message not found.")
	}
	return m, nil
}

func (s *Service) send(ctx context.Context, m *model.Message, kind string) (*model.Message, error) {
	m.CreatedAt = s.now()
	id, err := store.InsertMessage(ctx, s.DB, m)
	if err != nil {
		return nil, apperror.NewInternal("sending message", err)
	}
	m.ID = id

	slog.Info("message sent", "user", m.SenderUsername, "to", m.ReceiverUsername, "message", id, "kind", kind)
	metrics.MessagesSent.WithLabelValues(kind).Inc()
	return m, nil
}

// Compose sends a new message from sender to the user named in.To,
// optionally about an item.
func (s *Service) Compose(ctx context.Context, sender *model.User, in ComposeInput) (*model.Message, error) {
	in.To = strings.TrimSpace(in.To)
	in.Subject = strings.TrimSpace(in.Subject)
	if strings.TrimSpace(in.Body) == "" {
		in.Body = ""
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	receiver, err := store.GetUserByUsername(ctx, s.DB, in.To)
	if err != nil {
		return nil, apperror.NewInternal("loading receiver", err)
	}
	if receiver == nil {
		return nil, apperror.NewNotFound("User not found.")
	}
	if receiver.ID == sender.ID {
		return nil, apperror.NewValidation("You cannot send a message to yourself.")
	}

	m := &model.Message{
		Subject:          in.Subject,
		Body:             in.Body,
		SenderID:         sender.ID,
		ReceiverID:       receiver.ID,
		SenderUsername:   sender.Username,
		ReceiverUsername: receiver.Username,
	}

	if in.ItemID != nil {
		item, err := store.GetItem(ctx, s.DB, *in.ItemID)
		if err != nil {
			return nil, apperror.NewInternal("loading item", err)
		}
		if item == nil {
			return nil, apperror.NewNotFound("Item not found.")
		}
		m.ItemID = &item.ID
		m.ItemTitle = item.Title
	}

	return s.send(ctx, m, "message")
}

// Original returns the message with id for the reply form, if actor may
// reply to it.
func (s *Service) Original(ctx context.Context, id int64, actor *model.User) (*model.Message, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanReply(m, actor) {
		return nil, apperror.NewAuthorization("You can only reply to messages you received.")
	}
	return m, nil
}

// Reply answers the message with id. The reply goes back to the original
// sender, keeps the item link and prefixes the subject.
func (s *Service) Reply(ctx context.Context, id int64, actor *model.User, body string) (*model.Message, error) {
	original, err := s.Original(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, apperror.NewValidation("Message body cannot be empty.")
	}

	return s.send(ctx, &model.Message{
		Subject:          model.ReplySubjectPrefix + original.Subject,
		Body:             body,
		SenderID:         actor.ID,
		ReceiverID:       original.SenderID,
		ItemID:           original.ItemID,
		SenderUsername:   actor.Username,
		ReceiverUsername: original.SenderUsername,
		ItemTitle:        original.ItemTitle,
	}, "reply")
}

// View returns the message with id to one of its participants. The first
// view by the receiver marks it read.
func (s *Service) View(ctx context.Context, id int64, actor *model.User) (*model.Message, error) {
	m, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsParticipant(m, actor) {
		return nil, apperror.NewAuthorization("You do not have permission to view this message.")
	}

	if m.ReceiverID == actor.ID && !m.IsRead {
		changed, err := store.MarkMessageRead(ctx, s.DB, m.ID, actor.ID)
		if err != nil {
			return nil, apperror.NewInternal("marking message read", err)
		}
		if changed {
			slog.Info("message read", "user", actor.Username, "message", m.ID)
		}
		m.IsRead = true
	}
	return m, nil
}

// Inbox returns the messages actor received, newest first, and how many of
// them are unread.
func (s *Service) Inbox(ctx context.Context, actor *model.User) ([]model.Message, int, error) {
	msgs, err := store.ListInbox(ctx, s.DB, actor.ID)
	if err != nil {
		return nil, 0, apperror.NewInternal("listing inbox", err)
	}
	unread := 0
	for _, m := range msgs {
		if !m.IsRead {
			unread++
		}
	}
	return msgs, unread, nil
}

// Sent returns the messages actor sent, newest first.
func (s *Service) Sent(ctx context.Context, actor *model.User) ([]model.Message, error) {
	msgs, err := store.ListSent(ctx, s.DB, actor.ID)
	if err != nil {
		return nil, apperror.NewInternal("listing sent messages", err)
	}
	return msgs, nil
}

// UnreadCount returns how many received messages actor has not read.
func (s *Service) UnreadCount(ctx context.Context, actor *model.User) (int, error) {
	n, err := store.CountUnread(ctx, s.DB, actor.ID)
	if err != nil {
		return 0, apperror.NewInternal("counting unread messages", err)
	}
	return n, nil
}

// Delete removes a message for both participants. Either may delete it.
func (s *Service) Delete(ctx context.Context, id int64, actor *model.User) error {
	m, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !IsParticipant(m, actor) {
		return apperror.NewAuthorization("You do not have permission to delete this message.")
	}

	if err := store.DeleteMessage(ctx, s.DB, id); err != nil {
		return apperror.NewInternal("deleting message", err)
	}
	slog.Info("message deleted", "user", actor.Username, "message", id)
	return nil
}
