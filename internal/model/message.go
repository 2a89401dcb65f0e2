package model

import "time"

// Message is a directed note from one user to another, optionally about an item.
type Message struct {
	ID         int64     `json:"id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	IsRead     bool      `json:"is_read"`
	CreatedAt  time.Time `json:"created_at"`
	SenderID   int64     `json:"sender_id"`
	ReceiverID int64     `json:"receiver_id"`
	ItemID     *int64    `json:"item_id,omitempty"`

	// Joined fields (not always populated).
	SenderUsername   string `json:"sender_username,omitempty"`
	ReceiverUsername string `json:"receiver_username,omitempty"`
	ItemTitle        string `json:"item_title,omitempty"`
}

// ReplySubjectPrefix is prepended to the subject of a reply.
const ReplySubjectPrefix = "Re: "
