package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/lostfound/internal/model"
)

const messageColumns = `m.id, m.subject, m.body, m.is_read, m.created_at, m.sender_id, m.receiver_id,
	m.item_id, s.username, r.username, COALESCE(i.title, '')`

const messageFrom = ` FROM messages m
	JOIN users s ON s.id = m.sender_id
	JOIN users r ON r.id = m.receiver_id
	LEFT JOIN items i ON i.id = m.item_id`

// InsertMessage stores a new unread message and returns its id.
func InsertMessage(ctx context.Context, db Querier, m *model.Message) (int64, error) {
	var itemID sql.NullInt64
	if m.ItemID != nil {
		itemID = sql.NullInt64{Int64: *m.ItemID, Valid: true}
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO messages (subject, body, is_read, created_at, sender_id, receiver_id, item_id)
		 VALUES (?, ?, 0, ?, ?, ?, ?)`,
		m.Subject, m.Body, m.CreatedAt, m.SenderID, m.ReceiverID, itemID,
	)
	if err != nil {
		return 0, fmt.Errorf("creating message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting message id: %w", err)
	}
	return id, nil
}

func scanMessage(row scanner) (*model.Message, error) {
	m := &model.Message{}
	var itemID sql.NullInt64
	err := row.Scan(&m.ID, &m.Subject, &m.Body, &m.IsRead, &m.CreatedAt, &m.SenderID, &m.ReceiverID,
		&itemID, &m.SenderUsername, &m.ReceiverUsername, &m.ItemTitle)
	if err != nil {
		return nil, err
	}
	if itemID.Valid {
		m.ItemID = &itemID.Int64
	}
	return m, nil
}

// GetMessage returns a message by ID.
func GetMessage(ctx context.Context, db Querier, id int64) (*model.Message, error) {
	m, err := scanMessage(db.QueryRowContext(ctx,
		`SELECT `+messageColumns+messageFrom+` WHERE m.id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting message: %w", err)
	}
	return m, nil
}

func listMessages(ctx context.Context, db Querier, column string, userID int64) ([]model.Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+messageColumns+messageFrom+` WHERE m.`+column+` = ?
		 ORDER BY m.created_at DESC, m.id DESC`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	var msgs []model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// ListInbox returns messages received by a user, newest first.
func ListInbox(ctx context.Context, db Querier, userID int64) ([]model.Message, error) {
	return listMessages(ctx, db, "receiver_id", userID)
}

// ListSent returns messages sent by a user, newest first.
func ListSent(ctx context.Context, db Querier, userID int64) ([]model.Message, error) {
	return listMessages(ctx, db, "sender_id", userID)
}

// CountUnread returns the number of unread messages received by a user.
func CountUnread(ctx context.Context, db Querier, userID int64) (int, error) {
	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE receiver_id = ? AND is_read = 0`, userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting unread messages: %w", err)
	}
	return n, nil
}

// MarkMessageRead flips an unread message addressed to receiverID to read.
// It reports whether the row changed.
func MarkMessageRead(ctx context.Context, db Querier, id, receiverID int64) (bool, error) {
	result, err := db.ExecContext(ctx,
		`UPDATE messages SET is_read = 1 WHERE id = ? AND receiver_id = ? AND is_read = 0`,
		id, receiverID,
	)
	if err != nil {
		return false, fmt.Errorf("marking message read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking marked message: %w", err)
	}
	return n == 1, nil
}

// DeleteMessage removes a message.
func DeleteMessage(ctx context.Context, db Querier, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting message: %w", err)
	}
	return nil
}
