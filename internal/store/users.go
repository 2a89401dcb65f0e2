package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/lostfound/internal/model"
)

const userColumns = `id, username, email, password_hash, full_name, phone, created_at`

// CreateUser creates a new user.
func CreateUser(ctx context.Context, db Querier, username, email, passwordHash, fullName, phone string) (*model.User, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, full_name, phone) VALUES (?, ?, ?, ?, ?)`,
		username, email, passwordHash, nullString(fullName), nullString(phone),
	)
	if err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting user id: %w", err)
	}

	return GetUser(ctx, db, id)
}

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	var fullName, phone sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &fullName, &phone, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.FullName = fullName.String
	u.Phone = phone.String
	return u, nil
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db Querier, id int64) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByUsername returns a user by username, compared case-insensitively.
func GetUserByUsername(ctx context.Context, db Querier, username string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by username: %w", err)
	}
	return u, nil
}

// GetUserByLogin returns the user whose username or email equals identifier.
func GetUserByLogin(ctx context.Context, db Querier, identifier string) (*model.User, error) {
	u, err := scanUser(db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ? OR email = ?
		 ORDER BY username = ? DESC LIMIT 1`, identifier, identifier, identifier,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by login: %w", err)
	}
	return u, nil
}

// UserTaken reports whether the username or the email is already registered.
func UserTaken(ctx context.Context, db Querier, username, email string) (usernameTaken, emailTaken bool, err error) {
	err = db.QueryRowContext(ctx,
		`SELECT
		     EXISTS (SELECT 1 FROM users WHERE username = ?),
		     EXISTS (SELECT 1 FROM users WHERE email = ?)`,
		username, email,
	).Scan(&usernameTaken, &emailTaken)
	if err != nil {
		return false, false, fmt.Errorf("checking existing users: %w", err)
	}
	return usernameTaken, emailTaken, nil
}

// ListUsers returns all users ordered by id.
func ListUsers(ctx context.Context, db Querier) ([]model.User, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// DeleteUser removes a user. Their items and messages go with them.
func DeleteUser(ctx context.Context, db Querier, id int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting user: %w", err)
	}
	return nil
}
