package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
)

// SessionSecretKey is the settings key of the generated session secret.
const SessionSecretKey = "session_secret"

// GetSetting returns the value stored under key. ok is false when the key is
// not set.
func GetSetting(ctx context.Context, db Querier, key string) (value string, ok bool, err error) {
	err = db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("querying setting %s: %w", key, err)
	}
	return value, true, nil
}

// InitSetting stores value under key unless the key is already set, and
// returns whichever value ends up stored. Concurrent callers all see the
// first value written.
func InitSetting(ctx context.Context, db Querier, key, value string) (string, error) {
	_, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO settings (key, value) VALUES (?, ?)`, key, value)
	if err != nil {
		return "", fmt.Errorf("storing setting %s: %w", key, err)
	}

	stored, ok, err := GetSetting(ctx, db, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("setting %s missing after insert", key)
	}
	return stored, nil
}

// GetSessionSecret returns the session signing secret, generating and storing
// a random one on first use.
func GetSessionSecret(ctx context.Context, db Querier) (string, error) {
	if secret, ok, err := GetSetting(ctx, db, SessionSecretKey); err != nil || ok {
		return secret, err
	}

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating session secret: %w", err)
	}
	return InitSetting(ctx, db, SessionSecretKey, hex.EncodeToString(buf))
}
