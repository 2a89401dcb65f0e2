package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
)

// UserLoader loads the user a session belongs to. A nil user means the
// account no longer exists.
type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// RevocationList records logged-out session tokens.
type RevocationList interface {
	IsTokenRevoked(ctx context.Context, jti string) (bool, error)
	RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error
}

// TokenExpiry is the session lifetime.
const TokenExpiry = 7 * 24 * time.Hour

// sessionClaims is the payload of a session token. The JTI keys revocation.
type sessionClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// ErrInvalidSession is returned by Verify for any rejected token.
var ErrInvalidSession = apperror.NewAuthentication("please log in to access this page")

// Sessions issues and verifies session tokens.
type Sessions struct {
	Secret  string
	Users   UserLoader
	Revoked RevocationList
	Now     func() time.Time
}

// NewSessions returns Sessions backed by the database.
func NewSessions(secret string, db *sql.DB) *Sessions {
	s := DBStore{DB: db}
	return &Sessions{Secret: secret, Users: s, Revoked: s, Now: time.Now}
}

func (s *Sessions) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// Issue returns a signed token for user and its expiry.
func (s *Sessions) Issue(user *model.User) (string, time.Time, error) {
	jti, err := newSessionID()
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generating session id: %w", err)
	}

	now := s.now()
	expires := now.Add(TokenExpiry)
	claims := sessionClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.Secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing session: %w", err)
	}
	return signed, expires, nil
}

// parse checks the signature and expiry of token against the session clock.
func (s *Sessions) parse(token string) (*sessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.Secret), nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, errors.New("invalid session token")
	}
	return claims, nil
}

func newSessionID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// Verify checks the token signature, expiry and revocation, then loads the
// user. Rejected tokens return ErrInvalidSession.
func (s *Sessions) Verify(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, ErrInvalidSession
	}

	if claims.ID != "" {
		revoked, err := s.Revoked.IsTokenRevoked(ctx, claims.ID)
		if err != nil {
			return nil, apperror.NewInternal("checking session", err)
		}
		if revoked {
			return nil, ErrInvalidSession
		}
	}

	user, err := s.Users.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, apperror.NewInternal("loading session user", err)
	}
	if user == nil {
		return nil, ErrInvalidSession
	}
	return user, nil
}

// Revoke invalidates token until its natural expiry. Tokens that no longer
// validate are ignored.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	claims, err := s.parse(token)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil
	}
	if err := s.Revoked.RevokeToken(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// DBStore implements UserLoader and RevocationList on the store package.
type DBStore struct {
	DB store.Querier
}

func (d DBStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return store.GetUser(ctx, d.DB, id)
}

func (d DBStore) IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	return store.IsTokenRevoked(ctx, d.DB, jti)
}

func (d DBStore) RevokeToken(ctx context.Context, jti string, expiresAt time.Time) error {
	return store.RevokeToken(ctx, d.DB, jti, expiresAt)
}
