// Package accounts registers users, checks their credentials and deletes
// their accounts.
package accounts

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/store"
	"github.com/erazemk/lostfound/internal/validation"
)

// ErrInvalidCredentials is returned for both unknown users and wrong passwords.
var ErrInvalidCredentials = apperror.NewAuthentication("Invalid username or password.")

// ImageRemover deletes stored item images.
type ImageRemover interface {
	Remove(name string) error
}

// Service implements account operations.
type Service struct {
	DB     *sql.DB
	Hasher auth.PasswordHasher
	Images ImageRemover
}

// RegisterInput is the registration form.
type RegisterInput struct {
	Username        string `validate:"required,min=3,max=80,username" label:"Username"`
	Email           string `validate:"required,max=120,email" label:"Email"`
	Password        string `validate:"required,min=8" label:"Password"`
	ConfirmPassword string `validate:"eqfield=Password" label:"Password confirmation"`
	FullName        string `validate:"max=100" label:"Full name"`
	Phone           string `validate:"max=20" label:"Phone"`
}

func (in *RegisterInput) normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.FullName = strings.TrimSpace(in.FullName)
	in.Phone = strings.TrimSpace(in.Phone)
}

// Register creates a user. Usernames and emails are unique regardless of case.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	in.normalize()
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	if err := model.ValidatePassword(in.Password); err != nil {
		return nil, apperror.NewValidation("Password must be at least 8 characters.")
	}

	usernameTaken, emailTaken, err := store.UserTaken(ctx, s.DB, in.Username, in.Email)
	if err != nil {
		return nil, apperror.NewInternal("checking user", err)
	}
	if usernameTaken {
		return nil, apperror.NewValidation("Username already taken.")
	}
	if emailTaken {
		return nil, apperror.NewValidation("Email already registered.")
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.NewInternal("hashing password", err)
	}

	user, err := store.CreateUser(ctx, s.DB, in.Username, in.Email, hash, in.FullName, in.Phone)
	if err != nil {
		// Lost a race with a concurrent registration.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, apperror.NewValidation("Username or email already registered.")
		}
		return nil, apperror.NewInternal("creating user", err)
	}

	slog.Info("user registered", "user", user.Username, "id", user.ID)
	return user, nil
}

// Authenticate returns the user identified by username or email if password
// matches.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := store.GetUserByLogin(ctx, s.DB, identifier)
	if err != nil {
		return nil, apperror.NewInternal("loading user", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	if err := s.Hasher.Compare(user.PasswordHash, password); err != nil {
		slog.Warn("login failed", "user", user.Username)
		return nil, ErrInvalidCredentials
	}

	slog.Info("user logged in", "user", user.Username)
	return user, nil
}

// DeleteAccount removes actor together with their items and messages. Image
// files are removed after the records are gone; failures are only logged.
func (s *Service) DeleteAccount(ctx context.Context, actor *model.User) error {
	images, err := store.ListUserImages(ctx, s.DB, actor.ID)
	if err != nil {
		return apperror.NewInternal("listing images", err)
	}

	if err := store.DeleteUser(ctx, s.DB, actor.ID); err != nil {
		return apperror.NewInternal("deleting account", err)
	}

	if s.Images != nil {
		for _, name := range images {
			if err := s.Images.Remove(name); err != nil {
				slog.Warn("failed to remove image", "file", name, "error", err)
			}
		}
	}

	slog.Info("account deleted", "user", actor.Username, "images", len(images))
	return nil
}
