// Package apperror defines the error kinds the services return, so request
// handlers can choose a response without inspecting messages.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind categorizes an application error.
type Kind int

const (
	// Internal is an unexpected infrastructure failure.
	Internal Kind = iota
	// Validation means input was missing or malformed.
	Validation
	// Authentication means credentials or the session were rejected.
	Authentication
	// Authorization means the actor may not act on the entity.
	Authorization
	// NotFound means a referenced user, item or message does not exist.
	NotFound
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "validation"
	case Authentication:
		return "authentication"
	case Authorization:
		return "authorization"
	case NotFound:
		return "not_found"
	default:
		return "internal"
	}
}

// Error is an error with a kind and a message safe to show to users.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// StatusCode maps the kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case Validation:
		return http.StatusBadRequest
	case Authentication:
		return http.StatusUnauthorized
	case Authorization:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// NewValidation returns a Validation error.
func NewValidation(message string) *Error {
	return &Error{Kind: Validation, Message: message}
}

// NewAuthentication returns an Authentication error.
func NewAuthentication(message string) *Error {
	return &Error{Kind: Authentication, Message: message}
}

// NewAuthorization returns an Authorization error.
func NewAuthorization(message string) *Error {
	return &Error{Kind: Authorization, Message: message}
}

// NewNotFound returns a NotFound error.
func NewNotFound(message string) *Error {
	return &Error{Kind: NotFound, Message: message}
}

// NewInternal wraps an infrastructure error.
func NewInternal(message string, err error) *Error {
	return &Error{Kind: Internal, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or Internal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Message returns the user-facing message of err, or a generic one for
// errors that are not *Error or are Internal.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != Internal {
		return e.Message
	}
	return "Something went wrong. Please try again."
}

// StatusCode returns the HTTP status for err.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode()
	}
	return http.StatusInternalServerError
}

// IsValidation reports whether err is a Validation error.
func IsValidation(err error) bool { return err != nil && KindOf(err) == Validation }

// IsAuthentication reports whether err is an Authentication error.
func IsAuthentication(err error) bool { return err != nil && KindOf(err) == Authentication }

// IsAuthorization reports whether err is an Authorization error.
func IsAuthorization(err error) bool { return err != nil && KindOf(err) == Authorization }

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool { return err != nil && KindOf(err) == NotFound }
