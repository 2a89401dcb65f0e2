package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsThroughWrapping(t *testing.T) {
	err := fmt.Errorf("composing: %w", NewNotFound("User not found."))

	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.Equal(t, "User not found.", Message(err))
}

func TestInternalMessageIsGeneric(t *testing.T) {
	err := NewInternal("inserting item", errors.New("disk I/O error"))

	assert.Equal(t, Internal, KindOf(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.NotContains(t, Message(err), "disk")
	assert.Contains(t, err.Error(), "disk I/O error")

	plain := errors.New("boom")
	assert.Equal(t, Internal, KindOf(plain))
	assert.NotContains(t, Message(plain), "boom")
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		err  *Error
		want int
	}{
		{NewValidation("x"), http.StatusBadRequest},
		{NewAuthentication("x"), http.StatusUnauthorized},
		{NewAuthorization("x"), http.StatusForbidden},
		{NewNotFound("x"), http.StatusNotFound},
		{NewInternal("x", nil), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.StatusCode(), tt.err.Kind.String())
	}
	assert.False(t, IsAuthorization(nil))
}
