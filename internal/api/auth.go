package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/metrics"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	Accounts *accounts.Service
	Sessions *auth.Sessions
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Login handles POST /api/auth/login. The username may also be an email.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.Accounts.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if apperror.IsAuthentication(err) {
			metrics.LoginAttempts.WithLabelValues("failure").Inc()
		}
		writeError(w, err)
		return
	}

	token, expires, err := h.Sessions.Issue(user)
	if err != nil {
		writeError(w, apperror.NewInternal("issuing token", err))
		return
	}

	metrics.LoginAttempts.WithLabelValues("success").Inc()
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expires})
}

// Throttled answers POST /api/auth/login for clients over the rate limit.
func (h *AuthHandler) Throttled(w http.ResponseWriter, r *http.Request) {
	metrics.LoginAttempts.WithLabelValues("throttled").Inc()
	jsonError(w, http.StatusTooManyRequests, "too many login attempts")
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Revoke(r.Context(), getToken(r.Context())); err != nil {
		writeError(w, apperror.NewInternal("revoking token", err))
		return
	}

	slog.Info("user logged out", "user", GetUser(r.Context()).Username)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, GetUser(r.Context()))
}
