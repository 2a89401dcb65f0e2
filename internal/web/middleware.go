package web

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/model"
)

type webContextKey string

const webUserKey webContextKey = "webuser"
const webTokenKey webContextKey = "webtoken"

// SessionCookie is the name of the cookie holding the session token.
const SessionCookie = "session"

// WithSession loads the user of a valid session cookie into the request
// context. Requests without one continue anonymously and invalid cookies are
// cleared.
func (s *Server) WithSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil || cookie.Value == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, err := s.Sessions.Verify(r.Context(), cookie.Value)
		if err != nil {
			if !apperror.IsAuthentication(err) {
				slog.Error("failed to verify session", "error", err)
			}
			s.clearSessionCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), webUserKey, user)
		ctx = context.WithValue(ctx, webTokenKey, cookie.Value)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser redirects anonymous requests to the login page, remembering
// where they were headed.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if CurrentUser(r.Context()) == nil {
			target := "/login?next=" + url.QueryEscape(r.URL.RequestURI())
			redirect(w, r, target, FlashInfo, "Please log in to access this page.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// clearSessionCookie clears the session cookie with consistent attributes.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

// CurrentUser returns the logged-in user, or nil.
func CurrentUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(webUserKey).(*model.User)
	return user
}

// sessionToken returns the raw session token of the request.
func sessionToken(ctx context.Context) string {
	token, _ := ctx.Value(webTokenKey).(string)
	return token
}

// safeNext returns next if it is a local path, otherwise "/".
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, `/\`) {
		return "/"
	}
	return next
}
