package web

import (
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/apperror"
	"github.com/erazemk/lostfound/internal/metrics"
)

type loginPage struct {
	PageData
	Identifier string
	Next       string
}

type registerPage struct {
	PageData
	Form accounts.RegisterInput
}

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "login.html", &loginPage{
		PageData: s.page(w, r, "Log in"),
		Next:     r.URL.Query().Get("next"),
	})
}

func (s *Server) renderLoginError(w http.ResponseWriter, r *http.Request, status int, message string) {
	pd := s.page(w, r, "Log in")
	pd.Flash = &Flash{Category: FlashError, Message: message}
	s.Templates.RenderStatus(w, status, "login.html", &loginPage{
		PageData:   pd,
		Identifier: r.FormValue("username"),
		Next:       r.FormValue("next"),
	})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	user, err := s.Accounts.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		if !apperror.IsAuthentication(err) {
			s.fail(w, r, err)
			return
		}
		metrics.LoginAttempts.WithLabelValues("failure").Inc()
		s.renderLoginError(w, r, http.StatusUnauthorized, apperror.Message(err))
		return
	}

	token, expires, err := s.Sessions.Issue(user)
	if err != nil {
		s.fail(w, r, apperror.NewInternal("issuing session", err))
		return
	}
	metrics.LoginAttempts.WithLabelValues("success").Inc()

	s.setSessionCookie(w, token, expires)
	redirect(w, r, safeNext(r.FormValue("next")), FlashSuccess, "Welcome back, "+user.DisplayName()+"!")
}

// LoginThrottled answers POST /login when the client is over the rate limit.
func (s *Server) LoginThrottled(w http.ResponseWriter, r *http.Request) {
	metrics.LoginAttempts.WithLabelValues("throttled").Inc()
	s.renderLoginError(w, r, http.StatusTooManyRequests, "Too many login attempts. Please try again in a minute.")
}

// RegisterPage handles GET /register.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	if CurrentUser(r.Context()) != nil {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	s.Templates.Render(w, "register.html", &registerPage{PageData: s.page(w, r, "Register")})
}

// RegisterSubmit handles POST /register.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	in := accounts.RegisterInput{
		Username:        r.FormValue("username"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		ConfirmPassword: r.FormValue("confirm_password"),
		FullName:        r.FormValue("full_name"),
		Phone:           r.FormValue("phone"),
	}

	if _, err := s.Accounts.Register(r.Context(), in); err != nil {
		if !apperror.IsValidation(err) {
			s.fail(w, r, err)
			return
		}
		pd := s.page(w, r, "Register")
		pd.Flash = &Flash{Category: FlashError, Message: apperror.Message(err)}
		in.Password, in.ConfirmPassword = "", ""
		s.Templates.RenderStatus(w, http.StatusBadRequest, "register.html", &registerPage{PageData: pd, Form: in})
		return
	}

	redirect(w, r, "/login", FlashSuccess, "Registration successful! Please log in.")
}

// Logout handles POST /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r.Context()); token != "" {
		if err := s.Sessions.Revoke(r.Context(), token); err != nil {
			slog.Error("failed to revoke session", "error", err)
		}
	}
	if user := CurrentUser(r.Context()); user != nil {
		slog.Info("user logged out", "user", user.Username)
	}

	s.clearSessionCookie(w)
	redirect(w, r, "/", FlashInfo, "You have been logged out.")
}

// AccountDelete handles POST /account/delete.
func (s *Server) AccountDelete(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r.Context())
	if err := s.Accounts.DeleteAccount(r.Context(), user); err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.Sessions.Revoke(r.Context(), sessionToken(r.Context())); err != nil {
		slog.Error("failed to revoke session", "error", err)
	}

	s.clearSessionCookie(w)
	redirect(w, r, "/", FlashInfo, "Your account has been deleted.")
}
