package web

import (
	"net/http"
	"net/url"
	"strings"
)

const flashCookie = "flash"

// Flash categories.
const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

// Flash is a one-shot notice shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// setFlash stores a notice for the next page the client loads.
func setFlash(w http.ResponseWriter, category, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(category + "|" + message),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash returns the pending notice, if any, and clears it.
func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	category, message, ok := strings.Cut(raw, "|")
	if !ok || message == "" {
		return nil
	}
	switch category {
	case FlashSuccess, FlashInfo, FlashError:
	default:
		category = FlashInfo
	}
	return &Flash{Category: category, Message: message}
}

// redirect sends the client to target with a flash notice.
func redirect(w http.ResponseWriter, r *http.Request, target, category, message string) {
	setFlash(w, category, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}
