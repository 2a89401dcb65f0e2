package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/ratelimit"
)

// Deps are the services the JSON API is built on.
type Deps struct {
	DB       *sql.DB
	Accounts *accounts.Service
	Catalog  *catalog.Service
	Messages *messaging.Service
	Sessions *auth.Sessions
	Limiter  *ratelimit.Limiter
}

// NewRouter creates the API router with all endpoints registered.
func NewRouter(d Deps) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{Accounts: d.Accounts, Sessions: d.Sessions}
	itemsHandler := &ItemsHandler{Catalog: d.Catalog}
	messagesHandler := &MessagesHandler{Messages: d.Messages}
	healthHandler := &HealthHandler{DB: d.DB}

	authMW := AuthMiddleware(d.Sessions)

	// Public.
	mux.HandleFunc("GET /api/health", healthHandler.Check)
	mux.Handle("POST /api/auth/login", d.Limiter.Middleware("api-login",
		http.HandlerFunc(authHandler.Throttled), http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)

	// Authenticated.
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))
	mux.Handle("GET /api/me", authMW(http.HandlerFunc(authHandler.Me)))
	mux.Handle("GET /api/messages/inbox", authMW(http.HandlerFunc(messagesHandler.Inbox)))
	mux.Handle("GET /api/messages/unread", authMW(http.HandlerFunc(messagesHandler.Unread)))

	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, http.StatusNotFound, "not found")
	})

	return mux
}
