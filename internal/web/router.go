package web

import (
	"net/http"

	webembed "github.com/erazemk/lostfound/web"
)

// NewRouter creates the web page router with all page routes registered.
// Templates are loaded unless s already has them.
func NewRouter(s *Server) (http.Handler, error) {
	if s.Templates == nil {
		templates, err := LoadTemplates()
		if err != nil {
			return nil, err
		}
		s.Templates = templates
	}

	mux := http.NewServeMux()

	public := func(h http.HandlerFunc) http.Handler { return s.WithSession(h) }
	private := func(h http.HandlerFunc) http.Handler { return s.WithSession(RequireUser(h)) }

	// Static assets and stored images.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /uploads/{name}", s.UploadedImage)
	mux.HandleFunc("GET /uploads/thumbs/{name}", s.UploadedThumbnail)

	// Public pages.
	mux.Handle("GET /{$}", public(s.Index))
	mux.Handle("GET /about", public(s.About))
	mux.Handle("GET /items/browse", public(s.Browse))
	mux.Handle("GET /items/{id}", public(s.ItemDetail))

	// Accounts.
	mux.Handle("GET /register", public(s.RegisterPage))
	mux.Handle("POST /register", public(s.RegisterSubmit))
	mux.Handle("GET /login", public(s.LoginPage))
	login := s.Limiter.Middleware("login", http.HandlerFunc(s.LoginThrottled), http.HandlerFunc(s.LoginSubmit))
	mux.Handle("POST /login", s.WithSession(login))
	mux.Handle("POST /logout", public(s.Logout))
	mux.Handle("POST /account/delete", private(s.AccountDelete))

	// Items.
	mux.Handle("GET /items/post", private(s.ItemPostPage))
	mux.Handle("POST /items/post", private(s.ItemPostSubmit))
	mux.Handle("GET /items/dashboard", private(s.Dashboard))
	mux.Handle("GET /items/{id}/edit", private(s.ItemEditPage))
	mux.Handle("POST /items/{id}/edit", private(s.ItemEditSubmit))
	mux.Handle("POST /items/{id}/resolve", private(s.ItemResolve))
	mux.Handle("POST /items/{id}/delete", private(s.ItemDelete))

	// Messages.
	mux.Handle("GET /messages/inbox", private(s.Inbox))
	mux.Handle("GET /messages/sent", private(s.Sent))
	mux.Handle("GET /messages/compose", private(s.ComposePage))
	mux.Handle("POST /messages/compose", private(s.ComposeSubmit))
	mux.Handle("GET /messages/{id}", private(s.MessageView))
	mux.Handle("GET /messages/{id}/reply", private(s.ReplyPage))
	mux.Handle("POST /messages/{id}/reply", private(s.ReplySubmit))
	mux.Handle("POST /messages/{id}/delete", private(s.MessageDelete))

	// Everything else.
	mux.Handle("/", public(s.notFound))

	return mux, nil
}
