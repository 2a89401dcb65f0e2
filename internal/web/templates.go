package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/erazemk/lostfound/internal/accounts"
	"github.com/erazemk/lostfound/internal/auth"
	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/messaging"
	"github.com/erazemk/lostfound/internal/model"
	"github.com/erazemk/lostfound/internal/ratelimit"
	"github.com/erazemk/lostfound/internal/uploads"
	webembed "github.com/erazemk/lostfound/web"
)

// AppName is shown in page titles and the navigation bar.
const AppName = "Campus Lost & Found"

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"statusName": func(status model.Status) string {
			switch status {
			case model.StatusLost:
				return "Lost"
			case model.StatusFound:
				return "Found"
			default:
				return string(status)
			}
		},
		"date": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006")
		},
		"datetime": func(t time.Time) string {
			return t.Local().Format("Jan 2, 2006 15:04")
		},
		"truncate": func(n int, s string) string {
			if utf8.RuneCountInString(s) <= n {
				return s
			}
			runes := []rune(s)
			return string(runes[:n]) + "…"
		},
		"browseURL": browseURL,
		"deref": func(p *int64) int64 {
			if p == nil {
				return 0
			}
			return *p
		},
	}
}

// browseURL links to page of the board with the filter f.
func browseURL(f catalog.BrowseFilter, page int) string {
	v := url.Values{}
	if f.Status != "" && f.Status != catalog.FilterAll {
		v.Set("status", f.Status)
	}
	if f.Category != "" && f.Category != catalog.FilterAll {
		v.Set("category", f.Category)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if page > 1 {
		v.Set("page", strconv.Itoa(page))
	}
	if len(v) == 0 {
		return "/items/browse"
	}
	return "/items/browse?" + v.Encode()
}

var pages = []string{
	"index.html",
	"about.html",
	"login.html",
	"register.html",
	"browse.html",
	"item_detail.html",
	"item_form.html",
	"dashboard.html",
	"inbox.html",
	"sent.html",
	"compose.html",
	"message.html",
	"reply.html",
	"error.html",
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a template with the given data and status 200.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a template with the given status. The page is
// rendered to a buffer first so a template error yields a clean 500.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to write page", "template", name, "error", err)
	}
}

// PageData is the base data passed to all templates.
type PageData struct {
	AppName    string
	Title      string
	User       *model.User
	Unread     int
	Flash      *Flash
	Path       string
	Categories []model.Category
	Statuses   []model.Status
}

// Server holds all dependencies for page handlers.
type Server struct {
	Accounts  *accounts.Service
	Catalog   *catalog.Service
	Messages  *messaging.Service
	Sessions  *auth.Sessions
	Images    *uploads.Store
	Limiter   *ratelimit.Limiter
	Templates *Templates

	// MaxUploadSize caps multipart request bodies in bytes.
	MaxUploadSize int64
	// SecureCookies marks the session cookie Secure.
	SecureCookies bool
}

// page builds the base page data for r, consuming any pending flash.
func (s *Server) page(w http.ResponseWriter, r *http.Request, title string) PageData {
	pd := PageData{
		AppName:    AppName,
		Title:      title,
		User:       CurrentUser(r.Context()),
		Flash:      popFlash(w, r),
		Path:       r.URL.RequestURI(),
		Categories: model.Categories,
		Statuses:   model.Statuses,
	}
	if pd.User != nil {
		n, err := s.Messages.UnreadCount(r.Context(), pd.User)
		if err != nil {
			slog.Error("failed to count unread messages", "user", pd.User.Username, "error", err)
		}
		pd.Unread = n
	}
	return pd
}
