package web

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/lostfound/internal/apperror"
)

// errorPage is the data of error.html.
type errorPage struct {
	PageData
	Status  int
	Message string
}

// fail responds to a request that ended in err. Internal errors are logged
// and shown as a generic page.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperror.IsAuthentication(err) {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	status := apperror.StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	s.Templates.RenderStatus(w, status, "error.html", &errorPage{
		PageData: s.page(w, r, http.StatusText(status)),
		Status:   status,
		Message:  apperror.Message(err),
	})
}

// notFound renders the 404 page.
func (s *Server) notFound(w http.ResponseWriter, r *http.Request) {
	s.fail(w, r, apperror.NewNotFound("The page you are looking for does not exist."))
}

// pathID parses the {id} path segment. Invalid ids are reported as a 404.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		return 0, apperror.NewNotFound("The page you are looking for does not exist.")
	}
	return id, nil
}
