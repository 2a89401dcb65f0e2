package web

import (
	"net/http"

	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/model"
)

// Index handles GET /.
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	lost, err := s.Catalog.Recent(r.Context(), model.StatusLost, catalog.RecentLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	found, err := s.Catalog.Recent(r.Context(), model.StatusFound, catalog.RecentLimit)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "index.html", &struct {
		PageData
		RecentLost  []model.Item
		RecentFound []model.Item
	}{
		PageData:    s.page(w, r, "Home"),
		RecentLost:  lost,
		RecentFound: found,
	})
}

// About handles GET /about.
func (s *Server) About(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "about.html", &struct{ PageData }{s.page(w, r, "About")})
}

// Dashboard handles GET /items/dashboard.
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	lost, found, err := s.Catalog.Dashboard(r.Context(), CurrentUser(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	s.Templates.Render(w, "dashboard.html", &struct {
		PageData
		LostItems  []model.Item
		FoundItems []model.Item
	}{
		PageData:   s.page(w, r, "My Dashboard"),
		LostItems:  lost,
		FoundItems: found,
	})
}
