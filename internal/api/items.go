package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/lostfound/internal/catalog"
	"github.com/erazemk/lostfound/internal/model"
)

// ItemsHandler serves the public item board.
type ItemsHandler struct {
	Catalog *catalog.Service
}

type itemsResponse struct {
	Items []model.Item `json:"items"`
	Page  int          `json:"page"`
	Pages int          `json:"pages"`
	Total int          `json:"total"`
}

// List handles GET /api/items. It takes the same status, category, q and
// page parameters as the board.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))

	result, err := h.Catalog.Browse(r.Context(), catalog.BrowseFilter{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
		Page:     page,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, itemsResponse{
		Items: items,
		Page:  result.Page,
		Pages: result.Pages,
		Total: result.Total,
	})
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}
