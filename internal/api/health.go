package api

import (
	"database/sql"
	"log/slog"
	"net/http"
)

// HealthHandler reports whether the service can reach its database.
type HealthHandler struct {
	DB *sql.DB
}

// Check handles GET /api/health.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		slog.Error("health check failed", "error", err)
		jsonError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}
