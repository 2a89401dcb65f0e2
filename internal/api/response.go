package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/erazemk/lostfound/internal/apperror"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("error encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError writes err with the status of its kind. Internal errors are
// logged and their details withheld.
func writeError(w http.ResponseWriter, err error) {
	status := apperror.StatusCode(err)
	if status >= http.StatusInternalServerError {
		slog.Error("api request failed", "error", err)
	}
	jsonError(w, status, apperror.Message(err))
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}
