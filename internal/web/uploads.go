package web

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// validUploadName reports whether name is a plain stored filename.
func validUploadName(name string) bool {
	return name != "" && name == filepath.Base(name) && !strings.HasPrefix(name, ".")
}

func serveImage(w http.ResponseWriter, r *http.Request, path string) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, path)
}

// UploadedImage handles GET /uploads/{name}.
func (s *Server) UploadedImage(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if !validUploadName(name) {
		http.NotFound(w, r)
		return
	}
	serveImage(w, r, s.Images.Path(name))
}

// UploadedThumbnail handles GET /uploads/thumbs/{name}. Images without a
// thumbnail fall back to the original.
func (s *Server) UploadedThumbnail(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(r.PathValue("name"), ".jpg")
	if !validUploadName(name) {
		http.NotFound(w, r)
		return
	}
	path := s.Images.ThumbPath(name)
	if _, err := os.Stat(path); err != nil {
		path = s.Images.Path(name)
	}
	serveImage(w, r, path)
}
