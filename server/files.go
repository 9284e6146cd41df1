package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/teranos/homepage/logger"
)

// staticContentTypes maps file extensions to the Content-Type served for them
var staticContentTypes = map[string]string{
	".css":  "text/css; charset=utf-8",
	".js":   "application/javascript; charset=utf-8",
	".png":  "image/png",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".ico":  "image/x-icon",
	".txt":  "text/plain; charset=utf-8",
}

// staticContentType returns the Content-Type for name, by extension
func staticContentType(name string) string {
	if ct, ok := staticContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// HandleStatic serves GET /static/{path...} from the static directory.
// Paths containing ".." and anything that is not a regular file answer 404.
func (s *HomepageServer) HandleStatic(w http.ResponseWriter, r *http.Request) {
	rel := r.PathValue("path")
	if rel == "" || strings.Contains(rel, "..") {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(s.cfg.StaticDir, filepath.FromSlash(rel))
	file, err := os.Open(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", staticContentType(path))
	w.Header().Set("Cache-Control", "public, max-age="+strconv.Itoa(staticMaxAge))
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)

	logger.LoggerFromContext(r.Context(), s.logger).Debugw("Served static file",
		logger.FieldFile, rel, "size", info.Size())
}
