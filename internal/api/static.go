package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/yegors/co-wx/pkg/logger"
)

// StaticFileHandler serves the page assets (scripts, styles, weather icons)
// from a directory on disk
type StaticFileHandler struct {
	staticDir string
	logger    *logger.Logger
}

// NewStaticFileHandler creates a new static file handler
func NewStaticFileHandler(staticDir string, log *logger.Logger) *StaticFileHandler {
	return &StaticFileHandler{
		staticDir: staticDir,
		logger:    log.Named("static-handler"),
	}
}

// ServeHTTP serves one file. Directories are never listed.
func (h *StaticFileHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(filepath.Clean("/"+r.URL.Path), "/")
	if rel == "" {
		http.NotFound(w, r)
		return
	}

	root, err := filepath.Abs(h.staticDir)
	if err != nil {
		h.logger.Error("Failed to resolve static directory", logger.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	fullPath := filepath.Join(root, rel)
	if fullPath != root && !strings.HasPrefix(fullPath, root+string(filepath.Separator)) {
		h.logger.Warn("Rejected path outside static directory",
			logger.String("requested_path", r.URL.Path),
			logger.String("static_dir", root))
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	info, err := os.Stat(fullPath)
	switch {
	case os.IsNotExist(err):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("Failed to stat file", logger.Error(err), logger.String("path", fullPath))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	case info.IsDir():
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	// Icons never change; scripts and styles are served fresh
	if strings.HasPrefix(rel, "icon/") {
		w.Header().Set("Cache-Control", "public, max-age=86400")
	} else {
		w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		w.Header().Set("Pragma", "no-cache")
		w.Header().Set("Expires", "0")
	}

	h.logger.Debug("Serving static file", logger.String("path", rel))
	http.ServeFile(w, r, fullPath)
}
