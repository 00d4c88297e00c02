package handler

import (
	"io/fs"
	"net/http"
	"os"
	"path"
	"strings"
)

const indexFile = "index.html"

// SPAHandler serves the built frontend. Paths that are not files get
// index.html so client-side routes survive a reload; /api never does.
type SPAHandler struct {
	root  fs.FS
	files http.Handler
}

func NewSPAHandler(staticDir string) *SPAHandler {
	root := os.DirFS(staticDir)
	return &SPAHandler{
		root:  root,
		files: http.FileServerFS(root),
	}
}

func (h *SPAHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")

	if name == "api" || strings.HasPrefix(name, "api/") {
		NotFound(w, r)
		return
	}

	if name != "" && name != indexFile {
		if info, err := fs.Stat(h.root, name); err == nil && !info.IsDir() {
			h.files.ServeHTTP(w, r)
			return
		}
	}

	if _, err := fs.Stat(h.root, indexFile); err != nil {
		NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, h.root, indexFile)
}
