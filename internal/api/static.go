package api

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// handleStatic serves files from dir. "/" maps to index.html and an
// extensionless path "/about" maps to about.html when that file exists.
// Directories without an index.html are not listed.
func handleStatic(dir string) http.HandlerFunc {
	files := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		p := path.Clean("/" + r.URL.Path)

		if p == "/" {
			servePage(w, r, filepath.Join(dir, "index.html"))
			return
		}
		if path.Ext(p) == "" {
			page := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(p, "/"))+".html")
			if isFile(page) {
				http.ServeFile(w, r, page)
				return
			}
			if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err == nil && info.IsDir() {
				servePage(w, r, filepath.Join(dir, filepath.FromSlash(p), "index.html"))
				return
			}
		}
		files.ServeHTTP(w, r)
	}
}

func servePage(w http.ResponseWriter, r *http.Request, page string) {
	if !isFile(page) {
		httpError(w, http.StatusNotFound, "Not found")
		return
	}
	http.ServeFile(w, r, page)
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}
