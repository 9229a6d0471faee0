package rest

import (
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
)

const indexFile = "index.html"

// staticHandler serves files from a directory and falls back to index.html
// for paths that match no file, so client-side routes load the app.
type staticHandler struct {
	root  string
	files http.Handler
}

func newStaticHandler(root string) *staticHandler {
	return &staticHandler{
		root:  root,
		files: http.FileServer(http.Dir(root)),
	}
}

func (that *staticHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := filepath.Join(that.root, filepath.FromSlash(path.Clean("/"+r.URL.Path)))

	if _, err := os.Stat(name); errors.Is(err, fs.ErrNotExist) {
		http.ServeFile(w, r, filepath.Join(that.root, indexFile))
		return
	}

	that.files.ServeHTTP(w, r)
}
