package web

import (
	"bytes"
	"embed"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed static
var EmbeddedStaticFS embed.FS

// ListEmbeddedFiles returns a list of all embedded static files for debugging
func ListEmbeddedFiles() ([]string, error) {
	var files []string
	err := fs.WalkDir(EmbeddedStaticFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// embeddedStatic returns the embedded tree rooted at static/
func embeddedStatic() fs.FS {
	staticFS, err := fs.Sub(EmbeddedStaticFS, "static")
	if err != nil {
		panic("Failed to create embedded static filesystem: " + err.Error())
	}
	return staticFS
}

// staticFS picks the static directory on disk, or the embedded copy if the
// directory does not exist
func (s *WebServer) staticFS() fs.FS {
	if st, err := os.Stat(s.Config.StaticDir); err == nil && st.IsDir() {
		log.Printf("[WEB]: Serving static files from %s at %s", s.Config.StaticDir, s.Config.StaticURLPath)
		return os.DirFS(s.Config.StaticDir)
	}
	log.Printf("[WEB]: Static dir %s not found, serving embedded files at %s", s.Config.StaticDir, s.Config.StaticURLPath)
	if s.Config.Debug {
		if files, err := ListEmbeddedFiles(); err == nil {
			log.Printf("[WEB]: Embedded files: %v", files)
		}
	}
	return embeddedStatic()
}

// StaticHandler returns a Gin handler serving files of fsys by the *filepath
// route parameter. Directories are not listed.
func StaticHandler(fsys fs.FS) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := strings.TrimPrefix(c.Param("filepath"), "/")
		if name == "" || !fs.ValidPath(name) {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		f, err := fsys.Open(name)
		if err != nil {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || info.IsDir() {
			c.AbortWithStatus(http.StatusNotFound)
			return
		}

		content, ok := f.(io.ReadSeeker)
		if !ok {
			data, err := io.ReadAll(f)
			if err != nil {
				c.AbortWithStatus(http.StatusInternalServerError)
				return
			}
			content = bytes.NewReader(data)
		}

		// ranges, conditional requests and content type are left to net/http
		http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), content)
	}
}
