package handler

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the single-page frontend out of a directory. Unknown
// paths fall through to index.html so client-side routing works.
type PageHandler struct {
	root string
}

func NewPageHandler(root string) *PageHandler {
	return &PageHandler{root: root}
}

// Static serves an existing file under root and stops the chain. API paths
// that reached NoRoute get a JSON 404.
func (h *PageHandler) Static(c *gin.Context) {
	path := c.Request.URL.Path
	if path == "/api" || strings.HasPrefix(path, "/api/") {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}

	if file, ok := h.lookup(path); ok {
		c.File(file)
		c.Abort()
		return
	}
	c.Next()
}

// Index serves the application shell.
func (h *PageHandler) Index(c *gin.Context) {
	index := filepath.Join(h.root, "index.html")
	if _, err := os.Stat(index); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
		return
	}
	c.File(index)
}

func (h *PageHandler) lookup(urlPath string) (string, bool) {
	if h.root == "" || urlPath == "/" {
		return "", false
	}
	rel := filepath.FromSlash(strings.TrimPrefix(filepath.ToSlash(filepath.Clean("/"+urlPath)), "/"))
	full := filepath.Join(h.root, rel)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", false
	}
	return full, true
}
