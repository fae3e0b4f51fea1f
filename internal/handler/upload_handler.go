package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/service"
)

type UploadHandler struct {
	service *service.UploadService
}

func NewUploadHandler(s *service.UploadService) *UploadHandler {
	return &UploadHandler{service: s}
}

// Upload accepts multipart form fields "file" and "kind".
func (h *UploadHandler) Upload(c *gin.Context) {
	// bodies far past the limit are cut off before parsing; the exact limit
	// is enforced by the service
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*service.MaxUploadSize)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			respondError(c, service.ErrFileTooLarge)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Could not read upload"})
		return
	}
	defer f.Close()

	kind := service.UploadKind(c.PostForm("kind"))
	out, err := h.service.Upload(c.Request.Context(), middleware.CurrentScope(c), kind, fh.Size, f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (h *UploadHandler) Delete(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "key is required"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentScope(c), key); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted"})
}
