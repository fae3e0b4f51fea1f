package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/models"
)

type AccessHandler struct {
	policy access.Policy
}

func NewAccessHandler(policy access.Policy) *AccessHandler {
	return &AccessHandler{policy: policy}
}

// Check answers whether the caller may load the page at ?path=.
func (h *AccessHandler) Check(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}

	var role models.Role
	if user := middleware.CurrentUser(c); user != nil {
		role = user.Role
	}

	prefix, allowed := h.policy.Allows(path, role)
	c.JSON(http.StatusOK, gin.H{
		"path":    path,
		"prefix":  prefix,
		"allowed": allowed,
	})
}
