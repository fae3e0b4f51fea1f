package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniuy/e-barangay/internal/service"
)

type BarangayHandler struct {
	service *service.BarangayService
}

func NewBarangayHandler(s *service.BarangayService) *BarangayHandler {
	return &BarangayHandler{service: s}
}

type barangayRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

type barangayUpdateRequest struct {
	ID   uuid.UUID `json:"id" validate:"required"`
	Name string    `json:"name" validate:"required,max=120"`
}

func (h *BarangayHandler) List(c *gin.Context) {
	out, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *BarangayHandler) Create(c *gin.Context) {
	var req barangayRequest
	if !bindAndValidate(c, &req) {
		return
	}

	b, err := h.service.Create(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BarangayHandler) Update(c *gin.Context) {
	var req barangayUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	b, err := h.service.Rename(c.Request.Context(), req.ID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BarangayHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Barangay deleted"})
}
