package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/service"
)

type RequestHandler struct {
	service *service.RequestService
}

func NewRequestHandler(s *service.RequestService) *RequestHandler {
	return &RequestHandler{service: s}
}

type submitRequest struct {
	ItemID uuid.UUID `json:"itemId" validate:"required"`
	Reason *string   `json:"reason"`
}

type transitionRequest struct {
	ID          uuid.UUID            `json:"id" validate:"required"`
	Status      models.RequestStatus `json:"status" validate:"required"`
	Remarks     *string              `json:"remarks"`
	AdminUserID *uuid.UUID           `json:"adminUserId"`
}

// List filters: id, status, itemId, barangayId.
func (h *RequestHandler) List(c *gin.Context) {
	q := service.RequestQuery{Status: models.RequestStatus(c.Query("status"))}
	var ok bool
	if q.ID, ok = optionalUUIDQuery(c, "id"); !ok {
		return
	}
	if q.ItemID, ok = optionalUUIDQuery(c, "itemId"); !ok {
		return
	}
	if q.BarangayID, ok = optionalUUIDQuery(c, "barangayId"); !ok {
		return
	}

	out, err := h.service.List(c.Request.Context(), middleware.CurrentScope(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) Submit(c *gin.Context) {
	var req submitRequest
	if !bindAndValidate(c, &req) {
		return
	}

	out, err := h.service.Submit(c.Request.Context(), middleware.CurrentScope(c), req.ItemID, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Transition changes a request's status: approve, reject or cancel.
func (h *RequestHandler) Transition(c *gin.Context) {
	var req transitionRequest
	if !bindAndValidate(c, &req) {
		return
	}

	out, err := h.service.Transition(c.Request.Context(), middleware.CurrentScope(c), service.TransitionInput{
		RequestID:   req.ID,
		Status:      req.Status,
		Remarks:     req.Remarks,
		AdminUserID: req.AdminUserID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *RequestHandler) Actions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	out, err := h.service.Actions(c.Request.Context(), middleware.CurrentScope(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
