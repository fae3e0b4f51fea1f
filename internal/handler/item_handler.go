package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/service"
)

type ItemHandler struct {
	service *service.ItemService
}

func NewItemHandler(s *service.ItemService) *ItemHandler {
	return &ItemHandler{service: s}
}

type itemCreateRequest struct {
	Name           string            `json:"name" validate:"required,max=150"`
	Description    string            `json:"description"`
	Type           models.ItemType   `json:"type" validate:"omitempty,oneof=service facility"`
	CategoryID     *uuid.UUID        `json:"categoryId"`
	ProcessingTime string            `json:"processingTime" validate:"max=100"`
	Availability   string            `json:"availability" validate:"max=150"`
	BookingRules   *string           `json:"bookingRules"`
	Status         models.ItemStatus `json:"status" validate:"omitempty,oneof=available unavailable maintenance archived"`
	ImageURL       *string           `json:"imageUrl"`
	BarangayID     *uuid.UUID        `json:"barangayId"`
}

type itemUpdateRequest struct {
	ID             uuid.UUID          `json:"id" validate:"required"`
	Name           *string            `json:"name" validate:"omitempty,max=150"`
	Description    *string            `json:"description"`
	Type           *models.ItemType   `json:"type" validate:"omitempty,oneof=service facility"`
	CategoryID     *string            `json:"categoryId"` // "" clears the category
	ProcessingTime *string            `json:"processingTime" validate:"omitempty,max=100"`
	Availability   *string            `json:"availability" validate:"omitempty,max=150"`
	BookingRules   *string            `json:"bookingRules"`
	Status         *models.ItemStatus `json:"status" validate:"omitempty,oneof=available unavailable maintenance archived"`
	ImageURL       *string            `json:"imageUrl"`
	BarangayID     *uuid.UUID         `json:"barangayId"`
}

// List is public. Filters: id, type, categoryId, barangayId, status, search.
func (h *ItemHandler) List(c *gin.Context) {
	q := service.ItemQuery{
		Type:   models.ItemType(c.Query("type")),
		Status: models.ItemStatus(c.Query("status")),
		Search: c.Query("search"),
	}
	var ok bool
	if q.ID, ok = optionalUUIDQuery(c, "id"); !ok {
		return
	}
	if q.CategoryID, ok = optionalUUIDQuery(c, "categoryId"); !ok {
		return
	}
	if q.BarangayID, ok = optionalUUIDQuery(c, "barangayId"); !ok {
		return
	}

	items, err := h.service.List(c.Request.Context(), middleware.CurrentScope(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ItemHandler) Create(c *gin.Context) {
	var req itemCreateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.service.Create(c.Request.Context(), middleware.CurrentScope(c), service.ItemInput{
		Name:           req.Name,
		Description:    req.Description,
		Type:           req.Type,
		CategoryID:     req.CategoryID,
		ProcessingTime: req.ProcessingTime,
		Availability:   req.Availability,
		BookingRules:   req.BookingRules,
		Status:         req.Status,
		ImageURL:       req.ImageURL,
		BarangayID:     req.BarangayID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ItemHandler) Update(c *gin.Context) {
	var req itemUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	item, err := h.service.Update(c.Request.Context(), middleware.CurrentScope(c), req.ID, service.ItemPatch{
		Name:           req.Name,
		Description:    req.Description,
		Type:           req.Type,
		CategoryID:     req.CategoryID,
		ProcessingTime: req.ProcessingTime,
		Availability:   req.Availability,
		BookingRules:   req.BookingRules,
		Status:         req.Status,
		ImageURL:       req.ImageURL,
		BarangayID:     req.BarangayID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ItemHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentScope(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item deleted"})
}
