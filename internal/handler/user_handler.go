package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/repository"
	"github.com/viniuy/e-barangay/internal/service"
)

type UserHandler struct {
	service *service.UserService
}

func NewUserHandler(s *service.UserService) *UserHandler {
	return &UserHandler{service: s}
}

type userCreateRequest struct {
	SignupRequest
	Role       models.Role `json:"role" validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
	IsVerified bool        `json:"isVerified"`
}

type userUpdateRequest struct {
	ID                 uuid.UUID    `json:"id" validate:"required"`
	FirstName          *string      `json:"firstName" validate:"omitempty,max=100"`
	LastName           *string      `json:"lastName" validate:"omitempty,max=100"`
	ContactNumber      *string      `json:"contactNumber" validate:"omitempty,max=30"`
	Address            *string      `json:"address"`
	IDDocumentURL      *string      `json:"idDocumentUrl"`
	AddressDocumentURL *string      `json:"addressDocumentUrl"`
	Password           *string      `json:"password"`
	IsVerified         *bool        `json:"isVerified"`
	Role               *models.Role `json:"role" validate:"omitempty,oneof=USER ADMIN SUPER_ADMIN"`
	// "" detaches the user from its barangay
	BarangayID *string `json:"barangayId"`
}

// List filters: role, search.
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.service.List(c.Request.Context(), middleware.CurrentScope(c), repository.UserFilter{
		Role:   models.Role(c.Query("role")),
		Search: c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	user, err := h.service.Get(c.Request.Context(), middleware.CurrentScope(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userCreateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.service.Create(c.Request.Context(), middleware.CurrentScope(c), service.CreateUserInput{
		SignupInput: service.SignupInput{
			Username:      req.Username,
			Email:         req.Email,
			Password:      req.Password,
			FirstName:     req.FirstName,
			LastName:      req.LastName,
			ContactNumber: req.ContactNumber,
			Address:       req.Address,
			BarangayID:    req.BarangayID,
		},
		Role:       req.Role,
		IsVerified: req.IsVerified,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Update(c *gin.Context) {
	var req userUpdateRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.service.Update(c.Request.Context(), middleware.CurrentScope(c), req.ID, service.UserPatch{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		ContactNumber:      req.ContactNumber,
		Address:            req.Address,
		IDDocumentURL:      req.IDDocumentURL,
		AddressDocumentURL: req.AddressDocumentURL,
		Password:           req.Password,
		IsVerified:         req.IsVerified,
		Role:               req.Role,
		BarangayID:         req.BarangayID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), middleware.CurrentScope(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}
