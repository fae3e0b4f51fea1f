package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/middleware"
	"github.com/viniuy/e-barangay/internal/service"
	"github.com/viniuy/e-barangay/internal/session"
	"github.com/viniuy/e-barangay/pkg/logger"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type SignupRequest struct {
	Username      string     `json:"username" validate:"required,min=3,max=50"`
	Email         string     `json:"email" validate:"required,email,max=100"`
	Password      string     `json:"password" validate:"required,min=8,max=128"`
	FirstName     string     `json:"firstName" validate:"max=100"`
	LastName      string     `json:"lastName" validate:"max=100"`
	ContactNumber string     `json:"contactNumber" validate:"max=30"`
	Address       string     `json:"address"`
	BarangayID    *uuid.UUID `json:"barangayId"`
}

type LoginRequest struct {
	// Email or username
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	logger.Log.Info("Signup attempt",
		zap.String("username", req.Username),
		zap.String("ip", c.ClientIP()),
	)

	user, token, err := h.authService.Signup(c.Request.Context(), service.SignupInput{
		Username:      req.Username,
		Email:         req.Email,
		Password:      req.Password,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		ContactNumber: req.ContactNumber,
		Address:       req.Address,
		BarangayID:    req.BarangayID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    user,
	})
}

// Me returns the caller behind the session cookie.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.CurrentUser(c)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if token, err := c.Cookie(session.CookieName); err == nil && token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", h.authService.IsProduction(), true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteLaxMode) // CSRF protection
	c.SetCookie(
		session.CookieName,
		token,
		int(h.authService.SessionTTL().Seconds()),
		"/",
		"",                           // current domain
		h.authService.IsProduction(), // HTTPS-only in production
		true,                         // httpOnly
	)
}
