package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func securityRouter(opts SecurityOptions) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opts))
	r.GET("/api/items", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{}) })
	r.GET("/services", func(c *gin.Context) { c.String(http.StatusOK, "page") })
	return r
}

func TestSecurityHeaders_PagePolicyAllowsMediaOrigin(t *testing.T) {
	r := securityRouter(SecurityOptions{MediaOrigins: []string{"https://files.example.ph"}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/services", nil))

	csp := w.Header().Get("Content-Security-Policy")
	assert.Contains(t, csp, "img-src 'self' data: https://files.example.ph")
	assert.NotContains(t, csp, "https:;")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Empty(t, w.Header().Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_APIPolicy(t *testing.T) {
	r := securityRouter(SecurityOptions{Production: true})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/items", nil))

	assert.Equal(t, "default-src 'none'; frame-ancestors 'none'", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "max-age=31536000; includeSubDomains", w.Header().Get("Strict-Transport-Security"))
}

func TestOriginOf(t *testing.T) {
	assert.Equal(t, "https://s3.example.com", OriginOf("https://s3.example.com/bucket/"))
	assert.Equal(t, "", OriginOf("/uploads/"))
	assert.Equal(t, "", OriginOf(""))
}
