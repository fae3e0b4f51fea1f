package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/viniuy/e-barangay/internal/access"
	"github.com/viniuy/e-barangay/internal/models"
	"github.com/viniuy/e-barangay/internal/session"
	"github.com/viniuy/e-barangay/pkg/logger"
)

const (
	userKey  = "user"
	scopeKey = "scope"
)

// Session resolves the session cookie, if any, and stores the caller and its
// tenant scope in the context. It never rejects a request.
func Session(codec *session.Codec) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(session.CookieName)
		if err == nil && token != "" {
			if user := codec.Resolve(c.Request.Context(), token); user != nil {
				c.Set(userKey, user)
				c.Set(scopeKey, access.ForUser(user))
			}
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(userKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentScope returns the caller's scope; nil for anonymous callers.
func CurrentScope(c *gin.Context) *access.Scope {
	if v, ok := c.Get(scopeKey); ok {
		if s, ok := v.(*access.Scope); ok {
			return s
		}
	}
	return nil
}

func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authenticated",
			})
			return
		}
		c.Next()
	}
}

// RequireRole rejects callers whose role is not in roles. It implies RequireAuth.
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not authenticated",
			})
			return
		}

		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}

		logger.Log.Warn("Role check failed",
			zap.String("user_id", user.ID.String()),
			zap.String("role", string(user.Role)),
			zap.String("path", c.Request.URL.Path),
		)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Forbidden",
		})
	}
}

// Gatekeeper guards page routes with the access policy. Denied callers are
// redirected to the unauthorized page.
func Gatekeeper(policy access.Policy) gin.HandlerFunc {
	return func(c *gin.Context) {
		var role models.Role
		if user := CurrentUser(c); user != nil {
			role = user.Role
		}

		path := c.Request.URL.Path
		if _, ok := policy.Allows(path, role); !ok {
			logger.Log.Debug("Page access denied",
				zap.String("path", path),
				zap.String("role", string(role)),
			)
			c.Redirect(http.StatusFound, access.UnauthorizedPath)
			c.Abort()
			return
		}
		c.Next()
	}
}
