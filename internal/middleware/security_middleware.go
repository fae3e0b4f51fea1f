package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// SecurityOptions shapes the headers sent by SecurityHeaders.
type SecurityOptions struct {
	// Production turns on HSTS.
	Production bool
	// MediaOrigins are extra origins allowed to serve images, such as the
	// bucket host holding uploaded documents.
	MediaOrigins []string
}

const apiPolicy = "default-src 'none'; frame-ancestors 'none'"

// SecurityHeaders sets the portal's response headers. JSON endpoints under
// /api get a policy that forbids loading anything; pages get one that admits
// uploads from MediaOrigins and the request event socket.
func SecurityHeaders(opts SecurityOptions) gin.HandlerFunc {
	imgSrc := append([]string{"'self'", "data:"}, opts.MediaOrigins...)
	pagePolicy := strings.Join([]string{
		"default-src 'self'",
		"script-src 'self'",
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(imgSrc, " "),
		"font-src 'self'",
		"connect-src 'self'",
		"object-src 'none'",
		"base-uri 'self'",
		"form-action 'self'",
		"frame-ancestors 'none'",
	}, "; ")

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") {
			h.Set("Content-Security-Policy", apiPolicy)
			h.Set("Cache-Control", "no-store")
		} else {
			h.Set("Content-Security-Policy", pagePolicy)
		}

		if opts.Production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

// OriginOf returns scheme://host of an absolute URL, or "" for relative ones.
func OriginOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}
