package middleware

import (
	"net/http"
	"strings"
)

// Album art is served from the providers' CDNs.
var contentSecurityPolicy = strings.Join([]string{
	"default-src 'self'",
	"script-src 'self'",
	"style-src 'self' 'unsafe-inline'",
	"img-src 'self' data: https://i.scdn.co https://*.spotifycdn.com https://resources.tidal.com",
	"font-src 'self'",
	"connect-src 'self'",
	"frame-ancestors 'none'",
	"base-uri 'self'",
	"form-action 'self'",
}, "; ")

type SecurityHeadersMiddleware struct {
	secure bool
}

// NewSecurityHeadersMiddleware enables HSTS when the server is reached over
// HTTPS, which is the same switch that marks the session cookie Secure.
func NewSecurityHeadersMiddleware(secure bool) *SecurityHeadersMiddleware {
	return &SecurityHeadersMiddleware{secure: secure}
}

func (m *SecurityHeadersMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", contentSecurityPolicy)

		if m.secure {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		// Responses under /api carry per-session data.
		if strings.HasPrefix(r.URL.Path, "/api/") {
			h.Set("Cache-Control", "no-store")
		}

		next.ServeHTTP(w, r)
	})
}
