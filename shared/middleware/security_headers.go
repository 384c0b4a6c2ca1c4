package middleware

import (
	"net/http"
)

// DefaultCSP allows same-origin assets plus data: and blob: images for previews.
const DefaultCSP = "default-src 'self'; img-src 'self' data: blob:; style-src 'self'; script-src 'none'; form-action 'self'; frame-ancestors 'none'"

// SecurityHeadersWithCSP adds security headers with custom Content-Security-Policy
// isHTTPS: if true, adds Strict-Transport-Security header
// csp: Content-Security-Policy value (if empty, no CSP header is set)
func SecurityHeadersWithCSP(isHTTPS bool, csp string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			headers := w.Header()

			headers.Set("X-Frame-Options", "DENY")
			headers.Set("X-Content-Type-Options", "nosniff")
			headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			// the upload step never needs device access
			headers.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), payment=()")

			if csp != "" {
				headers.Set("Content-Security-Policy", csp)
			}
			if isHTTPS {
				headers.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}

			next.ServeHTTP(w, r)
		})
	}
}
