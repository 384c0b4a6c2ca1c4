package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/itchan-dev/emojiprofile/shared/csrf"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
)

type csrfContextKey string

const csrfTokenContextKey csrfContextKey = "csrf_token"

// CSRFConfig holds CSRF middleware configuration
type CSRFConfig struct {
	SecureCookies bool  // Use Secure flag on cookies (requires HTTPS)
	MaxBodyBytes  int64 // Cap on form bodies parsed to find the token

	// TooLarge answers bodies over MaxBodyBytes. Nil responds 413.
	TooLarge http.HandlerFunc
}

func (c CSRFConfig) tooLarge(w http.ResponseWriter, r *http.Request) {
	logger.Log.Warn("request body too large", "path", r.URL.Path, "content_length", r.ContentLength, "limit", c.MaxBodyBytes)
	if c.TooLarge != nil {
		c.TooLarge(w, r)
		return
	}
	http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large")
}

// GenerateCSRFToken middleware generates and sets CSRF token cookie
func GenerateCSRFToken(config CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(csrfCookieName)
			var token string

			if err != nil || cookie.Value == "" {
				token, err = csrf.GenerateToken()
				if err != nil {
					logger.Log.Error("failed to generate CSRF token", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}

				http.SetCookie(w, &http.Cookie{
					Name:     csrfCookieName,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					Secure:   config.SecureCookies,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   86400, // 24 hours
				})
			} else {
				token = cookie.Value
			}

			// Store token in context for template rendering
			ctx := context.WithValue(r.Context(), csrfTokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ValidateCSRFToken middleware validates the token of state-changing requests.
// The token comes from the form field or, for scripted clients, the X-CSRF-Token header.
func ValidateCSRFToken(config CSRFConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut &&
				r.Method != http.MethodPatch && r.Method != http.MethodDelete {
				next.ServeHTTP(w, r)
				return
			}

			cookie, err := r.Cookie(csrfCookieName)
			if err != nil {
				logger.Log.Warn("CSRF token cookie missing", "path", r.URL.Path)
				http.Error(w, "CSRF token missing", http.StatusForbidden)
				return
			}

			formToken := r.Header.Get(csrfHeader)
			if formToken == "" {
				if config.MaxBodyBytes > 0 {
					if r.ContentLength > config.MaxBodyBytes {
						config.tooLarge(w, r)
						return
					}
					r.Body = http.MaxBytesReader(w, r.Body, config.MaxBodyBytes)
				}

				contentType := r.Header.Get("Content-Type")
				if strings.HasPrefix(contentType, "multipart/form-data") {
					// parsed once here, handlers reuse r.MultipartForm
					if err := r.ParseMultipartForm(config.MaxBodyBytes); err != nil {
						if isBodyTooLarge(err) {
							config.tooLarge(w, r)
							return
						}
						logger.Log.Warn("failed to parse multipart form", "path", r.URL.Path, "error", err)
						http.Error(w, "Invalid form data", http.StatusBadRequest)
						return
					}
				} else if r.Form == nil {
					if err := r.ParseForm(); err != nil {
						if isBodyTooLarge(err) {
							config.tooLarge(w, r)
							return
						}
						logger.Log.Warn("failed to parse form", "path", r.URL.Path, "error", err)
						http.Error(w, "Invalid form data", http.StatusBadRequest)
						return
					}
				}
				formToken = r.FormValue(csrfFormField)
			}

			if !csrf.ValidateToken(cookie.Value, formToken) {
				logger.Log.Warn("CSRF token validation failed", "path", r.URL.Path)
				http.Error(w, "CSRF token invalid", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// GetCSRFTokenFromContext retrieves CSRF token from request context
func GetCSRFTokenFromContext(r *http.Request) string {
	token, _ := r.Context().Value(csrfTokenContextKey).(string)
	return token
}
