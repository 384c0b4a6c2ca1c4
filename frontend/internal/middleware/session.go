package middleware

import (
	"context"
	"net/http"

	"github.com/itchan-dev/emojiprofile/frontend/internal/controller"
	"github.com/itchan-dev/emojiprofile/frontend/internal/session"
	"github.com/itchan-dev/emojiprofile/shared/jwt"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

const sessionCookieName = "emoji_session"

type sessionContextKey string

const (
	sessionIDContextKey  sessionContextKey = "session_id"
	controllerContextKey sessionContextKey = "controller"
)

// SessionConfig holds session middleware configuration
type SessionConfig struct {
	SecureCookies bool
	MaxAge        int // seconds
}

// Sessions attaches the browser's controller to the request, starting a new session
// when the cookie is missing, expired or forged.
func Sessions(tokens jwt.SessionService, sessions *session.Manager, config SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sid := ""
			if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
				if decoded, err := tokens.DecodeToken(cookie.Value); err == nil {
					sid = decoded
				} else {
					logger.Log.Debug("discarding session cookie", "error", err)
				}
			}

			if sid == "" {
				sid = session.NewID()
			}

			// re-issued on every request so the cookie slides with activity
			token, err := tokens.NewToken(sid)
			if err != nil {
				logger.Log.Error("failed to issue session token", "error", err)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     sessionCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: true,
				Secure:   config.SecureCookies,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   config.MaxAge,
			})

			ctx := context.WithValue(r.Context(), sessionIDContextKey, sid)
			ctx = context.WithValue(ctx, controllerContextKey, sessions.Get(sid))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionIDFromContext returns the session id, or "" outside the Sessions middleware.
func GetSessionIDFromContext(r *http.Request) string {
	sid, _ := r.Context().Value(sessionIDContextKey).(string)
	return sid
}

func GetControllerFromContext(r *http.Request) *controller.Controller {
	c, _ := r.Context().Value(controllerContextKey).(*controller.Controller)
	return c
}

// SessionIdentity keys per-session rate limits.
func SessionIdentity(r *http.Request) (string, error) {
	return GetSessionIDFromContext(r), nil
}
