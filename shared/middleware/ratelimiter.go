package middleware

import (
	"fmt"
	"net"
	"net/http"

	"github.com/itchan-dev/emojiprofile/shared/logger"
	"github.com/itchan-dev/emojiprofile/shared/middleware/ratelimiter"
	"github.com/itchan-dev/emojiprofile/shared/utils"
)

// IdentityFunc extracts the key a request is rate limited by.
type IdentityFunc func(r *http.Request) (string, error)

func RateLimit(rl *ratelimiter.Limiter, getIdentity IdentityFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := getIdentity(r)
			if err != nil {
				utils.WriteErrorAndStatusCode(w, err)
				return
			}
			if !rl.Allow(identity) {
				logger.Log.Warn("rate limit exceeded", "path", r.URL.Path)
				http.Error(w, "Rate limit exceeded, try again later", http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func GlobalRateLimit(rl *ratelimiter.Limiter) func(http.Handler) http.Handler {
	return RateLimit(rl, func(r *http.Request) (string, error) { return "global", nil })
}

// GetIP extracts the client IP from RemoteAddr.
// X-Real-IP and X-Forwarded-For are not trusted.
func GetIP(r *http.Request) (string, error) {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	if net.ParseIP(ip) == nil {
		return "", fmt.Errorf("invalid IP address: %s", ip)
	}

	return ip, nil
}
