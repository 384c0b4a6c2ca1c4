package jwt

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	internal_errors "github.com/itchan-dev/emojiprofile/shared/errors"
	"github.com/itchan-dev/emojiprofile/shared/logger"
)

const sessionClaim = "sid"

// SessionService signs and verifies the session cookie.
type SessionService interface {
	NewToken(sessionID string) (string, error)
	DecodeToken(jwtStr string) (string, error)
}

type Jwt struct {
	secretKey string
	ttl       time.Duration
}

func New(secretKey string, ttl time.Duration) SessionService {
	return &Jwt{secretKey, ttl}
}

func (j *Jwt) NewToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{}
	claims[sessionClaim] = sessionID
	claims["iat"] = time.Now().Unix()
	claims["exp"] = time.Now().Add(j.ttl).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		logger.Log.Error("signing session token", "error", err)
		return "", errors.New("can't create session token")
	}

	return tokenString, nil
}

// DecodeToken verifies the signature and expiry and returns the session id.
func (j *Jwt) DecodeToken(jwtStr string) (string, error) {
	token, err := jwt.Parse(jwtStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, &internal_errors.ErrorWithStatusCode{Message: fmt.Sprintf("Unexpected signing method: %v", token.Header["alg"]), StatusCode: http.StatusUnauthorized}
		}
		return []byte(j.secretKey), nil
	})
	if err != nil || !token.Valid {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid session token", StatusCode: http.StatusUnauthorized}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Invalid session claims", StatusCode: http.StatusUnauthorized}
	}
	sid, ok := claims[sessionClaim].(string)
	if !ok || sid == "" {
		return "", &internal_errors.ErrorWithStatusCode{Message: "Session id missing", StatusCode: http.StatusUnauthorized}
	}
	return sid, nil
}
