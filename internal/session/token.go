package session

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpired reports whether token is a JWT whose exp claim lies before now.
// Opaque tokens and tokens without exp never expire here; the backend remains
// the authority and the signature is not checked.
func TokenExpired(token string, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" || strings.Count(token, ".") != 2 {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !now.Before(exp.Time)
}
