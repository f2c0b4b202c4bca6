package api

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry derives the absolute expiry instant of a freshly issued access
// token. The server's expires_in (seconds) wins; when it is absent the exp
// claim of the JWT itself is used as a fallback. Returns the zero time when
// neither source yields an expiry.
//
// The claim parse is deliberately unverified: the client has no signing key
// and only needs the timestamp, not a trust decision.
func TokenExpiry(accessToken string, expiresIn int64, now time.Time) time.Time {
	if expiresIn > 0 {
		return now.Add(time.Duration(expiresIn) * time.Second)
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
