package session

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// TokenCookie is the cookie the remote API keeps its access token in.
const TokenCookie = "access_token"

type tokenClaims struct {
	Role string `json:"role"`
	jwt.StandardClaims
}

// tokenExpiry returns the expiry of the access token found in cookies, or the zero time.
// The token is only inspected: its signature is checked by the remote API.
func tokenExpiry(cookies []*http.Cookie) time.Time {
	for _, c := range cookies {
		if c.Name != TokenCookie || c.Value == "" {
			continue
		}
		var claims tokenClaims
		if _, _, err := new(jwt.Parser).ParseUnverified(c.Value, &claims); err != nil {
			return time.Time{}
		}
		if claims.ExpiresAt == 0 {
			return time.Time{}
		}
		return time.Unix(claims.ExpiresAt, 0)
	}
	return time.Time{}
}
