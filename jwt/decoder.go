package jwt

import (
	"errors"
	"fmt"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned when the token cannot be parsed as a JWT.
var ErrMalformed = errors.New("malformed token")

// Claims is the decoded payload of an access token.
//
// Claims are decoded WITHOUT signature verification and are a routing hint for
// the UI only, never a trust boundary. Every privileged call still carries the
// raw bearer token; the resource server performs the real verification.
type Claims struct {
	Subject   string
	Username  string
	Email     string
	Roles     []string
	ExpiresAt time.Time
}

// HasRole reports whether role appears in the decoded role set.
func (c *Claims) HasRole(role string) bool {
	if c == nil {
		return false
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type tokenClaims struct {
	PreferredUsername string `json:"preferred_username"`
	Email             string `json:"email"`
	RealmAccess       struct {
		Roles []string `json:"roles"`
	} `json:"realm_access"`
	Roles []string `json:"roles"`
	jwtv5.RegisteredClaims
}

// DecodeUnverified parses the token payload without checking its signature or
// expiry. Roles are read from the Keycloak-style realm_access.roles claim,
// falling back to a top-level roles claim.
//
// The function is pure: no I/O, no shared state.
func DecodeUnverified(token string) (*Claims, error) {
	var tc tokenClaims
	if _, _, err := jwtv5.NewParser().ParseUnverified(token, &tc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	roles := tc.RealmAccess.Roles
	if len(roles) == 0 {
		roles = tc.Roles
	}

	claims := &Claims{
		Subject:  tc.Subject,
		Username: tc.PreferredUsername,
		Email:    tc.Email,
		Roles:    roles,
	}
	if tc.ExpiresAt != nil {
		claims.ExpiresAt = tc.ExpiresAt.Time
	}
	return claims, nil
}
