// ABOUTME: Role model and access-token payload decoding
// ABOUTME: Reads role and expiry from the JWT payload without verifying the signature

// Package auth holds the client-side view of a session: the token store, the
// role decoded from the access token, and the route guard built on top of it.
//
// The access token's signature is never verified here. The decoded role only
// decides which commands are worth attempting; the backend re-checks
// authorization on every request.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the caller's role as carried in the access token
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleAgent    Role = "AGENT"
	RoleCustomer Role = "CUSTOMER"
)

// Roles lists every known role
var Roles = []Role{RoleAdmin, RoleAgent, RoleCustomer}

// ErrMalformedToken is returned when an access token cannot be decoded into
// a known role. Callers treat it exactly like having no session.
var ErrMalformedToken = errors.New("malformed access token")

// ErrUnknownRole is returned by ParseRole for values outside Roles
var ErrUnknownRole = errors.New("unknown role")

// ParseRole validates a role string
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// In reports whether r is one of allowed
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}

// Claims is the subset of the access-token payload the client uses
type Claims struct {
	Role  Role   `json:"role"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Expiry returns the token expiry, or the zero time when the token has none
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}

// Expired reports whether the token expiry is at or before now.
// Tokens without an expiry never expire client-side.
func (c *Claims) Expired(now time.Time) bool {
	exp := c.Expiry()
	return !exp.IsZero() && !now.Before(exp)
}

var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// DecodeClaims splits the token into its three segments and decodes the
// payload segment. Every failure wraps ErrMalformedToken.
func DecodeClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid payload encoding", ErrMalformedToken)
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, fmt.Errorf("%w: invalid payload format", ErrMalformedToken)
	}

	if _, err := ParseRole(string(claims.Role)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}

	return &claims, nil
}

// DecodeRole returns the role carried by an access token
func DecodeRole(token string) (Role, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Role, nil
}
