// ABOUTME: Test helpers for minting access tokens
// ABOUTME: Produces HS256-signed JWTs carrying a role claim

package authtest

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/markalston/ticketdesk/internal/auth"
)

var signingKey = []byte("ticketdesk-test-key")

// Token mints an access token for role that expires in an hour
func Token(t testing.TB, role auth.Role) string {
	t.Helper()
	return TokenWithClaims(t, auth.Claims{
		Role:  role,
		Email: "user@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	})
}

// TokenWithClaims mints an access token carrying exactly claims
func TokenWithClaims(t testing.TB, claims auth.Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return signed
}

// TokenWithPayload builds a three-segment token around a raw payload segment
func TokenWithPayload(payload string) string {
	return "eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9." + payload + ".c2lnbmF0dXJl"
}
