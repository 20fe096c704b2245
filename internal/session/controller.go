// ABOUTME: Session controller owning login, logout, and the current identity
// ABOUTME: Tokens reach the store only after the backend accepted the credentials and the token decoded

package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/client"
)

// ErrNoSession is returned when no usable access token is stored
var ErrNoSession = errors.New("not logged in")

// Authenticator exchanges credentials for tokens
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
}

// Identity describes the logged-in user as far as the client knows it
type Identity struct {
	UserID    string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      auth.Role `json:"role"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Expired reports whether the access token has passed its expiry.
// The refresh token may still be able to renew it.
func (i *Identity) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// Controller drives the session lifecycle against a TokenStore
type Controller struct {
	authn Authenticator
	store auth.TokenStore
}

// NewController creates a controller that logs in through authn and keeps
// the resulting tokens in store
func NewController(authn Authenticator, store auth.TokenStore) *Controller {
	return &Controller{authn: authn, store: store}
}

// Login authenticates and stores both tokens. On any failure the store is
// left exactly as it was.
func (c *Controller) Login(ctx context.Context, email, password string) (*Identity, error) {
	resp, err := c.authn.Login(ctx, email, password)
	if err != nil {
		slog.Info("Login failed", "error", err)
		return nil, err
	}

	claims, err := auth.DecodeClaims(resp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("backend issued an unusable access token: %w", err)
	}

	if err := c.store.Set(resp.AccessToken, resp.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	identity := identityFrom(claims, resp.User)
	slog.Info("Login succeeded", "user_id", identity.UserID, "role", identity.Role)
	return identity, nil
}

// Logout clears the stored session and returns the route to show next.
// Logging out without a session is not an error.
func (c *Controller) Logout() (string, error) {
	if err := c.store.Clear(); err != nil {
		return auth.LoginRoute, fmt.Errorf("failed to clear session: %w", err)
	}
	slog.Info("Logged out")
	return auth.LoginRoute, nil
}

// Identity decodes the stored access token. A missing or malformed token
// returns ErrNoSession.
func (c *Controller) Identity() (*Identity, error) {
	token, ok := c.store.Access()
	if !ok {
		return nil, ErrNoSession
	}
	claims, err := auth.DecodeClaims(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	return identityFrom(claims, nil), nil
}

// Authorize runs the route guard against the stored session
func (c *Controller) Authorize(fallback string, required ...auth.Role) auth.Decision {
	return auth.Authorize(c.store, fallback, required...)
}

// identityFrom takes the role from the token and prefers the profile the
// backend returned for everything else
func identityFrom(claims *auth.Claims, user *client.User) *Identity {
	id := &Identity{
		UserID:    claims.Subject,
		Name:      claims.Name,
		Email:     claims.Email,
		Role:      claims.Role,
		ExpiresAt: claims.Expiry(),
	}
	if user != nil {
		if user.ID != "" {
			id.UserID = user.ID
		}
		if user.Name != "" {
			id.Name = user.Name
		}
		if user.Email != "" {
			id.Email = user.Email
		}
	}
	return id
}
