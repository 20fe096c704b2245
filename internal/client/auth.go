// ABOUTME: Login and token refresh calls
// ABOUTME: Both bypass the authenticating transport so a refresh can never recurse

package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a token pair. Rejected credentials return
// ErrInvalidCredentials. Login never touches the token store.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	in := LoginRequest{Email: email, Password: password}
	if err := Validate(in); err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := c.do(ctx, c.authClient, http.MethodPost, "/auth/login", in, &out); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			switch apiErr.StatusCode {
			case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
				if apiErr.Message != "" {
					return nil, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
				}
				return nil, ErrInvalidCredentials
			}
		}
		return nil, err
	}
	if out.AccessToken == "" {
		return nil, errors.New("invalid response from backend: no access token")
	}
	return &out, nil
}

// refreshTokens exchanges a refresh token for a new access token and,
// when the backend rotates it, a new refresh token
func (c *Client) refreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var out TokenPair
	if err := c.do(ctx, c.authClient, http.MethodPost, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
