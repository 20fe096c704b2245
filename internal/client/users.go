// ABOUTME: Admin user management endpoints
// ABOUTME: List, create, update, and delete backend accounts

package client

import (
	"context"
	"net/http"
	"net/url"
)

const usersKey = "users"

// ListUsers calls GET /users
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return cached(c, usersKey, func() ([]User, error) {
		var users []User
		if err := c.do(ctx, c.httpClient, http.MethodGet, "/users", nil, &users); err != nil {
			return nil, err
		}
		return users, nil
	})
}

// CreateUser calls POST /users
func (c *Client) CreateUser(ctx context.Context, in CreateUserRequest) (*User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/users", in, &user); err != nil {
		return nil, err
	}
	c.cache.Invalidate(usersKey)
	return &user, nil
}

// UpdateUser calls PATCH /users/{id}. An empty password keeps the current one.
func (c *Client) UpdateUser(ctx context.Context, id string, in UpdateUserRequest) (*User, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var user User
	if err := c.do(ctx, c.httpClient, http.MethodPatch, "/users/"+url.PathEscape(id), in, &user); err != nil {
		return nil, err
	}
	c.cache.Invalidate(usersKey)
	return &user, nil
}

// DeleteUser calls DELETE /users/{id}
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	if err := c.do(ctx, c.httpClient, http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(usersKey)
	return nil
}
