// ABOUTME: Notification endpoints
// ABOUTME: The list is cached for the stale time and invalidated when anything is marked read

package client

import (
	"context"
	"net/http"
	"net/url"
)

const notificationsKey = "notifications"

// ListNotifications calls GET /notifications
func (c *Client) ListNotifications(ctx context.Context) ([]Notification, error) {
	return cached(c, notificationsKey, func() ([]Notification, error) {
		var ns []Notification
		if err := c.do(ctx, c.httpClient, http.MethodGet, "/notifications", nil, &ns); err != nil {
			return nil, err
		}
		return ns, nil
	})
}

// MarkNotificationRead calls PATCH /notifications/{id}/read
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	if err := c.do(ctx, c.httpClient, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(notificationsKey)
	return nil
}

// MarkAllNotificationsRead calls PATCH /notifications/read-all
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	if err := c.do(ctx, c.httpClient, http.MethodPatch, "/notifications/read-all", nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(notificationsKey)
	return nil
}
