// ABOUTME: Ticket, comment, and statistics endpoints
// ABOUTME: Reads are cached; every ticket mutation invalidates the cached ticket queries

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const ticketsKey = "tickets"

// ListTickets calls GET /tickets
func (c *Client) ListTickets(ctx context.Context) ([]Ticket, error) {
	return cached(c, ticketsKey, func() ([]Ticket, error) {
		var tickets []Ticket
		if err := c.do(ctx, c.httpClient, http.MethodGet, "/tickets", nil, &tickets); err != nil {
			return nil, err
		}
		return tickets, nil
	})
}

// GetTicket calls GET /tickets/{id}
func (c *Client) GetTicket(ctx context.Context, id string) (*Ticket, error) {
	return cached(c, ticketKey(id), func() (*Ticket, error) {
		var ticket Ticket
		if err := c.do(ctx, c.httpClient, http.MethodGet, ticketPath(id), nil, &ticket); err != nil {
			return nil, err
		}
		return &ticket, nil
	})
}

// CreateTicket calls POST /tickets
func (c *Client) CreateTicket(ctx context.Context, in CreateTicketRequest) (*Ticket, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var ticket Ticket
	if err := c.do(ctx, c.httpClient, http.MethodPost, "/tickets", in, &ticket); err != nil {
		return nil, err
	}
	c.cache.Invalidate(ticketsKey)
	return &ticket, nil
}

// UpdateTicketStatus calls PATCH /tickets/{id}/status
func (c *Client) UpdateTicketStatus(ctx context.Context, id string, status TicketStatus) (*Ticket, error) {
	in := statusRequest{Status: status}
	if err := Validate(in); err != nil {
		return nil, err
	}
	var ticket Ticket
	if err := c.do(ctx, c.httpClient, http.MethodPatch, ticketPath(id)+"/status", in, &ticket); err != nil {
		return nil, err
	}
	c.cache.Invalidate(ticketsKey)
	return &ticket, nil
}

// AssignTicket calls PATCH /tickets/{id}/assign
func (c *Client) AssignTicket(ctx context.Context, id, assigneeID string) (*Ticket, error) {
	in := assignRequest{AssigneeID: assigneeID}
	if err := Validate(in); err != nil {
		return nil, err
	}
	var ticket Ticket
	if err := c.do(ctx, c.httpClient, http.MethodPatch, ticketPath(id)+"/assign", in, &ticket); err != nil {
		return nil, err
	}
	c.cache.Invalidate(ticketsKey)
	return &ticket, nil
}

// DeleteTicket calls DELETE /tickets/{id}
func (c *Client) DeleteTicket(ctx context.Context, id string) error {
	if err := c.do(ctx, c.httpClient, http.MethodDelete, ticketPath(id), nil, nil); err != nil {
		return err
	}
	c.cache.Invalidate(ticketsKey)
	return nil
}

// ListComments calls GET /tickets/{id}/comments
func (c *Client) ListComments(ctx context.Context, ticketID string) ([]Comment, error) {
	return cached(c, ticketKey(ticketID)+"/comments", func() ([]Comment, error) {
		var comments []Comment
		if err := c.do(ctx, c.httpClient, http.MethodGet, ticketPath(ticketID)+"/comments", nil, &comments); err != nil {
			return nil, err
		}
		return comments, nil
	})
}

// AddComment calls POST /tickets/{id}/comments
func (c *Client) AddComment(ctx context.Context, ticketID, content string) (*Comment, error) {
	in := commentRequest{Content: content}
	if err := Validate(in); err != nil {
		return nil, err
	}
	var comment Comment
	if err := c.do(ctx, c.httpClient, http.MethodPost, ticketPath(ticketID)+"/comments", in, &comment); err != nil {
		return nil, err
	}
	c.cache.Invalidate(ticketKey(ticketID))
	return &comment, nil
}

// TicketStats calls GET /tickets/stats
func (c *Client) TicketStats(ctx context.Context) (*DashboardStats, error) {
	var stats DashboardStats
	if err := c.do(ctx, c.httpClient, http.MethodGet, "/tickets/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func ticketKey(id string) string {
	return fmt.Sprintf("%s/%s", ticketsKey, id)
}

func ticketPath(id string) string {
	return "/tickets/" + url.PathEscape(id)
}
