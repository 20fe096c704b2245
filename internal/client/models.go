// ABOUTME: Request and response types for the ticket backend API
// ABOUTME: Mirrors the JSON shapes the backend sends for tickets, users, and notifications

package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TokenPair is the token set returned by login and refresh
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the body returned by POST /auth/login
type LoginResponse struct {
	TokenPair
	User *User `json:"user,omitempty"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// User is a backend account
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"required,oneof=ADMIN AGENT CUSTOMER"`
}

// UpdateUserRequest is the body of PATCH /users/{id}. Empty fields are left unchanged.
type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
	Password string `json:"password,omitempty" validate:"omitempty,min=6"`
	Role     string `json:"role,omitempty" validate:"omitempty,oneof=ADMIN AGENT CUSTOMER"`
}

// TicketStatus is the lifecycle state of a ticket
type TicketStatus string

const (
	StatusOpen       TicketStatus = "OPEN"
	StatusInProgress TicketStatus = "IN_PROGRESS"
	StatusResolved   TicketStatus = "RESOLVED"
	StatusClosed     TicketStatus = "CLOSED"
)

// Statuses lists every ticket status in workflow order
var Statuses = []TicketStatus{StatusOpen, StatusInProgress, StatusResolved, StatusClosed}

// TicketPriority ranks ticket urgency
type TicketPriority string

const (
	PriorityLow    TicketPriority = "LOW"
	PriorityMedium TicketPriority = "MEDIUM"
	PriorityHigh   TicketPriority = "HIGH"
	PriorityUrgent TicketPriority = "URGENT"
)

// Priorities lists every ticket priority from lowest to highest
var Priorities = []TicketPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Ticket is a support request
type Ticket struct {
	ID          string         `json:"id"`
	Code        string         `json:"code"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Priority    TicketPriority `json:"priority"`
	Status      TicketStatus   `json:"status"`
	Author      User           `json:"author"`
	Assignee    *User          `json:"assignee,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// CreateTicketRequest is the body of POST /tickets
type CreateTicketRequest struct {
	Title       string         `json:"title" validate:"required,max=200"`
	Description string         `json:"description" validate:"required"`
	Priority    TicketPriority `json:"priority" validate:"required,oneof=LOW MEDIUM HIGH URGENT"`
}

type statusRequest struct {
	Status TicketStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS RESOLVED CLOSED"`
}

type assignRequest struct {
	AssigneeID string `json:"assigneeId" validate:"required"`
}

// Comment is a message attached to a ticket
type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Author    User      `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type commentRequest struct {
	Content string `json:"content" validate:"required"`
}

// Notification types sent by the backend. Others may appear.
const (
	NotificationTicketCreated       = "ticket_created"
	NotificationTicketStatusChanged = "ticket_status_changed"
	NotificationTicketAssigned      = "ticket_assigned"
	NotificationTicketCommented     = "ticket_commented"
)

// Notification is an event addressed to the current user
type Notification struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload"`
	ReadAt    *time.Time     `json:"readAt"`
	CreatedAt time.Time      `json:"createdAt"`
}

// Unread reports whether the notification has not been marked read
func (n *Notification) Unread() bool {
	return n.ReadAt == nil
}

// UnreadCount counts notifications not yet marked read
func UnreadCount(ns []Notification) int {
	count := 0
	for i := range ns {
		if ns[i].Unread() {
			count++
		}
	}
	return count
}

// StatusSummary holds ticket totals per status
type StatusSummary struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"inProgress"`
	Resolved   int `json:"resolved"`
	Closed     int `json:"closed"`
}

// UserStat is the number of tickets attached to one user
type UserStat struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Tickets int    `json:"tickets"`
}

// StatusCount is one row of the tickets-by-status breakdown
type StatusCount struct {
	Status string     `json:"status"`
	Count  GroupCount `json:"_count"`
}

// GroupCount accepts either a bare number or the backend's {"id": n} group-by shape
type GroupCount int

func (g *GroupCount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*g = 0
		return nil
	}
	if len(data) > 0 && data[0] == '{' {
		var grouped struct {
			ID int `json:"id"`
		}
		if err := json.Unmarshal(data, &grouped); err != nil {
			return fmt.Errorf("invalid group count: %w", err)
		}
		*g = GroupCount(grouped.ID)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid group count: %w", err)
	}
	*g = GroupCount(n)
	return nil
}

// DashboardStats is the body of GET /tickets/stats
type DashboardStats struct {
	UserStats       []UserStat    `json:"userStats"`
	TicketsByStatus []StatusCount `json:"ticketsByStatus"`
	Summary         StatusSummary `json:"summary"`
}

// Share returns the percentage of all grouped tickets in the given row
func (s *DashboardStats) Share(row StatusCount) float64 {
	total := 0
	for _, r := range s.TicketsByStatus {
		total += int(r.Count)
	}
	if total == 0 {
		return 0
	}
	return float64(row.Count) * 100 / float64(total)
}
