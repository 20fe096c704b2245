// ABOUTME: Tests for the ticket commands
// ABOUTME: Covers role gates, token refresh, session expiry, and prompting

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/auth/authtest"
	"github.com/markalston/ticketdesk/internal/client"
)

var sampleTickets = []client.Ticket{
	{ID: "t-1", Code: "TCK-1", Title: "VPN down", Status: client.StatusOpen, Priority: client.PriorityHigh,
		Author: client.User{Name: "Ana"}},
	{ID: "t-2", Code: "TCK-2", Title: "Printer jam", Status: client.StatusResolved, Priority: client.PriorityLow,
		Author: client.User{Name: "Bo"}, Assignee: &client.User{Name: "Cy"}},
}

// ticketBackend serves ticket routes and records every request
type ticketBackend struct {
	t        *testing.T
	mu       sync.Mutex
	requests []string
}

func (b *ticketBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.requests = append(b.requests, r.Method+" "+r.URL.Path)
	b.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/tickets":
		json.NewEncoder(w).Encode(sampleTickets)
	case r.Method == http.MethodGet && r.URL.Path == "/tickets/t-1":
		json.NewEncoder(w).Encode(sampleTickets[0])
	case r.Method == http.MethodGet && r.URL.Path == "/tickets/t-1/comments":
		json.NewEncoder(w).Encode([]client.Comment{{ID: "c-1", Content: "Looking into it", Author: client.User{Name: "Cy", Role: "AGENT"}}})
	case r.Method == http.MethodPost && r.URL.Path == "/tickets/t-1/comments":
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		json.NewEncoder(w).Encode(client.Comment{ID: "c-2", Content: in["content"]})
	case r.Method == http.MethodPatch && r.URL.Path == "/tickets/t-1/status":
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		ticket := sampleTickets[0]
		ticket.Status = client.TicketStatus(in["status"])
		json.NewEncoder(w).Encode(ticket)
	case r.Method == http.MethodPost && r.URL.Path == "/tickets":
		var in client.CreateTicketRequest
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(client.Ticket{ID: "t-9", Code: "TCK-9", Title: in.Title, Priority: in.Priority})
	case r.Method == http.MethodDelete && r.URL.Path == "/tickets/t-1":
		w.WriteHeader(http.StatusNoContent)
	default:
		b.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
	}
}

func newTicketBackend(t *testing.T) (*ticketBackend, *httptest.Server) {
	b := &ticketBackend{t: t}
	server := httptest.NewServer(b)
	t.Cleanup(server.Close)
	return b, server
}

func TestFormatTicketTable(t *testing.T) {
	output := formatTicketTable(sampleTickets)

	for _, check := range []string{"CODE", "TCK-1", "VPN down", "unassigned", "Cy", "RESOLVED"} {
		if !strings.Contains(output, check) {
			t.Errorf("expected output to contain '%s'", check)
		}
	}
	if formatTicketTable(nil) != "No tickets." {
		t.Error("expected empty message")
	}
}

func TestTicketsList_Success(t *testing.T) {
	_, server := newTicketBackend(t)
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleCustomer)

	var buf bytes.Buffer
	exitCode := runTicketsList(context.Background(), &buf, "")

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "TCK-1") || !strings.Contains(buf.String(), "TCK-2") {
		t.Errorf("expected both tickets, got %q", buf.String())
	}
}

func TestTicketsList_StatusFilter(t *testing.T) {
	_, server := newTicketBackend(t)
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAgent)

	var buf bytes.Buffer
	if exitCode := runTicketsList(context.Background(), &buf, "resolved"); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	if strings.Contains(buf.String(), "TCK-1") || !strings.Contains(buf.String(), "TCK-2") {
		t.Errorf("expected only the resolved ticket, got %q", buf.String())
	}
}

func TestTicketsList_NotLoggedIn(t *testing.T) {
	backend, server := newTicketBackend(t)
	useBackend(t, server.URL)

	var buf bytes.Buffer
	exitCode := runTicketsList(context.Background(), &buf, "")

	if exitCode != 3 {
		t.Errorf("expected exit code 3, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "ticketdesk login") {
		t.Errorf("expected login hint, got %q", buf.String())
	}
	if len(backend.requests) != 0 {
		t.Errorf("guard must stop before any request, got %v", backend.requests)
	}
}

func TestTicketsList_ConnectionError(t *testing.T) {
	dir, _ := useBackend(t, "http://localhost:99999")
	loginAs(t, dir, auth.RoleAgent)

	var buf bytes.Buffer
	if exitCode := runTicketsList(context.Background(), &buf, ""); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}

func TestTicketsList_RefreshesExpiredAccessToken(t *testing.T) {
	fresh := authtest.Token(t, auth.RoleAgent)
	var refreshes atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			refreshes.Add(1)
			json.NewEncoder(w).Encode(client.TokenPair{AccessToken: fresh, RefreshToken: "refresh-2"})
		case "/tickets":
			if r.Header.Get("Authorization") != "Bearer "+fresh {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(sampleTickets)
		}
	}))
	defer server.Close()
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAgent)

	var buf bytes.Buffer
	if exitCode := runTicketsList(context.Background(), &buf, ""); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if refreshes.Load() != 1 {
		t.Errorf("expected one refresh, got %d", refreshes.Load())
	}
	access, refresh := storedTokens(t, dir)
	if access != fresh || refresh != "refresh-2" {
		t.Errorf("expected refreshed tokens to be persisted, got %q / %q", access, refresh)
	}
}

func TestTicketsList_SessionExpired(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAgent)

	var buf bytes.Buffer
	exitCode := runTicketsList(context.Background(), &buf, "")

	if exitCode != 3 {
		t.Errorf("expected exit code 3, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "session expired") {
		t.Errorf("expected session expired message, got %q", buf.String())
	}
	if _, err := os.Stat(filepath.Join(dir, auth.SessionFileName)); !os.IsNotExist(err) {
		t.Errorf("expected session file to be removed, got %v", err)
	}
}

func TestTicketsShow(t *testing.T) {
	_, server := newTicketBackend(t)
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleCustomer)

	var buf bytes.Buffer
	if exitCode := runTicketsShow(context.Background(), &buf, "t-1"); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	for _, check := range []string{"TCK-1", "VPN down", "Open", "Looking into it"} {
		if !strings.Contains(buf.String(), check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestTicketsStatus_RoleGate(t *testing.T) {
	tests := []struct {
		role     auth.Role
		exitCode int
	}{
		{auth.RoleAdmin, 0},
		{auth.RoleAgent, 0},
		{auth.RoleCustomer, 3},
	}
	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			backend, server := newTicketBackend(t)
			dir, _ := useBackend(t, server.URL)
			loginAs(t, dir, tt.role)

			var buf bytes.Buffer
			exitCode := runTicketsStatus(context.Background(), &buf, "t-1", "in_progress")

			if exitCode != tt.exitCode {
				t.Fatalf("expected exit code %d, got %d: %s", tt.exitCode, exitCode, buf.String())
			}
			if tt.exitCode == 3 {
				if !strings.Contains(buf.String(), "ticketdesk tickets list") {
					t.Errorf("expected fallback hint, got %q", buf.String())
				}
				if len(backend.requests) != 0 {
					t.Errorf("expected no requests, got %v", backend.requests)
				}
				return
			}
			if !strings.Contains(buf.String(), "In progress") {
				t.Errorf("expected new status in output, got %q", buf.String())
			}
		})
	}
}

func TestTicketsStatus_PromptsWhenMissing(t *testing.T) {
	backend, server := newTicketBackend(t)
	dir, prompter := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAgent)
	prompter.status = client.StatusClosed

	var buf bytes.Buffer
	if exitCode := runTicketsStatus(context.Background(), &buf, "t-1", ""); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if len(prompter.asked) != 1 || prompter.asked[0] != "status" {
		t.Errorf("expected a status prompt, got %v", prompter.asked)
	}
	want := []string{"GET /tickets/t-1", "PATCH /tickets/t-1/status"}
	if strings.Join(backend.requests, ",") != strings.Join(want, ",") {
		t.Errorf("expected requests %v, got %v", want, backend.requests)
	}
}

func TestTicketsStatus_InvalidStatus(t *testing.T) {
	_, server := newTicketBackend(t)
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAdmin)

	var buf bytes.Buffer
	if exitCode := runTicketsStatus(context.Background(), &buf, "t-1", "paused"); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "must be one of") {
		t.Errorf("expected validation message, got %q", buf.String())
	}
}

func TestTicketsComment_RoleGate(t *testing.T) {
	for role, want := range map[auth.Role]int{auth.RoleCustomer: 0, auth.RoleAgent: 0, auth.RoleAdmin: 3} {
		t.Run(string(role), func(t *testing.T) {
			_, server := newTicketBackend(t)
			dir, _ := useBackend(t, server.URL)
			loginAs(t, dir, role)

			var buf bytes.Buffer
			if exitCode := runTicketsComment(context.Background(), &buf, "t-1", "  thanks  "); exitCode != want {
				t.Errorf("expected exit code %d, got %d: %s", want, exitCode, buf.String())
			}
		})
	}
}

func TestTicketsCreate_PromptsForMissingFields(t *testing.T) {
	_, server := newTicketBackend(t)
	dir, prompter := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleCustomer)
	prompter.ticket = client.CreateTicketRequest{Title: "Screen flicker", Description: "Since Monday", Priority: client.PriorityUrgent}

	var buf bytes.Buffer
	exitCode := runTicketsCreate(context.Background(), &buf, client.CreateTicketRequest{Priority: client.PriorityMedium})

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "Created ticket TCK-9: Screen flicker") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestTicketsDelete_ConfirmationDeclined(t *testing.T) {
	backend, server := newTicketBackend(t)
	dir, prompter := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAdmin)
	prompter.confirm = false

	var buf bytes.Buffer
	if exitCode := runTicketsDelete(context.Background(), &buf, "t-1", false); exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if len(backend.requests) != 0 {
		t.Errorf("expected no delete request, got %v", backend.requests)
	}
}

func TestTicketsDelete_Yes(t *testing.T) {
	backend, server := newTicketBackend(t)
	dir, prompter := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAdmin)

	var buf bytes.Buffer
	if exitCode := runTicketsDelete(context.Background(), &buf, "t-1", true); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if len(prompter.asked) != 0 {
		t.Errorf("--yes must skip the prompt, got %v", prompter.asked)
	}
	if len(backend.requests) != 1 || backend.requests[0] != "DELETE /tickets/t-1" {
		t.Errorf("unexpected requests %v", backend.requests)
	}
}
