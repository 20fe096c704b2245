// ABOUTME: Tests for the stats command
// ABOUTME: Verifies dashboard formatting and the ADMIN gate

package cmd

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/client"
)

func TestFormatStats(t *testing.T) {
	stats := &client.DashboardStats{
		Summary:         client.StatusSummary{Total: 4, Open: 3, Closed: 1},
		TicketsByStatus: []client.StatusCount{{Status: "OPEN", Count: 3}, {Status: "CLOSED", Count: 1}},
		UserStats:       []client.UserStat{{ID: "u-1", Name: "Ana", Tickets: 3}},
	}
	users := []client.User{{Role: "ADMIN"}, {Role: "AGENT"}, {Role: "AGENT"}}

	output := formatStats(stats, users)

	for _, check := range []string{"Total:       4", "75.0%", "25.0%", "Ana", "Users: 3 (1 admins, 2 agents, 0 customers)"} {
		if !strings.Contains(output, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, output)
		}
	}
}

func TestStatsCommand_Admin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tickets/stats":
			w.Write([]byte(`{"userStats":[],"ticketsByStatus":[{"status":"OPEN","_count":{"id":2}}],"summary":{"total":2,"open":2}}`))
		case "/users":
			w.Write([]byte(`[{"id":"u-1","role":"ADMIN"}]`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAdmin)

	var buf bytes.Buffer
	if exitCode := runStats(context.Background(), &buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "100.0%") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestStatsCommand_AgentRedirected(t *testing.T) {
	dir, _ := useBackend(t, "http://localhost:99999")
	loginAs(t, dir, auth.RoleAgent)

	var buf bytes.Buffer
	if exitCode := runStats(context.Background(), &buf); exitCode != 3 {
		t.Errorf("expected exit code 3, got %d", exitCode)
	}
}

func TestStatsCommand_BackendError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Forbidden resource"}`))
	}))
	defer server.Close()
	dir, _ := useBackend(t, server.URL)
	loginAs(t, dir, auth.RoleAdmin)

	var buf bytes.Buffer
	if exitCode := runStats(context.Background(), &buf); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Forbidden resource") {
		t.Errorf("expected backend message, got %q", buf.String())
	}
}
