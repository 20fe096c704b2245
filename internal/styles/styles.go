// ABOUTME: Shared lipgloss styles for consistent command output
// ABOUTME: Colors headings and ticket statuses; plain text when not on a terminal

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/markalston/ticketdesk/internal/client"
)

var (
	Primary   = lipgloss.Color("#7C3AED") // Purple
	Secondary = lipgloss.Color("#10B981") // Green
	Warning   = lipgloss.Color("#F59E0B") // Amber
	Danger    = lipgloss.Color("#EF4444") // Red
	Muted     = lipgloss.Color("#6B7280") // Gray
	Info      = lipgloss.Color("#3B82F6") // Blue

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	ErrorText = lipgloss.NewStyle().
			Foreground(Danger).
			Bold(true)
)

var statusColors = map[client.TicketStatus]lipgloss.Color{
	client.StatusOpen:       Info,
	client.StatusInProgress: Warning,
	client.StatusResolved:   Secondary,
	client.StatusClosed:     Muted,
}

// Status renders label in the color for status s
func Status(s client.TicketStatus, label string) string {
	color, ok := statusColors[s]
	if !ok {
		return label
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(label)
}

// Unread highlights the unread marker in notification lists
func Unread(marker string) string {
	return lipgloss.NewStyle().Foreground(Warning).Bold(true).Render(marker)
}
