// ABOUTME: Ticket commands: list, show, create, status, assign, delete, and comments
// ABOUTME: Status and assignment are for agents and admins; commenting for customers and agents

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/client"
	"github.com/markalston/ticketdesk/internal/prompt"
	"github.com/markalston/ticketdesk/internal/styles"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	ticketStatusFilter string
	ticketTitle        string
	ticketDescription  string
	ticketPriority     string
	ticketDeleteYes    bool
)

// Roles allowed to change ticket workflow and to comment
var (
	workflowRoles = []auth.Role{auth.RoleAdmin, auth.RoleAgent}
	commentRoles  = []auth.Role{auth.RoleCustomer, auth.RoleAgent}
)

var ticketsCmd = &cobra.Command{
	Use:     "tickets",
	Aliases: []string{"ticket"},
	Short:   "Work with support tickets",
}

var ticketsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tickets",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsList(ctx, w, ticketStatusFilter)
		})
	},
}

var ticketsShowCmd = &cobra.Command{
	Use:   "show TICKET_ID",
	Short: "Show a ticket with its comments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsShow(ctx, w, args[0])
		})
	},
}

var ticketsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Open a new ticket",
	Long:  `Open a new ticket. Missing fields are prompted for.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsCreate(ctx, w, client.CreateTicketRequest{
				Title:       ticketTitle,
				Description: ticketDescription,
				Priority:    client.TicketPriority(strings.ToUpper(ticketPriority)),
			})
		})
	},
}

var ticketsStatusCmd = &cobra.Command{
	Use:   "status TICKET_ID [OPEN|IN_PROGRESS|RESOLVED|CLOSED]",
	Short: "Change a ticket's status (agents and admins)",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		status := ""
		if len(args) == 2 {
			status = args[1]
		}
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsStatus(ctx, w, args[0], status)
		})
	},
}

var ticketsAssignCmd = &cobra.Command{
	Use:   "assign TICKET_ID USER_ID",
	Short: "Assign a ticket to an agent (agents and admins)",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsAssign(ctx, w, args[0], args[1])
		})
	},
}

var ticketsDeleteCmd = &cobra.Command{
	Use:   "delete TICKET_ID",
	Short: "Delete a ticket",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsDelete(ctx, w, args[0], ticketDeleteYes)
		})
	},
}

var ticketsCommentsCmd = &cobra.Command{
	Use:   "comments TICKET_ID",
	Short: "List a ticket's comments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsComments(ctx, w, args[0])
		})
	},
}

var ticketsCommentCmd = &cobra.Command{
	Use:   "comment TICKET_ID TEXT...",
	Short: "Add a comment to a ticket (customers and agents)",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runTicketsComment(ctx, w, args[0], strings.Join(args[1:], " "))
		})
	},
}

func init() {
	ticketsListCmd.Flags().StringVar(&ticketStatusFilter, "status", "", "Only show tickets in this status")
	ticketsCreateCmd.Flags().StringVar(&ticketTitle, "title", "", "Ticket title")
	ticketsCreateCmd.Flags().StringVar(&ticketDescription, "description", "", "Ticket description")
	ticketsCreateCmd.Flags().StringVar(&ticketPriority, "priority", string(client.PriorityMedium), "LOW, MEDIUM, HIGH, or URGENT")
	ticketsDeleteCmd.Flags().BoolVarP(&ticketDeleteYes, "yes", "y", false, "Do not ask for confirmation")

	ticketsCmd.AddCommand(
		ticketsListCmd,
		ticketsShowCmd,
		ticketsCreateCmd,
		ticketsStatusCmd,
		ticketsAssignCmd,
		ticketsDeleteCmd,
		ticketsCommentsCmd,
		ticketsCommentCmd,
	)
	rootCmd.AddCommand(ticketsCmd)
}

// runTicketsList prints tickets and returns exit code
func runTicketsList(ctx context.Context, w io.Writer, status string) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}

	tickets, err := a.client.ListTickets(ctx)
	if err != nil {
		return a.fail(w, err)
	}
	tickets = filterTickets(tickets, client.TicketStatus(strings.ToUpper(status)))

	if IsJSONOutput() {
		printJSON(w, tickets)
		return exitOK
	}
	fmt.Fprintln(w, formatTicketTable(tickets))
	return exitOK
}

// runTicketsShow prints one ticket and its comments
func runTicketsShow(ctx context.Context, w io.Writer, id string) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}

	var (
		ticket   *client.Ticket
		comments []client.Comment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ticket, err = a.client.GetTicket(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		comments, err = a.client.ListComments(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		printJSON(w, map[string]any{"ticket": ticket, "comments": comments})
		return exitOK
	}
	fmt.Fprintln(w, formatTicketDetail(ticket))
	fmt.Fprintln(w)
	fmt.Fprintln(w, formatComments(comments))
	return exitOK
}

// runTicketsCreate opens a ticket, prompting for missing fields
func runTicketsCreate(ctx context.Context, w io.Writer, in client.CreateTicketRequest) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}

	if in.Title == "" || in.Description == "" {
		answered, err := a.prompter.NewTicket(ctx)
		if err != nil {
			return promptFailed(w, err)
		}
		in = answered
	}

	ticket, err := a.client.CreateTicket(ctx, in)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, ticket)
		return exitOK
	}
	fmt.Fprintf(w, "Created ticket %s: %s\n", ticketRef(ticket), ticket.Title)
	return exitOK
}

// runTicketsStatus moves a ticket to status, prompting when status is empty
func runTicketsStatus(ctx context.Context, w io.Writer, id, status string) int {
	a, code, ok := setup(w, workflowRoles...)
	if !ok {
		return code
	}

	next := client.TicketStatus(strings.ToUpper(status))
	if next == "" {
		current, err := a.client.GetTicket(ctx, id)
		if err != nil {
			return a.fail(w, err)
		}
		next, err = a.prompter.SelectStatus(ctx, current.Status)
		if err != nil {
			return promptFailed(w, err)
		}
	}

	ticket, err := a.client.UpdateTicketStatus(ctx, id, next)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, ticket)
		return exitOK
	}
	fmt.Fprintf(w, "Ticket %s is now %s\n", ticketRef(ticket), prompt.StatusLabel(ticket.Status))
	return exitOK
}

// runTicketsAssign assigns a ticket to an agent
func runTicketsAssign(ctx context.Context, w io.Writer, id, assigneeID string) int {
	a, code, ok := setup(w, workflowRoles...)
	if !ok {
		return code
	}

	ticket, err := a.client.AssignTicket(ctx, id, assigneeID)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, ticket)
		return exitOK
	}
	fmt.Fprintf(w, "Ticket %s assigned to %s\n", ticketRef(ticket), userName(ticket.Assignee))
	return exitOK
}

// runTicketsDelete deletes a ticket after confirmation
func runTicketsDelete(ctx context.Context, w io.Writer, id string, yes bool) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}

	if !yes {
		confirmed, err := a.prompter.Confirm(ctx, fmt.Sprintf("Delete ticket %s?", id))
		if err != nil {
			return promptFailed(w, err)
		}
		if !confirmed {
			fmt.Fprintln(w, "Cancelled.")
			return exitOK
		}
	}

	if err := a.client.DeleteTicket(ctx, id); err != nil {
		return a.fail(w, err)
	}
	fmt.Fprintf(w, "Deleted ticket %s\n", id)
	return exitOK
}

// runTicketsComments prints a ticket's comments
func runTicketsComments(ctx context.Context, w io.Writer, id string) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}

	comments, err := a.client.ListComments(ctx, id)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, comments)
		return exitOK
	}
	fmt.Fprintln(w, formatComments(comments))
	return exitOK
}

// runTicketsComment adds a comment to a ticket
func runTicketsComment(ctx context.Context, w io.Writer, id, content string) int {
	a, code, ok := setup(w, commentRoles...)
	if !ok {
		return code
	}

	comment, err := a.client.AddComment(ctx, id, strings.TrimSpace(content))
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, comment)
		return exitOK
	}
	fmt.Fprintf(w, "Comment added to ticket %s\n", id)
	return exitOK
}

func promptFailed(w io.Writer, err error) int {
	if errors.Is(err, prompt.ErrAborted) {
		fmt.Fprintln(w, "Cancelled.")
		return exitFailure
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitFailure
}

func filterTickets(tickets []client.Ticket, status client.TicketStatus) []client.Ticket {
	if status == "" {
		return tickets
	}
	filtered := make([]client.Ticket, 0, len(tickets))
	for _, t := range tickets {
		if t.Status == status {
			filtered = append(filtered, t)
		}
	}
	return filtered
}

func ticketRef(t *client.Ticket) string {
	if t.Code != "" {
		return t.Code
	}
	return t.ID
}

func userName(u *client.User) string {
	if u == nil {
		return "unassigned"
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// formatTicketTable renders tickets one per line
func formatTicketTable(tickets []client.Ticket) string {
	if len(tickets) == 0 {
		return "No tickets."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-12s %-8s %-16s %-16s %s\n", "CODE", "STATUS", "PRIORITY", "AUTHOR", "ASSIGNEE", "TITLE")
	for i := range tickets {
		t := &tickets[i]
		fmt.Fprintf(&b, "%-10s %-12s %-8s %-16s %-16s %s\n",
			truncate(ticketRef(t), 10),
			t.Status,
			t.Priority,
			truncate(userName(&t.Author), 16),
			truncate(userName(t.Assignee), 16),
			t.Title,
		)
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatTicketDetail renders every field of one ticket
func formatTicketDetail(t *client.Ticket) string {
	return fmt.Sprintf(`Ticket:   %s (%s)
Title:    %s
Status:   %s
Priority: %s
Author:   %s
Assignee: %s
Created:  %s
Updated:  %s

%s`,
		ticketRef(t), t.ID,
		t.Title,
		styles.Status(t.Status, prompt.StatusLabel(t.Status)),
		t.Priority,
		userName(&t.Author),
		userName(t.Assignee),
		formatTime(t.CreatedAt),
		formatTime(t.UpdatedAt),
		t.Description,
	)
}

// formatComments renders comments oldest first
func formatComments(comments []client.Comment) string {
	if len(comments) == 0 {
		return "No comments yet."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Comments (%d):\n", len(comments))
	for _, c := range comments {
		fmt.Fprintf(&b, "  [%s] %s (%s): %s\n", formatTime(c.CreatedAt), userName(&c.Author), c.Author.Role, c.Content)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
