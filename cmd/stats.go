// ABOUTME: Stats command showing the admin dashboard figures
// ABOUTME: Fetches ticket statistics and the user list in parallel

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/client"
	"github.com/markalston/ticketdesk/internal/prompt"
	"github.com/markalston/ticketdesk/internal/styles"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"dashboard"},
	Short:   "Show ticket statistics (admins only)",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(runStats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// runStats prints the dashboard and returns exit code
func runStats(ctx context.Context, w io.Writer) int {
	a, code, ok := setup(w, auth.RoleAdmin)
	if !ok {
		return code
	}

	var (
		stats *client.DashboardStats
		users []client.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = a.client.TicketStats(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		users, err = a.client.ListUsers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		printJSON(w, map[string]any{"stats": stats, "users": users})
		return exitOK
	}
	fmt.Fprintln(w, formatStats(stats, users))
	return exitOK
}

func formatStats(stats *client.DashboardStats, users []client.User) string {
	var b strings.Builder
	s := stats.Summary
	fmt.Fprintf(&b, `%s
  Total:       %d
  Open:        %d
  In progress: %d
  Resolved:    %d
  Closed:      %d
`, styles.Title.Render("Tickets"), s.Total, s.Open, s.InProgress, s.Resolved, s.Closed)

	if len(stats.TicketsByStatus) > 0 {
		fmt.Fprintln(&b, "\n"+styles.Title.Render("By status"))
		for _, row := range stats.TicketsByStatus {
			fmt.Fprintf(&b, "  %-12s %5d  %5.1f%%\n",
				prompt.StatusLabel(client.TicketStatus(row.Status)), row.Count, stats.Share(row))
		}
	}

	if len(stats.UserStats) > 0 {
		fmt.Fprintln(&b, "\n"+styles.Title.Render("Tickets per user"))
		for _, u := range stats.UserStats {
			fmt.Fprintf(&b, "  %-24s %5d\n", truncate(u.Name, 24), u.Tickets)
		}
	}

	roles := map[string]int{}
	for _, u := range users {
		roles[u.Role]++
	}
	fmt.Fprintf(&b, "\nUsers: %d (%d admins, %d agents, %d customers)",
		len(users), roles[string(auth.RoleAdmin)], roles[string(auth.RoleAgent)], roles[string(auth.RoleCustomer)])
	return b.String()
}
