// ABOUTME: Notification commands: list, read, read-all, and watch
// ABOUTME: watch polls the backend and rings the terminal bell when unread notifications arrive

package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/markalston/ticketdesk/internal/client"
	"github.com/markalston/ticketdesk/internal/styles"
	"github.com/spf13/cobra"
)

var (
	notificationsUnreadOnly bool
	notificationsInterval   time.Duration
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"notif"},
	Short:   "Show and acknowledge notifications",
}

var notificationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notifications",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runNotificationsList(ctx, w, notificationsUnreadOnly)
		})
	},
}

var notificationsReadCmd = &cobra.Command{
	Use:   "read NOTIFICATION_ID",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runNotificationsRead(ctx, w, args[0])
		})
	},
}

var notificationsReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(runNotificationsReadAll)
	},
}

var notificationsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Poll for notifications until interrupted",
	Long: `Poll for notifications until interrupted. New unread notifications are
printed as they arrive and ring the terminal bell.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runNotificationsWatch(ctx, w, notificationsInterval)
		})
	},
}

func init() {
	notificationsListCmd.Flags().BoolVar(&notificationsUnreadOnly, "unread", false, "Only show unread notifications")
	notificationsWatchCmd.Flags().DurationVar(&notificationsInterval, "interval", 0, "Polling interval (default TICKETDESK_POLL_INTERVAL)")

	notificationsCmd.AddCommand(notificationsListCmd, notificationsReadCmd, notificationsReadAllCmd, notificationsWatchCmd)
	rootCmd.AddCommand(notificationsCmd)
}

// runNotificationsList prints notifications newest first as the backend sends them
func runNotificationsList(ctx context.Context, w io.Writer, unreadOnly bool) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}

	ns, err := a.client.ListNotifications(ctx)
	if err != nil {
		return a.fail(w, err)
	}
	if unreadOnly {
		ns = unread(ns)
	}

	if IsJSONOutput() {
		printJSON(w, ns)
		return exitOK
	}
	fmt.Fprintln(w, formatNotifications(ns))
	return exitOK
}

func runNotificationsRead(ctx context.Context, w io.Writer, id string) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}
	if err := a.client.MarkNotificationRead(ctx, id); err != nil {
		return a.fail(w, err)
	}
	fmt.Fprintf(w, "Marked notification %s as read\n", id)
	return exitOK
}

func runNotificationsReadAll(ctx context.Context, w io.Writer) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}
	if err := a.client.MarkAllNotificationsRead(ctx); err != nil {
		return a.fail(w, err)
	}
	fmt.Fprintln(w, "Marked all notifications as read")
	return exitOK
}

// runNotificationsWatch polls until ctx is cancelled. Returns non-zero only
// when the session is lost or the first poll fails.
func runNotificationsWatch(ctx context.Context, w io.Writer, interval time.Duration) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}
	if interval <= 0 {
		interval = a.cfg.PollInterval
	}

	seen := make(map[string]bool)
	lastUnread := -1

	poll := func() int {
		a.client.Invalidate("notifications")
		ns, err := a.client.ListNotifications(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return exitOK
			}
			if lastUnread < 0 || a.expired.Load() {
				return a.fail(w, err)
			}
			slog.Warn("Notification poll failed", "error", err)
			return -1
		}

		count := client.UnreadCount(ns)
		var fresh []client.Notification
		for _, n := range ns {
			if n.Unread() && !seen[n.ID] {
				fresh = append(fresh, n)
			}
			seen[n.ID] = true
		}

		if lastUnread >= 0 && count > lastUnread {
			fmt.Fprint(w, "\a")
		}
		for _, n := range fresh {
			fmt.Fprintln(w, formatNotification(n))
		}
		lastUnread = count
		return -1
	}

	if code := poll(); code >= 0 {
		return code
	}
	fmt.Fprintf(w, "Watching notifications every %s (%d unread). Press Ctrl+C to stop.\n", interval, lastUnread)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return exitOK
		case <-ticker.C:
			if code := poll(); code >= 0 {
				return code
			}
		}
	}
}

func unread(ns []client.Notification) []client.Notification {
	out := make([]client.Notification, 0, len(ns))
	for _, n := range ns {
		if n.Unread() {
			out = append(out, n)
		}
	}
	return out
}

func formatNotifications(ns []client.Notification) string {
	if len(ns) == 0 {
		return "No notifications."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d notifications, %d unread\n", len(ns), client.UnreadCount(ns))
	for _, n := range ns {
		fmt.Fprintln(&b, formatNotification(n))
	}
	return strings.TrimRight(b.String(), "\n")
}

// formatNotification renders one line: marker, time, id, and a readable message
func formatNotification(n client.Notification) string {
	marker := " "
	if n.Unread() {
		marker = styles.Unread("*")
	}
	return fmt.Sprintf("%s %s  %s  %s", marker, formatTime(n.CreatedAt), n.ID, notificationMessage(n))
}

func notificationMessage(n client.Notification) string {
	ticket := payloadString(n.Payload, "ticketCode", "code", "ticketId")
	switch n.Type {
	case client.NotificationTicketCreated:
		return fmt.Sprintf("New ticket %s: %s", ticket, payloadString(n.Payload, "title"))
	case client.NotificationTicketStatusChanged:
		return fmt.Sprintf("Ticket %s moved to %s", ticket, payloadString(n.Payload, "status"))
	case client.NotificationTicketAssigned:
		return fmt.Sprintf("Ticket %s was assigned to you", ticket)
	case client.NotificationTicketCommented:
		return fmt.Sprintf("New comment on ticket %s", ticket)
	}
	return n.Type
}

// payloadString returns the first non-empty string value among keys
func payloadString(payload map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := payload[k]; ok {
			if s := fmt.Sprint(v); s != "" && v != nil {
				return s
			}
		}
	}
	return "?"
}
