// ABOUTME: Session commands: login, logout, and whoami
// ABOUTME: Login prompts for missing credentials; whoami decodes the stored token

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/markalston/ticketdesk/internal/client"
	"github.com/markalston/ticketdesk/internal/prompt"
	"github.com/markalston/ticketdesk/internal/session"
	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Long: `Log in to the backend. Missing credentials are prompted for.

Passing --password puts the secret in your shell history; prefer the prompt.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runLogin(ctx, w, loginEmail, loginPassword)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(_ context.Context, w io.Writer) int {
			return runLogout(w)
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(_ context.Context, w io.Writer) int {
			return runWhoami(w, time.Now())
		})
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

// runLogin authenticates and returns exit code
func runLogin(ctx context.Context, w io.Writer, email, password string) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailure
	}

	if email == "" || password == "" {
		email, password, err = a.prompter.Credentials(ctx, email)
		if errors.Is(err, prompt.ErrAborted) {
			fmt.Fprintln(w, "Login cancelled.")
			return exitFailure
		}
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitFailure
		}
	}

	identity, err := a.session.Login(ctx, email, password)
	if err != nil {
		if errors.Is(err, client.ErrInvalidCredentials) {
			fmt.Fprintln(w, "Error: invalid email or password")
			return exitFailure
		}
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		printJSON(w, identity)
	} else {
		fmt.Fprintf(w, "Logged in as %s\n", formatIdentity(identity))
	}
	return exitOK
}

// runLogout clears the session and returns exit code
func runLogout(w io.Writer) int {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailure
	}
	if _, err := a.session.Logout(); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitFailure
	}
	fmt.Fprintln(w, "Logged out.")
	return exitOK
}

// runWhoami prints the stored identity and returns exit code
func runWhoami(w io.Writer, now time.Time) int {
	a, code, ok := setup(w)
	if !ok {
		return code
	}
	identity, err := a.session.Identity()
	if err != nil {
		return a.fail(w, err)
	}

	if IsJSONOutput() {
		printJSON(w, identity)
		return exitOK
	}
	fmt.Fprintln(w, formatWhoami(identity, now))
	return exitOK
}

func formatIdentity(id *session.Identity) string {
	name := id.Name
	if name == "" {
		name = id.Email
	}
	if id.Email != "" && id.Email != name {
		return fmt.Sprintf("%s <%s> (%s)", name, id.Email, id.Role)
	}
	return fmt.Sprintf("%s (%s)", name, id.Role)
}

func formatWhoami(id *session.Identity, now time.Time) string {
	expiry := "never"
	if !id.ExpiresAt.IsZero() {
		expiry = id.ExpiresAt.Local().Format(time.DateTime)
		if id.Expired(now) {
			expiry += " (expired, renewed on next request)"
		}
	}
	return fmt.Sprintf(`User:    %s
User ID: %s
Role:    %s
Expires: %s`, formatIdentity(id), id.UserID, id.Role, expiry)
}
