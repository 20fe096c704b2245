// ABOUTME: Admin user management commands
// ABOUTME: List, create, update, and delete accounts; all require the ADMIN role

package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/client"
	"github.com/spf13/cobra"
)

var (
	userFullName  string
	userEmail     string
	userPassword  string
	userRole      string
	userNewRole   string
	userDeleteYes bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts (admins only)",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List users",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(runUsersList)
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user",
	Long:  `Create a user. The password is prompted for when --password is not given.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runUsersCreate(ctx, w, client.CreateUserRequest{
				Name:     userFullName,
				Email:    userEmail,
				Password: userPassword,
				Role:     strings.ToUpper(userRole),
			})
		})
	},
}

var usersUpdateCmd = &cobra.Command{
	Use:   "update USER_ID",
	Short: "Update a user; omitted fields keep their value",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runUsersUpdate(ctx, w, args[0], client.UpdateUserRequest{
				Name:     userFullName,
				Email:    userEmail,
				Password: userPassword,
				Role:     strings.ToUpper(userNewRole),
			})
		})
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete USER_ID",
	Short: "Delete a user",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runAndExit(func(ctx context.Context, w io.Writer) int {
			return runUsersDelete(ctx, w, args[0], userDeleteYes)
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{usersCreateCmd, usersUpdateCmd} {
		c.Flags().StringVar(&userFullName, "name", "", "Full name")
		c.Flags().StringVar(&userEmail, "email", "", "Email address")
		c.Flags().StringVar(&userPassword, "password", "", "Password")
	}
	usersCreateCmd.Flags().StringVar(&userRole, "role", string(auth.RoleAgent), "ADMIN, AGENT, or CUSTOMER")
	usersUpdateCmd.Flags().StringVar(&userNewRole, "role", "", "ADMIN, AGENT, or CUSTOMER")
	usersDeleteCmd.Flags().BoolVarP(&userDeleteYes, "yes", "y", false, "Do not ask for confirmation")

	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersUpdateCmd, usersDeleteCmd)
	rootCmd.AddCommand(usersCmd)
}

// runUsersList prints every account
func runUsersList(ctx context.Context, w io.Writer) int {
	a, code, ok := setup(w, auth.RoleAdmin)
	if !ok {
		return code
	}

	users, err := a.client.ListUsers(ctx)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, users)
		return exitOK
	}
	fmt.Fprintln(w, formatUserTable(users))
	return exitOK
}

// runUsersCreate creates an account, prompting for a missing password
func runUsersCreate(ctx context.Context, w io.Writer, in client.CreateUserRequest) int {
	a, code, ok := setup(w, auth.RoleAdmin)
	if !ok {
		return code
	}

	if in.Password == "" {
		password, err := a.prompter.Password(ctx, fmt.Sprintf("Password for %s", in.Email))
		if err != nil {
			return promptFailed(w, err)
		}
		in.Password = password
	}

	user, err := a.client.CreateUser(ctx, in)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, user)
		return exitOK
	}
	fmt.Fprintf(w, "Created user %s <%s> (%s) with ID %s\n", user.Name, user.Email, user.Role, user.ID)
	return exitOK
}

// runUsersUpdate changes the given fields of an account
func runUsersUpdate(ctx context.Context, w io.Writer, id string, in client.UpdateUserRequest) int {
	a, code, ok := setup(w, auth.RoleAdmin)
	if !ok {
		return code
	}

	if in == (client.UpdateUserRequest{}) {
		fmt.Fprintln(w, "Error: nothing to update; pass --name, --email, --password, or --role")
		return exitFailure
	}

	user, err := a.client.UpdateUser(ctx, id, in)
	if err != nil {
		return a.fail(w, err)
	}
	if IsJSONOutput() {
		printJSON(w, user)
		return exitOK
	}
	fmt.Fprintf(w, "Updated user %s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return exitOK
}

// runUsersDelete deletes an account after confirmation
func runUsersDelete(ctx context.Context, w io.Writer, id string, yes bool) int {
	a, code, ok := setup(w, auth.RoleAdmin)
	if !ok {
		return code
	}

	if !yes {
		confirmed, err := a.prompter.Confirm(ctx, fmt.Sprintf("Delete user %s?", id))
		if err != nil {
			return promptFailed(w, err)
		}
		if !confirmed {
			fmt.Fprintln(w, "Cancelled.")
			return exitOK
		}
	}

	if err := a.client.DeleteUser(ctx, id); err != nil {
		return a.fail(w, err)
	}
	fmt.Fprintf(w, "Deleted user %s\n", id)
	return exitOK
}

func formatUserTable(users []client.User) string {
	if len(users) == 0 {
		return "No users."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s %-20s %-28s %s\n", "ID", "NAME", "EMAIL", "ROLE")
	for _, u := range users {
		fmt.Fprintf(&b, "%-36s %-20s %-28s %s\n", u.ID, truncate(u.Name, 20), truncate(u.Email, 28), u.Role)
	}
	return strings.TrimRight(b.String(), "\n")
}
