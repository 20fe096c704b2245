// ABOUTME: Interactive terminal prompts for credentials, confirmations, and ticket input
// ABOUTME: Built on huh forms; commands depend on the Prompter interface so tests can script answers

package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/markalston/ticketdesk/internal/client"
)

// ErrAborted is returned when the user cancels a prompt
var ErrAborted = errors.New("aborted")

// Prompter asks the user for input
type Prompter interface {
	Credentials(ctx context.Context, email string) (string, string, error)
	Password(ctx context.Context, title string) (string, error)
	Confirm(ctx context.Context, title string) (bool, error)
	SelectStatus(ctx context.Context, current client.TicketStatus) (client.TicketStatus, error)
	NewTicket(ctx context.Context) (client.CreateTicketRequest, error)
}

// Terminal prompts on the controlling terminal
type Terminal struct {
	// Accessible renders prompts as plain line-based questions, which
	// also works when stdin is not a TTY
	Accessible bool
}

// Credentials asks for email and password. A non-empty email is used as the default.
func (t *Terminal) Credentials(ctx context.Context, email string) (string, string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&email).
				Validate(required("email")),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		).Title("Log in to ticketdesk"),
	)
	if err := t.run(ctx, form); err != nil {
		return "", "", err
	}
	return strings.TrimSpace(email), password, nil
}

// Password asks for a secret without echoing it
func (t *Terminal) Password(ctx context.Context, title string) (string, error) {
	var password string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				EchoMode(huh.EchoModePassword).
				Value(&password).
				Validate(required("password")),
		),
	)
	if err := t.run(ctx, form); err != nil {
		return "", err
	}
	return password, nil
}

// Confirm asks a yes/no question; the default answer is no
func (t *Terminal) Confirm(ctx context.Context, title string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Affirmative("Yes").
				Negative("No").
				Value(&ok),
		),
	)
	if err := t.run(ctx, form); err != nil {
		return false, err
	}
	return ok, nil
}

// SelectStatus asks for a new ticket status, starting at current
func (t *Terminal) SelectStatus(ctx context.Context, current client.TicketStatus) (client.TicketStatus, error) {
	status := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[client.TicketStatus]().
				Title("New status").
				Description("Use ↑/↓ to select, Enter to confirm").
				Options(StatusOptions()...).
				Value(&status),
		),
	)
	if err := t.run(ctx, form); err != nil {
		return "", err
	}
	return status, nil
}

// NewTicket asks for the fields of a new ticket
func (t *Terminal) NewTicket(ctx context.Context) (client.CreateTicketRequest, error) {
	in := client.CreateTicketRequest{Priority: client.PriorityMedium}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				CharLimit(200).
				Value(&in.Title).
				Validate(required("title")),
			huh.NewText().
				Title("Description").
				Value(&in.Description).
				Validate(required("description")),
			huh.NewSelect[client.TicketPriority]().
				Title("Priority").
				Options(PriorityOptions()...).
				Value(&in.Priority),
		).Title("New ticket"),
	)
	if err := t.run(ctx, form); err != nil {
		return client.CreateTicketRequest{}, err
	}
	in.Title = strings.TrimSpace(in.Title)
	return in, nil
}

func (t *Terminal) run(ctx context.Context, form *huh.Form) error {
	err := form.WithTheme(huh.ThemeBase()).WithAccessible(t.Accessible).RunWithContext(ctx)
	if errors.Is(err, huh.ErrUserAborted) {
		return ErrAborted
	}
	return err
}

// StatusOptions lists ticket statuses in workflow order
func StatusOptions() []huh.Option[client.TicketStatus] {
	opts := make([]huh.Option[client.TicketStatus], 0, len(client.Statuses))
	for _, s := range client.Statuses {
		opts = append(opts, huh.NewOption(StatusLabel(s), s))
	}
	return opts
}

// PriorityOptions lists ticket priorities from lowest to highest
func PriorityOptions() []huh.Option[client.TicketPriority] {
	opts := make([]huh.Option[client.TicketPriority], 0, len(client.Priorities))
	for _, p := range client.Priorities {
		opts = append(opts, huh.NewOption(titleCase(string(p)), p))
	}
	return opts
}

// StatusLabel is the human-readable name of a status
func StatusLabel(s client.TicketStatus) string {
	return titleCase(strings.ReplaceAll(string(s), "_", " "))
}

func titleCase(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}
