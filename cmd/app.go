// ABOUTME: Wiring shared by every command: config, token store, API client, and session
// ABOUTME: Also renders guard redirects and maps errors onto exit codes

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/markalston/ticketdesk/internal/auth"
	"github.com/markalston/ticketdesk/internal/client"
	"github.com/markalston/ticketdesk/internal/config"
	"github.com/markalston/ticketdesk/internal/prompt"
	"github.com/markalston/ticketdesk/internal/querycache"
	"github.com/markalston/ticketdesk/internal/session"
	"github.com/markalston/ticketdesk/internal/styles"
)

// newPrompter is replaced in tests
var newPrompter = func() prompt.Prompter {
	return &prompt.Terminal{Accessible: os.Getenv("ACCESSIBLE") != ""}
}

type app struct {
	cfg      *config.Config
	store    auth.TokenStore
	client   *client.Client
	session  *session.Controller
	prompter prompt.Prompter

	expired atomic.Bool
}

func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := auth.OpenFileStore(cfg.ConfigDir)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		store:    store,
		prompter: newPrompter(),
	}
	a.client = client.New(cfg.APIURL, store,
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithCache(querycache.New(cfg.CacheTTL)),
		client.WithBreaker(client.BreakerConfig{
			Name:                "backend",
			ConsecutiveFailures: cfg.BreakerFailures,
			Timeout:             cfg.BreakerTimeout,
		}),
		client.WithSessionExpiredHandler(func(error) {
			a.expired.Store(true)
		}),
	)
	a.session = session.NewController(a.client, store)
	return a, nil
}

// setup builds the app and runs the route guard. ok is false when the
// command must stop; code is then its exit code.
func setup(w io.Writer, required ...auth.Role) (a *app, code int, ok bool) {
	a, err := newApp()
	if err != nil {
		fmt.Fprintf(w, "%s %v\n", styles.ErrorText.Render("Error:"), err)
		return nil, exitFailure, false
	}
	decision := a.session.Authorize(auth.FallbackRoute, required...)
	if !decision.Allowed {
		fmt.Fprintln(w, redirectMessage(decision.Redirect))
		return nil, exitSession, false
	}
	return a, exitOK, true
}

// routeCommands maps the guard's redirect targets onto the command that shows them
var routeCommands = map[string]string{
	auth.LoginRoute:    "ticketdesk login",
	auth.FallbackRoute: "ticketdesk tickets list",
}

func redirectMessage(route string) string {
	command, ok := routeCommands[route]
	if !ok {
		command = routeCommands[auth.FallbackRoute]
	}
	if route == auth.LoginRoute {
		return fmt.Sprintf("Not logged in. Run '%s' first.", command)
	}
	return fmt.Sprintf("Your role cannot use this command. Try '%s'.", command)
}

// fail prints err and returns the matching exit code
func (a *app) fail(w io.Writer, err error) int {
	if a.expired.Load() {
		fmt.Fprintf(w, "%s session expired. %s\n", styles.ErrorText.Render("Error:"), redirectMessage(auth.LoginRoute))
		return exitSession
	}

	fmt.Fprintf(w, "%s %v\n", styles.ErrorText.Render("Error:"), err)

	var connErr *client.ConnectionError
	switch {
	case errors.As(err, &connErr):
		return exitConnection
	case errors.Is(err, client.ErrUnauthorized), errors.Is(err, session.ErrNoSession):
		return exitSession
	}
	return exitFailure
}
