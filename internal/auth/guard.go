// ABOUTME: Route guard deciding whether the current session may open a route
// ABOUTME: Fails closed: missing or undecodable tokens always redirect to login

package auth

// Routes the guard redirects to
const (
	LoginRoute    = "/login"
	FallbackRoute = "/tickets"
)

// Decision is the outcome of Authorize: either allowed, or a redirect target
type Decision struct {
	Allowed  bool
	Redirect string
}

// Allow permits the navigation
func Allow() Decision {
	return Decision{Allowed: true}
}

// RedirectTo sends the caller somewhere else
func RedirectTo(target string) Decision {
	return Decision{Redirect: target}
}

// Authorize checks the stored session against the roles a route requires.
// An empty required list admits any authenticated caller. A caller with a
// valid session but the wrong role is sent to fallback, never to the
// requested route.
func Authorize(store TokenStore, fallback string, required ...Role) Decision {
	token, ok := store.Access()
	if !ok {
		return RedirectTo(LoginRoute)
	}

	role, err := DecodeRole(token)
	if err != nil {
		return RedirectTo(LoginRoute)
	}

	if len(required) > 0 && !role.In(required...) {
		return RedirectTo(fallback)
	}

	return Allow()
}
