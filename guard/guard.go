package guard

import (
	"github.com/ohsuite/authflow"
)

// Decision is the single outcome of gating one route for one session.
type Decision uint8

const (
	// Allow renders the protected content.
	Allow Decision = iota
	// Undetermined means resolution is pending (exchange or refresh in
	// flight). Render a loading state; never redirect on it.
	Undetermined
	// RedirectToLogin sends the user to the login entry point.
	RedirectToLogin
	// RedirectToForbidden sends an authenticated user without the required
	// roles to the forbidden page.
	RedirectToForbidden
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Undetermined:
		return "undetermined"
	case RedirectToLogin:
		return "redirect-to-login"
	case RedirectToForbidden:
		return "redirect-to-forbidden"
	default:
		return "unknown"
	}
}

// Decide gates one route. An empty required set admits any authenticated
// session; otherwise one shared role suffices.
func Decide(s authflow.Session, required ...authflow.Role) Decision {
	if s.LoginInProgress {
		return Undetermined
	}

	switch s.Status {
	case authflow.StatusAuthenticating, authflow.StatusRefreshing:
		return Undetermined
	case authflow.StatusAuthenticated:
	default:
		// Anonymous, Expired, Error: restart the login flow.
		return RedirectToLogin
	}

	if len(required) == 0 {
		return Allow
	}
	if s.Claims == nil {
		return RedirectToForbidden
	}
	for _, role := range required {
		if authflow.HasRole(s.Claims.Roles, role) {
			return Allow
		}
	}
	return RedirectToForbidden
}

// RoleHomeRedirect resolves the post-login (or authenticated-root) landing
// path for the session. ok is false outside authenticated states.
func RoleHomeRedirect(s authflow.Session) (path string, ok bool) {
	if !s.Status.Authenticated() {
		return "", false
	}
	if s.Claims == nil {
		return authflow.RoleHome(nil), true
	}
	return authflow.RoleHome(s.Claims.Roles), true
}
