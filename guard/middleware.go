package guard

import (
	"net/http"
	"strconv"
	"time"

	"github.com/ohsuite/authflow"
)

// SessionSource supplies the current session snapshot. *authflow.Manager
// satisfies it.
type SessionSource interface {
	Snapshot() authflow.Session
}

// Options tunes the HTTP adaptation of guard decisions.
type Options struct {
	// LoginPath defaults to authflow.PathLogin.
	LoginPath string
	// ForbiddenPath defaults to authflow.PathForbidden.
	ForbiddenPath string
	// RetryAfter is the hint sent with the 503 that renders Undetermined.
	// Defaults to 1s.
	RetryAfter time.Duration
}

func (o Options) withDefaults() Options {
	if o.LoginPath == "" {
		o.LoginPath = authflow.PathLogin
	}
	if o.ForbiddenPath == "" {
		o.ForbiddenPath = authflow.PathForbidden
	}
	if o.RetryAfter <= 0 {
		o.RetryAfter = time.Second
	}
	return o
}

// Middleware gates every wrapped route on the session. Allow passes through,
// Undetermined answers 503 with Retry-After (the HTTP rendering of "loading,
// do not redirect"), the redirect decisions answer 303 to the configured
// paths.
func Middleware(src SessionSource, opts Options, required ...authflow.Role) func(http.Handler) http.Handler {
	opts = opts.withDefaults()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(src.Snapshot(), required...) {
			case Allow:
				next.ServeHTTP(w, r)
			case Undetermined:
				w.Header().Set("Retry-After", strconv.Itoa(int(opts.RetryAfter/time.Second)))
				http.Error(w, "session resolution pending", http.StatusServiceUnavailable)
			case RedirectToLogin:
				http.Redirect(w, r, opts.LoginPath, http.StatusSeeOther)
			case RedirectToForbidden:
				http.Redirect(w, r, opts.ForbiddenPath, http.StatusSeeOther)
			}
		})
	}
}
