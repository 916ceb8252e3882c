package authflow

import (
	"context"

	"github.com/ohsuite/authflow/jwt"
	"github.com/ohsuite/authflow/store"
)

// Status is the session lifecycle state.
//
// Transitions: Anonymous → Authenticating → Authenticated ⇄ Refreshing,
// Refreshing → Expired → Anonymous, Authenticating → Error.
type Status uint8

const (
	// StatusAnonymous means no token set is held.
	StatusAnonymous Status = iota
	// StatusAuthenticating means a login or code exchange is in flight.
	StatusAuthenticating
	// StatusAuthenticated means a live token set is held.
	StatusAuthenticated
	// StatusRefreshing means a renewal is in flight; the prior token set is
	// still held and still usable.
	StatusRefreshing
	// StatusExpired means a refresh definitively failed; the session is being
	// torn down.
	StatusExpired
	// StatusError means the last exchange or login failed; the user must
	// restart the login flow.
	StatusError
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusAnonymous:
		return "anonymous"
	case StatusAuthenticating:
		return "authenticating"
	case StatusAuthenticated:
		return "authenticated"
	case StatusRefreshing:
		return "refreshing"
	case StatusExpired:
		return "expired"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Authenticated reports whether a token set is held in this state.
func (s Status) Authenticated() bool {
	return s == StatusAuthenticated || s == StatusRefreshing
}

// Session is an immutable snapshot of the manager's state, taken by
// [Manager.Snapshot] and consumed by route guards.
//
// Invariant: Tokens is non-nil exactly when Status.Authenticated().
type Session struct {
	Status Status
	// Tokens is a copy of the held token set, nil outside authenticated states.
	Tokens *store.TokenSet
	// Claims is the decoded access-token payload, nil when no tokens are held
	// or the payload could not be decoded. Routing hint only.
	Claims *jwt.Claims
	// LoginInProgress is true between "authorization code observed" and
	// "exchange resolved". While true, guards must not redirect to login.
	LoginInProgress bool
}

// TokenStore persists the current token set. Implemented by [store.Store]
// (Redis) and [store.Memory] (process-local degrade target).
type TokenStore interface {
	Save(ctx context.Context, t *store.TokenSet) error
	Load(ctx context.Context) (*store.TokenSet, error)
	Clear(ctx context.Context) error
}

// NavigateFunc receives the navigation side effects the manager schedules:
// the post-failure return to the login entry point and nothing else. Hosts
// wire it to their router; a nil navigator drops navigations.
type NavigateFunc func(path string)
