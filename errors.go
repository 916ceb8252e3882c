package authflow

import (
	"errors"

	"github.com/ohsuite/authflow/internal/idp"
	"github.com/ohsuite/authflow/store"
)

// Failure taxonomy. Exchange and login failures are terminal for the
// authorization code or credential attempt that produced them; refresh
// failures are terminal for the session.
var (
	// ErrAuthServerRejected marks a definitive provider-side refusal (4xx):
	// bad credentials, expired or replayed code, revoked refresh token.
	ErrAuthServerRejected = idp.ErrServerRejected
	// ErrNetwork marks a transport failure before a provider response was read.
	ErrNetwork = idp.ErrNetwork
	// ErrInvalidResponse marks a 2xx provider answer with an unusable body.
	ErrInvalidResponse = idp.ErrInvalidResponse
	// ErrStorageUnavailable marks an unreachable persistence backend. The
	// manager degrades to an in-memory session for the process lifetime.
	ErrStorageUnavailable = store.ErrUnavailable
)

var (
	// ErrRefreshFailed wraps any failure during token renewal. It escalates
	// to the logout path; there are no silent retries.
	ErrRefreshFailed = errors.New("token refresh failed")
	// ErrCodeConsumed is returned when an authorization code was already
	// exchanged. The call is a no-op: no network I/O, no state change.
	ErrCodeConsumed = errors.New("authorization code already consumed")
	// ErrInvalidCallback is returned when the provider redirect carries an
	// error parameter, a session marker without a code, or no code at all.
	ErrInvalidCallback = errors.New("invalid authorization callback")
	// ErrNotAuthenticated is returned by operations that need a live session.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrManagerClosed is returned after Close.
	ErrManagerClosed = errors.New("session manager closed")
)
