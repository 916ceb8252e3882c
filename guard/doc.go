// Package guard maps a session snapshot and a route's required roles to a
// single navigation outcome.
//
// [Decide] is pure: no I/O, no clocks, no shared state. Every protected route
// resolves to exactly one of Allow, RedirectToLogin, RedirectToForbidden, or
// Undetermined — the last of which callers must render as a loading state,
// never as a redirect, so transient exchange/refresh states cause no flicker
// or premature logins.
//
// [Middleware] adapts the decision to net/http for BFF-style gateways.
package guard
