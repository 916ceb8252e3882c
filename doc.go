// Package authflow manages the client side of an OAuth2 session against an
// external identity provider: one-shot authorization-code exchange, durable
// token persistence, pre-expiry single-flight refresh, role derivation for
// navigation, and a session state machine the rest of the application consumes.
//
// The package is designed for concurrent callers: Manager methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// authflow is the public surface. It exposes [Manager], [Builder], [Config],
// and value types ([Session], [Role], [MetricsSnapshot]). Wire I/O against the
// provider lives under internal/idp; persistence, cooldowns, claim decoding,
// and route gating live in the store, cooldown, jwt, and guard sub-packages.
//
// # What this package must NOT do
//
//   - Verify token signatures. Decoded claims are a UI routing hint; the
//     resource server owns the trust boundary and still receives the raw
//     bearer token on every call.
//   - Retry a failed authorization-code exchange or refresh. A rejected code
//     or refresh token does not become valid by retrying; callers restart the
//     login flow.
//   - Expose Redis clients or blob encoding details in its public API.
package authflow
