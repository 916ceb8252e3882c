// Package store provides durable persistence for the current token set and for
// consumed authorization-code markers.
//
// # Binary encoding
//
// Token sets are stored under a single Redis key as a compact version-prefixed
// binary blob. A write is a single SET, so readers observe either the prior
// complete set or the new complete set, never a partial one. Malformed or
// unknown-version blobs decode to "no tokens" rather than an error.
//
// # Architecture boundaries
//
// This package owns the [TokenSet] model and the persistence implementations
// ([Store], [Memory], [Markers]). It does not interpret token contents, talk to
// the identity provider, or decide session state — those responsibilities
// belong to the session manager.
//
// # What this package must NOT do
//
//   - Import authflow, jwt, or guard (no upward imports).
//   - Persist a token set with a missing access or refresh token.
//   - Surface decode failures of persisted data as errors to callers.
package store
