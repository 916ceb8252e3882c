// Package jwt provides best-effort, signature-unverified decoding of access
// token claims for UI routing. It never validates tokens; the resource server
// owns that trust boundary.
package jwt
