// Package token generates and hashes the opaque credential strings used by
// Passage: session tokens, account activation tokens, and password-reset
// tokens.
//
// Generated tokens are uniform random alphanumeric strings backed by
// crypto/rand. Session tokens are stored server-side only as a SHA-256 hex
// digest; the plain value is shown to the client exactly once.
package token
