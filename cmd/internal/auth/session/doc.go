// Package session issues, verifies, and revokes Passage's opaque session
// tokens.
//
// A token is a single bearer value with sliding expiration: every successful
// verification renews last_used_at, so a session stays alive indefinitely
// under continued activity and dies after one idle window. Tokens are stored
// only as SHA-256 digests.
//
// Verification is one conditional store write (check window + renew), never a
// read followed by a write, so it is linearizable against the background
// sweep and against concurrent verifications of the same token.
package session
