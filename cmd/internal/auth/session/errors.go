package session

import "errors"

var (
	// ErrInvalidToken is returned when a presented token does not resolve to
	// a live session. Absent and expired tokens are deliberately
	// indistinguishable: callers treat both as "unauthenticated".
	ErrInvalidToken = errors.New("invalid session token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid session config")
)
