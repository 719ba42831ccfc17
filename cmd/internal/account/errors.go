package account

import "errors"

// Sentinel error kinds. Business-rule failures are mapped to these at the
// service boundary; store and network failures propagate unmodified.
var (
	// ErrInvalidToken is returned when an activation or reset token is
	// absent or already consumed. The caller must restart the flow.
	ErrInvalidToken = errors.New("invalid account token")

	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrEmailTaken is returned when registration hits the email
	// uniqueness constraint.
	ErrEmailTaken = errors.New("email already in use")

	// ErrEmailDelivery is returned when an outbound mail was not
	// acknowledged. During registration it implies a full rollback.
	ErrEmailDelivery = errors.New("email delivery failed")

	// ErrAuthFailed is returned for a bad email/password pair. Unknown
	// email and wrong password are indistinguishable.
	ErrAuthFailed = errors.New("authentication failed")

	// ErrInactive is returned when the credentials are correct but the
	// account has not been activated yet.
	ErrInactive = errors.New("account inactive")
)
