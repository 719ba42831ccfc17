package account

import (
	"context"
	"strings"
	"time"
)

// Account is one row of the accounts table.
type Account struct {
	ID           string
	Username     string
	Email        string
	EmailNorm    string
	PasswordHash string
	Inactive     bool

	// Single-use tokens; nil once consumed.
	ActivationToken    *string
	PasswordResetToken *string

	// Image is an opaque avatar store reference.
	Image *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeEmail canonicalizes an email for lookups and the uniqueness
// constraint.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Tx is the registration transaction: the account insert and the activation
// mail commit or roll back together.
type Tx interface {
	CreateAccount(ctx context.Context, a Account) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the account persistence boundary.
//
// ConsumeActivationToken and ConsumePasswordResetToken are conditional
// single-row updates: consuming an absent or already-consumed token matches
// nothing and yields ErrInvalidToken, so a token can never be redeemed twice.
type Store interface {
	// Begin opens the registration transaction.
	Begin(ctx context.Context) (Tx, error)

	FindByID(ctx context.Context, id string) (Account, error)
	FindByEmail(ctx context.Context, emailNorm string) (Account, error)

	// List returns active accounts, paged, excluding excludeID (the caller's
	// own account), plus the total count of matching rows.
	List(ctx context.Context, page, size int, excludeID string) ([]Account, int64, error)

	// ConsumeActivationToken activates the matching account and clears the
	// token, returning the account id.
	ConsumeActivationToken(ctx context.Context, tok string, now time.Time) (string, error)

	// SetPasswordResetToken stores a fresh reset token on the account.
	SetPasswordResetToken(ctx context.Context, id, tok string, now time.Time) error

	// ConsumePasswordResetToken swaps in the new password hash, clears both
	// single-use tokens, forces the account active, and returns its id.
	ConsumePasswordResetToken(ctx context.Context, tok, passwordHash string, now time.Time) (string, error)

	// UpdateProfile replaces username and image reference.
	UpdateProfile(ctx context.Context, id, username string, image *string, now time.Time) (Account, error)

	// Delete removes the account row. Session tokens cascade with it.
	Delete(ctx context.Context, id string) error
}
