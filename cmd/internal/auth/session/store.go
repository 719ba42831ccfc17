package session

import (
	"context"
	"time"
)

// Record mirrors one row of the session_tokens table.
type Record struct {
	TokenHash  string
	AccountID  string
	LastUsedAt time.Time
}

// Store abstracts persistence for session tokens.
//
// VerifyAndTouch is the linearization point of the whole subsystem: the
// window check and the last_used_at renewal must be a single atomic store
// operation, so that neither a concurrent sweep nor a second verification of
// the same token can observe a half-applied renewal.
type Store interface {
	// Insert persists a freshly issued token record.
	Insert(ctx context.Context, rec Record) error

	// VerifyAndTouch renews last_used_at to now for the token identified by
	// tokenHash, if and only if its current last_used_at is after cutoff.
	// Returns the bound account id, or ErrInvalidToken when no row matched.
	VerifyAndTouch(ctx context.Context, tokenHash string, now, cutoff time.Time) (string, error)

	// Delete removes a single token. Deleting an absent token is not an
	// error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByAccount removes every token bound to the account.
	DeleteByAccount(ctx context.Context, accountID string) error

	// DeleteStale removes every token last used before cutoff, as one
	// bounded batch, and reports how many rows went away.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}
