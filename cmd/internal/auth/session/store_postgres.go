package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements Store using PostgreSQL (session_tokens).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed session token store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Insert persists a new token row.
func (s *PostgresStore) Insert(ctx context.Context, rec Record) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO session_tokens (token_hash, account_id, last_used_at)
		VALUES ($1, $2, $3)
	`, rec.TokenHash, rec.AccountID, rec.LastUsedAt)
	return err
}

// VerifyAndTouch renews last_used_at with a single conditional UPDATE. A row
// already deleted by the sweep, or idle past cutoff, matches nothing and is
// reported as ErrInvalidToken.
func (s *PostgresStore) VerifyAndTouch(ctx context.Context, tokenHash string, now, cutoff time.Time) (string, error) {
	var accountID string
	err := s.pool.QueryRow(ctx, `
		UPDATE session_tokens
		SET last_used_at = $2
		WHERE token_hash = $1 AND last_used_at > $3
		RETURNING account_id
	`, tokenHash, now, cutoff).Scan(&accountID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return accountID, nil
}

// Delete removes a single token (idempotent).
func (s *PostgresStore) Delete(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM session_tokens WHERE token_hash = $1
	`, tokenHash)
	return err
}

// DeleteByAccount removes every token bound to the account.
func (s *PostgresStore) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := s.pool.Exec(ctx, `
		DELETE FROM session_tokens WHERE account_id = $1
	`, accountID)
	return err
}

// DeleteStale removes every token last used before cutoff.
func (s *PostgresStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM session_tokens WHERE last_used_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
