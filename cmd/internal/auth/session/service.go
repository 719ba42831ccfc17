package session

import (
	"context"
	"errors"
	"time"

	"passage/cmd/internal/metrics"
	"passage/cmd/security/token"
)

// Service implements the high-level session operations for Passage.
//
// It mints opaque bearer tokens on login, resolves presented tokens to an
// account id (renewing the sliding window on every hit), and revokes tokens
// one at a time or per account.
type Service struct {
	cfg   Config
	store Store
}

// NewService constructs a Service with the provided configuration and store.
func NewService(cfg Config, store Store) (*Service, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if store == nil {
		return nil, ErrConfig
	}
	return &Service{cfg: cfg, store: store}, nil
}

// Issue mints a fresh token bound to accountID and persists it with
// last_used_at = now. The returned plain token is shown to the client exactly
// once; only its hash is stored. Store errors propagate unmodified.
func (s *Service) Issue(ctx context.Context, now time.Time, accountID string) (string, error) {
	plain, err := token.NewAlphanumeric(s.cfg.TokenLength)
	if err != nil {
		return "", err
	}

	rec := Record{
		TokenHash:  token.HashSHA256Hex(plain),
		AccountID:  accountID,
		LastUsedAt: now,
	}
	if err := s.store.Insert(ctx, rec); err != nil {
		return "", err
	}

	metrics.TokensIssued.Inc()
	return plain, nil
}

// Verify resolves plain to the owning account id. On success the token's
// last_used_at is renewed to now, extending the session by one full window.
// Absent tokens and tokens idle past the window both yield ErrInvalidToken;
// callers must not be able to tell the two apart.
func (s *Service) Verify(ctx context.Context, now time.Time, plain string) (string, error) {
	if plain == "" || len(plain) > 4096 {
		metrics.VerifyRejected.Inc()
		return "", ErrInvalidToken
	}

	cutoff := now.Add(-s.cfg.Window)
	accountID, err := s.store.VerifyAndTouch(ctx, token.HashSHA256Hex(plain), now, cutoff)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			metrics.VerifyRejected.Inc()
		}
		return "", err
	}
	return accountID, nil
}

// Revoke deletes the single matching token (logout). Idempotent.
func (s *Service) Revoke(ctx context.Context, plain string) error {
	if plain == "" {
		return nil
	}
	return s.store.Delete(ctx, token.HashSHA256Hex(plain))
}

// RevokeAll deletes every token bound to accountID. Called whenever an
// account's password changes, so no pre-change session survives.
func (s *Service) RevokeAll(ctx context.Context, accountID string) error {
	return s.store.DeleteByAccount(ctx, accountID)
}

// Window reports the configured sliding-expiration window.
func (s *Service) Window() time.Duration { return s.cfg.Window }
