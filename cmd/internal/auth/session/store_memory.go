package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used when no database is configured and
// by tests. A single mutex gives it the same atomicity contract as the
// Postgres conditional update.
type MemoryStore struct {
	mu     sync.Mutex
	byHash map[string]Record
}

// NewMemoryStore constructs an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byHash: make(map[string]Record)}
}

// Insert persists a new token record.
func (s *MemoryStore) Insert(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHash[rec.TokenHash] = rec
	return nil
}

// VerifyAndTouch checks the window and renews last_used_at under one lock.
func (s *MemoryStore) VerifyAndTouch(ctx context.Context, tokenHash string, now, cutoff time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byHash[tokenHash]
	if !ok || !rec.LastUsedAt.After(cutoff) {
		return "", ErrInvalidToken
	}

	rec.LastUsedAt = now
	s.byHash[tokenHash] = rec
	return rec.AccountID, nil
}

// Delete removes a single token (idempotent).
func (s *MemoryStore) Delete(ctx context.Context, tokenHash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byHash, tokenHash)
	return nil
}

// DeleteByAccount removes every token bound to the account.
func (s *MemoryStore) DeleteByAccount(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for h, rec := range s.byHash {
		if rec.AccountID == accountID {
			delete(s.byHash, h)
		}
	}
	return nil
}

// DeleteStale removes every token last used before cutoff.
func (s *MemoryStore) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for h, rec := range s.byHash {
		if rec.LastUsedAt.Before(cutoff) {
			delete(s.byHash, h)
			n++
		}
	}
	return n, nil
}

// Len reports the number of live records. Test helper.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byHash)
}
