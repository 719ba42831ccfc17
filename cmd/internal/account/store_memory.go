package account

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// MemoryStore is the in-memory Store used when no database is configured and
// by tests. Registration transactions stage their insert and apply it on
// Commit, re-checking the email uniqueness constraint at that point.
type MemoryStore struct {
	mu   sync.Mutex
	byID map[string]Account
}

// NewMemoryStore constructs an empty in-memory account store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]Account)}
}

// Begin opens a staged registration transaction.
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &memTx{store: s}, nil
}

type memTx struct {
	store   *MemoryStore
	pending []Account
	done    bool
}

func (t *memTx) CreateAccount(ctx context.Context, a Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.done {
		return errors.New("account: transaction already finished")
	}

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.emailTakenLocked(a.EmailNorm) {
		return ErrEmailTaken
	}
	for _, p := range t.pending {
		if p.EmailNorm == a.EmailNorm {
			return ErrEmailTaken
		}
	}

	t.pending = append(t.pending, a)
	return nil
}

func (t *memTx) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if t.done {
		return errors.New("account: transaction already finished")
	}
	t.done = true

	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, a := range t.pending {
		if t.store.emailTakenLocked(a.EmailNorm) {
			return ErrEmailTaken
		}
	}
	for _, a := range t.pending {
		t.store.byID[a.ID] = a
	}
	return nil
}

func (t *memTx) Rollback(_ context.Context) error {
	t.done = true
	t.pending = nil
	return nil
}

func (s *MemoryStore) emailTakenLocked(emailNorm string) bool {
	for _, a := range s.byID {
		if a.EmailNorm == emailNorm {
			return true
		}
	}
	return false
}

// FindByID loads one account by id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// FindByEmail loads one account by normalized email.
func (s *MemoryStore) FindByEmail(ctx context.Context, emailNorm string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.byID {
		if a.EmailNorm == emailNorm {
			return a, nil
		}
	}
	return Account{}, ErrNotFound
}

// List returns one page of active accounts plus the total count.
func (s *MemoryStore) List(ctx context.Context, page, size int, excludeID string) ([]Account, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.Lock()
	var all []Account
	for _, a := range s.byID {
		if !a.Inactive && a.ID != excludeID {
			all = append(all, a)
		}
	}
	s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.Before(all[j].CreatedAt)
		}
		return all[i].ID < all[j].ID
	})

	total := int64(len(all))
	start := page * size
	if start >= len(all) {
		return nil, total, nil
	}
	end := start + size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

// ConsumeActivationToken activates the matching account and clears the token.
func (s *MemoryStore) ConsumeActivationToken(ctx context.Context, tok string, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.byID {
		if a.ActivationToken != nil && *a.ActivationToken == tok {
			a.Inactive = false
			a.ActivationToken = nil
			a.UpdatedAt = now
			s.byID[id] = a
			return id, nil
		}
	}
	return "", ErrInvalidToken
}

// SetPasswordResetToken stores a fresh reset token on the account.
func (s *MemoryStore) SetPasswordResetToken(ctx context.Context, id, tok string, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordResetToken = &tok
	a.UpdatedAt = now
	s.byID[id] = a
	return nil
}

// ConsumePasswordResetToken completes a reset against the matching account.
func (s *MemoryStore) ConsumePasswordResetToken(ctx context.Context, tok, passwordHash string, now time.Time) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, a := range s.byID {
		if a.PasswordResetToken != nil && *a.PasswordResetToken == tok {
			a.PasswordHash = passwordHash
			a.PasswordResetToken = nil
			a.ActivationToken = nil
			a.Inactive = false
			a.UpdatedAt = now
			s.byID[id] = a
			return id, nil
		}
	}
	return "", ErrInvalidToken
}

// UpdateProfile replaces username and image reference.
func (s *MemoryStore) UpdateProfile(ctx context.Context, id, username string, image *string, now time.Time) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	a.Username = username
	a.Image = image
	a.UpdatedAt = now
	s.byID[id] = a
	return a, nil
}

// Delete removes the account row.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return nil
}
