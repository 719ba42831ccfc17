package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memAccount(id, email string) Account {
	now := time.Now().UTC()
	return Account{
		ID: id, Username: "u-" + id,
		Email: email, EmailNorm: NormalizeEmail(email),
		PasswordHash: "x", Inactive: true,
		CreatedAt: now, UpdatedAt: now,
	}
}

func TestMemoryStoreTransaction(t *testing.T) {
	ctx := context.Background()

	t.Run("commit applies staged insert", func(t *testing.T) {
		s := NewMemoryStore()
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.CreateAccount(ctx, memAccount("a1", "a@mail.com")))

		// Not visible before commit.
		_, err = s.FindByID(ctx, "a1")
		assert.ErrorIs(t, err, ErrNotFound)

		require.NoError(t, tx.Commit(ctx))
		_, err = s.FindByID(ctx, "a1")
		assert.NoError(t, err)
	})

	t.Run("rollback discards staged insert", func(t *testing.T) {
		s := NewMemoryStore()
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.CreateAccount(ctx, memAccount("a1", "a@mail.com")))
		require.NoError(t, tx.Rollback(ctx))

		_, err = s.FindByID(ctx, "a1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("uniqueness is re-checked at commit", func(t *testing.T) {
		s := NewMemoryStore()

		tx1, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx1.CreateAccount(ctx, memAccount("a1", "a@mail.com")))

		// A second transaction wins the email first.
		tx2, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx2.CreateAccount(ctx, memAccount("a2", "A@mail.com")))
		require.NoError(t, tx2.Commit(ctx))

		assert.ErrorIs(t, tx1.Commit(ctx), ErrEmailTaken)
		_, err = s.FindByID(ctx, "a1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("finished transaction rejects further use", func(t *testing.T) {
		s := NewMemoryStore()
		tx, err := s.Begin(ctx)
		require.NoError(t, err)
		require.NoError(t, tx.Rollback(ctx))
		assert.Error(t, tx.CreateAccount(ctx, memAccount("a1", "a@mail.com")))
	})
}
