package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_VerifyAndTouch(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	t0 := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, Record{TokenHash: "h1", AccountID: "a1", LastUsedAt: t0}))

	// Inside the window: renewed.
	now := t0.Add(time.Hour)
	id, err := s.VerifyAndTouch(ctx, "h1", now, t0.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "a1", id)

	// Cutoff after the renewed last_used_at: rejected, and the rejection
	// must not touch the record.
	_, err = s.VerifyAndTouch(ctx, "h1", now.Add(time.Hour), now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrInvalidToken)

	id, err = s.VerifyAndTouch(ctx, "h1", now, now.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "a1", id)
}

func TestMemoryStore_DeleteStale(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	t0 := time.Now().UTC()

	require.NoError(t, s.Insert(ctx, Record{TokenHash: "old", AccountID: "a", LastUsedAt: t0.Add(-8 * 24 * time.Hour)}))
	require.NoError(t, s.Insert(ctx, Record{TokenHash: "fresh", AccountID: "a", LastUsedAt: t0}))

	n, err := s.DeleteStale(ctx, t0.Add(-7*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, 1, s.Len())

	_, err = s.VerifyAndTouch(ctx, "old", t0, t0.Add(-9*24*time.Hour))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// A verification racing a sweep must end in exactly one of two states: the
// token was renewed and survives, or it was deleted and the verification
// failed. It can never be both deleted and observed as valid.
func TestMemoryStore_VerifyVsSweepRace(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 200; i++ {
		s := NewMemoryStore()
		t0 := time.Now().UTC()
		stale := t0.Add(-7*24*time.Hour + time.Millisecond)
		require.NoError(t, s.Insert(ctx, Record{TokenHash: "h", AccountID: "a", LastUsedAt: stale}))

		var wg sync.WaitGroup
		var verifyErr error
		var swept int64

		wg.Add(2)
		go func() {
			defer wg.Done()
			_, verifyErr = s.VerifyAndTouch(ctx, "h", t0, t0.Add(-7*24*time.Hour))
		}()
		go func() {
			defer wg.Done()
			// The sweep's horizon is just past the record's last use, so
			// whichever operation wins the lock decides the outcome.
			swept, _ = s.DeleteStale(ctx, stale.Add(time.Millisecond))
		}()
		wg.Wait()

		if verifyErr == nil {
			// Renewal won: the record is fresh and the sweep saw nothing.
			assert.Equal(t, int64(0), swept)
			assert.Equal(t, 1, s.Len())
		} else {
			// Sweep won: the record is gone and verification failed.
			assert.ErrorIs(t, verifyErr, ErrInvalidToken)
			assert.Equal(t, int64(1), swept)
			assert.Equal(t, 0, s.Len())
		}
	}
}
