package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"passage/cmd/internal/auth/session"
	"passage/cmd/security/password"
)

// fakeMailer records dispatches and fails on demand.
type fakeMailer struct {
	failNext    bool
	activations []string // "to:token"
	resets      []string
}

func (m *fakeMailer) SendActivation(_ context.Context, to, tok string) error {
	if m.failNext {
		return errors.New("relay refused")
	}
	m.activations = append(m.activations, to+":"+tok)
	return nil
}

func (m *fakeMailer) SendPasswordReset(_ context.Context, to, tok string) error {
	if m.failNext {
		return errors.New("relay refused")
	}
	m.resets = append(m.resets, to+":"+tok)
	return nil
}

func fastParams() password.Params {
	return password.Params{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

type fixture struct {
	svc      *Service
	store    *MemoryStore
	mailer   *fakeMailer
	sessions *session.Service
	tokens   *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := NewMemoryStore()
	mailer := &fakeMailer{}
	tokens := session.NewMemoryStore()
	sessions, err := session.NewService(session.DefaultConfig(), tokens)
	require.NoError(t, err)

	svc, err := NewService(nil, store, mailer, sessions, fastParams())
	require.NoError(t, err)
	return &fixture{svc: svc, store: store, mailer: mailer, sessions: sessions, tokens: tokens}
}

func (f *fixture) register(t *testing.T, email string) Account {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.Register(ctx, time.Now().UTC(), RegisterInput{
		Username: "user1", Email: email, Password: "P4ssword!",
	}))
	a, err := f.store.FindByEmail(ctx, NormalizeEmail(email))
	require.NoError(t, err)
	return a
}

func TestRegister_PersistsInactiveAccountWithActivationToken(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")

	assert.True(t, a.Inactive)
	require.NotNil(t, a.ActivationToken)
	assert.Len(t, *a.ActivationToken, 16)
	assert.NotEqual(t, "P4ssword!", a.PasswordHash)

	require.Len(t, f.mailer.activations, 1)
	assert.Equal(t, "user1@mail.com:"+*a.ActivationToken, f.mailer.activations[0])
}

func TestRegister_RollsBackWhenMailFails(t *testing.T) {
	f := newFixture(t)
	f.mailer.failNext = true

	err := f.svc.Register(context.Background(), time.Now().UTC(), RegisterInput{
		Username: "user1", Email: "user1@mail.com", Password: "P4ssword!",
	})
	assert.ErrorIs(t, err, ErrEmailDelivery)

	// Full rollback: the account must not exist afterwards.
	_, err = f.store.FindByEmail(context.Background(), "user1@mail.com")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRegister_RejectsDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.register(t, "user1@mail.com")

	err := f.svc.Register(context.Background(), time.Now().UTC(), RegisterInput{
		Username: "someone-else", Email: "USER1@mail.com", Password: "P4ssword!",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
	// The failed attempt must not have sent mail.
	assert.Len(t, f.mailer.activations, 1)
}

func TestActivate_ConsumesTokenExactlyOnce(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")
	tok := *a.ActivationToken
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.svc.Activate(ctx, now, tok))

	got, err := f.store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Inactive)
	assert.Nil(t, got.ActivationToken)

	// Second attempt with the consumed token fails, never silently succeeds.
	assert.ErrorIs(t, f.svc.Activate(ctx, now, tok), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.Activate(ctx, now, "never-issued"), ErrInvalidToken)
	assert.ErrorIs(t, f.svc.Activate(ctx, now, ""), ErrInvalidToken)
}

func TestRequestPasswordReset(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")
	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("unknown email", func(t *testing.T) {
		err := f.svc.RequestPasswordReset(ctx, now, "nobody@mail.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("success stores token and mails it", func(t *testing.T) {
		require.NoError(t, f.svc.RequestPasswordReset(ctx, now, "user1@mail.com"))

		got, err := f.store.FindByID(ctx, a.ID)
		require.NoError(t, err)
		require.NotNil(t, got.PasswordResetToken)
		require.Len(t, f.mailer.resets, 1)
		assert.Equal(t, "user1@mail.com:"+*got.PasswordResetToken, f.mailer.resets[0])
	})

	t.Run("mail failure leaves the token behind", func(t *testing.T) {
		f.mailer.failNext = true
		err := f.svc.RequestPasswordReset(ctx, now, "user1@mail.com")
		assert.ErrorIs(t, err, ErrEmailDelivery)

		got, err := f.store.FindByID(ctx, a.ID)
		require.NoError(t, err)
		// Not transactional by design: the user can simply re-request.
		assert.NotNil(t, got.PasswordResetToken)
	})
}

func TestCompletePasswordReset_RevokesEverySession(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.svc.Activate(ctx, now, *a.ActivationToken))
	require.NoError(t, f.svc.RequestPasswordReset(ctx, now, "user1@mail.com"))

	// Two live sessions before the reset.
	tok1, err := f.sessions.Issue(ctx, now, a.ID)
	require.NoError(t, err)
	tok2, err := f.sessions.Issue(ctx, now, a.ID)
	require.NoError(t, err)

	got, err := f.store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	reset := *got.PasswordResetToken

	require.NoError(t, f.svc.CompletePasswordReset(ctx, now, reset, "N3wPassword!"))

	_, err = f.sessions.Verify(ctx, now, tok1)
	assert.ErrorIs(t, err, session.ErrInvalidToken)
	_, err = f.sessions.Verify(ctx, now, tok2)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	// New password works, old one does not, account is active, tokens gone.
	got, err = f.store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Inactive)
	assert.Nil(t, got.PasswordResetToken)
	assert.Nil(t, got.ActivationToken)

	_, err = f.svc.Authenticate(ctx, "user1@mail.com", "N3wPassword!")
	assert.NoError(t, err)
	_, err = f.svc.Authenticate(ctx, "user1@mail.com", "P4ssword!")
	assert.ErrorIs(t, err, ErrAuthFailed)

	// The consumed reset token is dead.
	assert.ErrorIs(t, f.svc.CompletePasswordReset(ctx, now, reset, "anything"), ErrInvalidToken)
}

func TestCompletePasswordReset_ForcesActivation(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")
	ctx := context.Background()
	now := time.Now().UTC()

	// Account never activated; a completed reset proves mailbox ownership.
	require.NoError(t, f.svc.RequestPasswordReset(ctx, now, "user1@mail.com"))
	got, err := f.store.FindByID(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.CompletePasswordReset(ctx, now, *got.PasswordResetToken, "N3wPassword!"))

	got, err = f.store.FindByID(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Inactive)
	assert.Nil(t, got.ActivationToken)
}

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")
	ctx := context.Background()
	now := time.Now().UTC()

	// Inactive account: correct credentials still refused.
	_, err := f.svc.Authenticate(ctx, "user1@mail.com", "P4ssword!")
	assert.ErrorIs(t, err, ErrInactive)

	require.NoError(t, f.svc.Activate(ctx, now, *a.ActivationToken))

	got, err := f.svc.Authenticate(ctx, "user1@mail.com", "P4ssword!")
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	_, err = f.svc.Authenticate(ctx, "user1@mail.com", "wrong")
	assert.ErrorIs(t, err, ErrAuthFailed)
	_, err = f.svc.Authenticate(ctx, "nobody@mail.com", "P4ssword!")
	assert.ErrorIs(t, err, ErrAuthFailed)
}

func TestGetAndList_HideInactiveAccounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := f.register(t, "user1@mail.com")
	b := f.register(t, "user2@mail.com")
	require.NoError(t, f.svc.Activate(ctx, now, *b.ActivationToken))

	_, err := f.svc.Get(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := f.svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "user2@mail.com", got.Email)

	page, err := f.svc.List(ctx, 0, 10, "")
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, b.ID, page.Content[0].ID)
	assert.Equal(t, 1, page.TotalPages)

	// The caller's own account is excluded.
	page, err = f.svc.List(ctx, 0, 10, b.ID)
	require.NoError(t, err)
	assert.Empty(t, page.Content)
}

func TestDelete_RemovesAccountAndSessions(t *testing.T) {
	f := newFixture(t)
	a := f.register(t, "user1@mail.com")
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, f.svc.Activate(ctx, now, *a.ActivationToken))
	tok, err := f.sessions.Issue(ctx, now, a.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, a.ID))

	_, err = f.store.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	// No orphaned token may resolve to the deleted account.
	_, err = f.sessions.Verify(ctx, now, tok)
	assert.ErrorIs(t, err, session.ErrInvalidToken)

	assert.ErrorIs(t, f.svc.Delete(ctx, a.ID), ErrNotFound)
}
