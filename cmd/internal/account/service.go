package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"passage/cmd/internal/avatar"
	"passage/cmd/internal/mail"
	"passage/cmd/internal/metrics"
	"passage/cmd/security/password"
	"passage/cmd/security/token"
)

const (
	activationTokenLength = 16
	resetTokenLength      = 16
)

// SessionRevoker terminates every live session for an account. Satisfied by
// the session service.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, accountID string) error
}

// RegisterInput describes a registration request.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// UpdateInput describes a profile update. A nil Image leaves the current
// avatar untouched.
type UpdateInput struct {
	Username string
	Image    []byte
}

// Page is one page of active accounts.
type Page struct {
	Content    []Account
	Page       int
	Size       int
	TotalPages int
}

// Service coordinates account lifecycle operations across the store, the
// mail boundary, and the session subsystem.
type Service struct {
	log      *slog.Logger
	store    Store
	mail     mail.Sender
	sessions SessionRevoker
	hashing  password.Params
	avatars  avatar.Store

	// dummyHash absorbs password verification time for unknown emails, so
	// login latency does not reveal whether an email is registered.
	dummyHash string
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithAvatarStore enables profile-image handling on Update and Delete.
func WithAvatarStore(st avatar.Store) Option {
	return func(s *Service) { s.avatars = st }
}

// NewService constructs the account service.
func NewService(log *slog.Logger, store Store, mailer mail.Sender, sessions SessionRevoker, hashing password.Params, opts ...Option) (*Service, error) {
	if store == nil || mailer == nil || sessions == nil {
		return nil, errors.New("account: store, mailer, and sessions are required")
	}
	if log == nil {
		log = slog.Default()
	}

	s := &Service{
		log:      log,
		store:    store,
		mail:     mailer,
		sessions: sessions,
		hashing:  hashing,
	}
	for _, opt := range opts {
		opt(s)
	}

	if h, err := password.Hash("dummy-password-for-timing-only", hashing); err == nil {
		s.dummyHash = h
	}

	return s, nil
}

// Register creates an inactive account and dispatches its activation email,
// atomically: the row is inserted inside a store transaction that commits
// only after the relay acknowledged the mail. A delivery failure rolls the
// insert back and surfaces as ErrEmailDelivery; afterwards no trace of the
// account remains.
func (s *Service) Register(ctx context.Context, now time.Time, in RegisterInput) error {
	hash, err := password.Hash(in.Password, s.hashing)
	if err != nil {
		return err
	}
	act, err := token.NewAlphanumeric(activationTokenLength)
	if err != nil {
		return err
	}

	a := Account{
		ID:              ulid.Make().String(),
		Username:        in.Username,
		Email:           in.Email,
		EmailNorm:       NormalizeEmail(in.Email),
		PasswordHash:    hash,
		Inactive:        true,
		ActivationToken: &act,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return err
	}

	if err := tx.CreateAccount(ctx, a); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := s.mail.SendActivation(ctx, a.Email, act); err != nil {
		_ = tx.Rollback(ctx)
		metrics.MailFailures.Inc()
		s.log.Error("account.register.mail.fail", "err", err)
		return ErrEmailDelivery
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	metrics.Registrations.Inc()
	s.log.Info("account.registered", "account_id", a.ID)
	return nil
}

// Activate consumes an activation token. A token that was never issued, or
// was already consumed, yields ErrInvalidToken; re-activation never silently
// succeeds.
func (s *Service) Activate(ctx context.Context, now time.Time, tok string) error {
	if tok == "" {
		return ErrInvalidToken
	}
	id, err := s.store.ConsumeActivationToken(ctx, tok, now)
	if err != nil {
		return err
	}
	s.log.Info("account.activated", "account_id", id)
	return nil
}

// RequestPasswordReset stores a fresh single-use reset token and mails it.
// The token write is deliberately not coupled to dispatch: if the mail fails
// the token stays behind, and the user simply requests again.
func (s *Service) RequestPasswordReset(ctx context.Context, now time.Time, email string) error {
	a, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}

	tok, err := token.NewAlphanumeric(resetTokenLength)
	if err != nil {
		return err
	}
	if err := s.store.SetPasswordResetToken(ctx, a.ID, tok, now); err != nil {
		return err
	}

	if err := s.mail.SendPasswordReset(ctx, a.Email, tok); err != nil {
		metrics.MailFailures.Inc()
		s.log.Error("account.reset.mail.fail", "err", err)
		return ErrEmailDelivery
	}
	return nil
}

// CompletePasswordReset consumes a reset token: the password is re-hashed,
// both single-use tokens are cleared, the account is forced active, and
// every existing session dies. A password change is a security boundary; no
// pre-change session may survive it.
func (s *Service) CompletePasswordReset(ctx context.Context, now time.Time, resetToken, newPassword string) error {
	if resetToken == "" {
		return ErrInvalidToken
	}

	hash, err := password.Hash(newPassword, s.hashing)
	if err != nil {
		return err
	}

	id, err := s.store.ConsumePasswordResetToken(ctx, resetToken, hash, now)
	if err != nil {
		return err
	}

	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}

	s.log.Info("account.password_reset", "account_id", id)
	return nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password both return ErrAuthFailed; a correct pair on a not-yet-activated
// account returns ErrInactive.
func (s *Service) Authenticate(ctx context.Context, email, plainPassword string) (Account, error) {
	a, err := s.store.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, ErrNotFound) {
		// Burn comparable time so that the miss is not observable.
		if s.dummyHash != "" {
			_, _ = password.Verify(s.dummyHash, plainPassword)
		}
		return Account{}, ErrAuthFailed
	}
	if err != nil {
		return Account{}, err
	}

	ok, err := password.Verify(a.PasswordHash, plainPassword)
	if err != nil || !ok {
		return Account{}, ErrAuthFailed
	}
	if a.Inactive {
		return Account{}, ErrInactive
	}
	return a, nil
}

// Get returns an active account by id; inactive accounts are invisible.
func (s *Service) Get(ctx context.Context, id string) (Account, error) {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if a.Inactive {
		return Account{}, ErrNotFound
	}
	return a, nil
}

// List returns one page of active accounts, excluding the caller's own.
func (s *Service) List(ctx context.Context, page, size int, excludeID string) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 10
	}
	if size > 100 {
		size = 100
	}

	rows, total, err := s.store.List(ctx, page, size, excludeID)
	if err != nil {
		return Page{}, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return Page{Content: rows, Page: page, Size: size, TotalPages: totalPages}, nil
}

// Update replaces the username and, when an image is supplied, the stored
// avatar. The previous avatar is removed best-effort after the row update.
func (s *Service) Update(ctx context.Context, now time.Time, id string, in UpdateInput) (Account, error) {
	prev, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Account{}, err
	}

	image := prev.Image
	if len(in.Image) > 0 && s.avatars != nil {
		ref, err := s.avatars.Save(ctx, in.Image)
		if err != nil {
			return Account{}, err
		}
		image = &ref
	}

	updated, err := s.store.UpdateProfile(ctx, id, in.Username, image, now)
	if err != nil {
		return Account{}, err
	}

	if prev.Image != nil && image != prev.Image && s.avatars != nil {
		if err := s.avatars.Delete(ctx, *prev.Image); err != nil {
			s.log.Warn("account.avatar.delete.fail", "err", err)
		}
	}
	return updated, nil
}

// Delete removes the account, its avatar, and every session bound to it in
// the same logical operation, so no token can outlive its owner.
func (s *Service) Delete(ctx context.Context, id string) error {
	a, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.sessions.RevokeAll(ctx, id); err != nil {
		return err
	}

	if a.Image != nil && s.avatars != nil {
		if err := s.avatars.Delete(ctx, *a.Image); err != nil {
			s.log.Warn("account.avatar.delete.fail", "err", err)
		}
	}

	s.log.Info("account.deleted", "account_id", id)
	return nil
}
