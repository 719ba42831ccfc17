package account

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const accountColumns = `
	id, username, email, email_norm, password_hash, inactive,
	activation_token, password_reset_token, image, created_at, updated_at
`

// PostgresStore implements Store using PostgreSQL (accounts).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed account store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Begin opens the registration transaction.
func (s *PostgresStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) CreateAccount(ctx context.Context, a Account) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO accounts (`+accountColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.Username, a.Email, a.EmailNorm, a.PasswordHash, a.Inactive,
		a.ActivationToken, a.PasswordResetToken, a.Image, a.CreatedAt, a.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// FindByID loads one account row by id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
}

// FindByEmail loads one account row by normalized email.
func (s *PostgresStore) FindByEmail(ctx context.Context, emailNorm string) (Account, error) {
	return s.findOne(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email_norm = $1`, emailNorm)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&a.ID, &a.Username, &a.Email, &a.EmailNorm, &a.PasswordHash, &a.Inactive,
		&a.ActivationToken, &a.PasswordResetToken, &a.Image, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// List returns one page of active accounts plus the total count.
func (s *PostgresStore) List(ctx context.Context, page, size int, excludeID string) ([]Account, int64, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM accounts WHERE inactive = FALSE AND id <> $1
	`, excludeID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+accountColumns+`
		FROM accounts
		WHERE inactive = FALSE AND id <> $1
		ORDER BY created_at, id
		LIMIT $2 OFFSET $3
	`, excludeID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(
			&a.ID, &a.Username, &a.Email, &a.EmailNorm, &a.PasswordHash, &a.Inactive,
			&a.ActivationToken, &a.PasswordResetToken, &a.Image, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}

// ConsumeActivationToken activates the matching account with one conditional
// update; a consumed token matches nothing.
func (s *PostgresStore) ConsumeActivationToken(ctx context.Context, tok string, now time.Time) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		UPDATE accounts
		SET inactive = FALSE, activation_token = NULL, updated_at = $2
		WHERE activation_token = $1
		RETURNING id
	`, tok, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// SetPasswordResetToken stores a fresh reset token on the account.
func (s *PostgresStore) SetPasswordResetToken(ctx context.Context, id, tok string, now time.Time) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE accounts SET password_reset_token = $2, updated_at = $3 WHERE id = $1
	`, id, tok, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumePasswordResetToken completes a reset with one conditional update.
func (s *PostgresStore) ConsumePasswordResetToken(ctx context.Context, tok, passwordHash string, now time.Time) (string, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		UPDATE accounts
		SET password_hash = $2,
		    password_reset_token = NULL,
		    activation_token = NULL,
		    inactive = FALSE,
		    updated_at = $3
		WHERE password_reset_token = $1
		RETURNING id
	`, tok, passwordHash, now).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrInvalidToken
	}
	if err != nil {
		return "", err
	}
	return id, nil
}

// UpdateProfile replaces username and image reference.
func (s *PostgresStore) UpdateProfile(ctx context.Context, id, username string, image *string, now time.Time) (Account, error) {
	var a Account
	err := s.pool.QueryRow(ctx, `
		UPDATE accounts
		SET username = $2, image = $3, updated_at = $4
		WHERE id = $1
		RETURNING `+accountColumns+`
	`, id, username, image, now).Scan(
		&a.ID, &a.Username, &a.Email, &a.EmailNorm, &a.PasswordHash, &a.Inactive,
		&a.ActivationToken, &a.PasswordResetToken, &a.Image, &a.CreatedAt, &a.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

// Delete removes the account row; session tokens go with it via the foreign
// key cascade.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
