package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AccountRepository is the user store the verification flow runs against.
// The flow mutates EmailVerified only as a side effect of a successful token
// redemption, and Username only through an explicit claim.
type AccountRepository interface {
	GetStatus(ctx context.Context, accountID uuid.UUID) (*Status, error)
	GetByEmail(ctx context.Context, email string) (*Account, error)
	MarkEmailVerified(ctx context.Context, email string) error
	SetUsername(ctx context.Context, accountID uuid.UUID, username string) error
	SetPassword(ctx context.Context, email string, passwordHash string) error
}

// PostgresAccountRepository implements AccountRepository on a pgx pool.
type PostgresAccountRepository struct {
	db *pgxpool.Pool
}

// NewPostgresAccountRepository creates a new Postgres-backed account repository.
func NewPostgresAccountRepository(db *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{db: db}
}

// GetStatus returns the verification status slice of an account.
func (r *PostgresAccountRepository) GetStatus(ctx context.Context, accountID uuid.UUID) (*Status, error) {
	query := `
		SELECT id, email, email_verified, username IS NOT NULL AND username <> ''
		FROM accounts
		WHERE id = $1
		AND deleted_at IS NULL
	`

	var status Status
	err := r.db.QueryRow(ctx, query, accountID).Scan(
		&status.ID,
		&status.Email,
		&status.EmailVerified,
		&status.HasUsername,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &status, nil
}

// GetByEmail retrieves an account by email.
func (r *PostgresAccountRepository) GetByEmail(ctx context.Context, email string) (*Account, error) {
	query := `
		SELECT id, email, COALESCE(username, ''), email_verified, email_verified_at, created_at, last_modified_at
		FROM accounts
		WHERE email = $1
		AND deleted_at IS NULL
	`

	var a Account
	err := r.db.QueryRow(ctx, query, email).Scan(
		&a.ID,
		&a.Email,
		&a.Username,
		&a.EmailVerified,
		&a.EmailVerifiedAt,
		&a.CreatedAt,
		&a.LastModifiedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	return &a, nil
}

// MarkEmailVerified sets the email-verified flag for the account owning the
// address. No-op timestamps are avoided: an already-verified account keeps
// its original verified-at.
func (r *PostgresAccountRepository) MarkEmailVerified(ctx context.Context, email string) error {
	query := `
		UPDATE accounts
		SET email_verified = TRUE,
		    email_verified_at = COALESCE(email_verified_at, $2),
		    last_modified_at = $2
		WHERE email = $1
		AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, email, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetUsername assigns a username to the account. Uniqueness rides on the
// accounts.username unique index.
func (r *PostgresAccountRepository) SetUsername(ctx context.Context, accountID uuid.UUID, username string) error {
	query := `
		UPDATE accounts
		SET username = $2,
		    last_modified_at = $3
		WHERE id = $1
		AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, accountID, username, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrUsernameTaken
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}

// SetPassword replaces the account's password hash.
func (r *PostgresAccountRepository) SetPassword(ctx context.Context, email string, passwordHash string) error {
	query := `
		UPDATE accounts
		SET password = $2,
		    last_modified_at = $3
		WHERE email = $1
		AND deleted_at IS NULL
	`

	tag, err := r.db.Exec(ctx, query, email, []byte(passwordHash), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to set password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}

	return nil
}
