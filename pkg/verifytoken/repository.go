package verifytoken

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenRepository is the store abstraction the token service runs against.
// Implementations must guarantee two things:
//
//   - CreateToken leaves at most one live token per (subject_email, kind):
//     outstanding non-used tokens are marked used in the same transaction
//     (or under the same lock) as the insert.
//   - RedeemByHash is an atomic find-and-mark-used. Two concurrent calls
//     with the same hash see exactly one success.
type TokenRepository interface {
	CreateToken(ctx context.Context, token VerificationToken) (*VerificationToken, error)
	RedeemByHash(ctx context.Context, tokenHash string, kind TokenKind, now time.Time) (*VerificationToken, error)
	InvalidateBySubject(ctx context.Context, subjectEmail string, kind TokenKind, now time.Time) error
	CountCreatedSince(ctx context.Context, subjectEmail string, kind TokenKind, since time.Time) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// PostgresTokenRepository implements TokenRepository on a pgx pool.
type PostgresTokenRepository struct {
	db *pgxpool.Pool
}

// NewPostgresTokenRepository creates a new Postgres-backed token repository.
func NewPostgresTokenRepository(db *pgxpool.Pool) *PostgresTokenRepository {
	return &PostgresTokenRepository{db: db}
}

// CreateToken invalidates every outstanding token for the same subject and
// kind, then inserts the new record. Both statements run in one transaction
// so no two tokens for the same subject are simultaneously live.
func (r *PostgresTokenRepository) CreateToken(ctx context.Context, token VerificationToken) (*VerificationToken, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	invalidate := `
		UPDATE verification_tokens
		SET used_at = $3
		WHERE subject_email = $1
		AND kind = $2
		AND used_at IS NULL
	`
	if _, err := tx.Exec(ctx, invalidate, token.SubjectEmail, token.Kind, token.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to invalidate prior tokens: %w", err)
	}

	insert := `
		INSERT INTO verification_tokens (token_hash, subject_email, kind, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, token_hash, subject_email, kind, created_at, expires_at, used_at
	`

	var vt VerificationToken
	err = tx.QueryRow(ctx, insert,
		token.TokenHash,
		token.SubjectEmail,
		token.Kind,
		token.CreatedAt,
		token.ExpiresAt,
	).Scan(
		&vt.ID,
		&vt.TokenHash,
		&vt.SubjectEmail,
		&vt.Kind,
		&vt.CreatedAt,
		&vt.ExpiresAt,
		&vt.UsedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &vt, nil
}

// RedeemByHash marks the matching live token used and returns it. The single
// UPDATE carries the whole redeemable predicate, so concurrent redeemers
// race on the row lock and only one sees a matching row.
func (r *PostgresTokenRepository) RedeemByHash(ctx context.Context, tokenHash string, kind TokenKind, now time.Time) (*VerificationToken, error) {
	query := `
		UPDATE verification_tokens
		SET used_at = $3
		WHERE token_hash = $1
		AND kind = $2
		AND used_at IS NULL
		AND expires_at > $3
		RETURNING id, token_hash, subject_email, kind, created_at, expires_at, used_at
	`

	var vt VerificationToken
	err := r.db.QueryRow(ctx, query, tokenHash, kind, now).Scan(
		&vt.ID,
		&vt.TokenHash,
		&vt.SubjectEmail,
		&vt.Kind,
		&vt.CreatedAt,
		&vt.ExpiresAt,
		&vt.UsedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTokenNotFound
		}
		return nil, err
	}

	return &vt, nil
}

// InvalidateBySubject marks every live token for the subject and kind used.
func (r *PostgresTokenRepository) InvalidateBySubject(ctx context.Context, subjectEmail string, kind TokenKind, now time.Time) error {
	query := `
		UPDATE verification_tokens
		SET used_at = $3
		WHERE subject_email = $1
		AND kind = $2
		AND used_at IS NULL
	`

	_, err := r.db.Exec(ctx, query, subjectEmail, kind, now)
	return err
}

// CountCreatedSince counts tokens issued for the subject since the cutoff,
// used and unused alike. Drives the resend rate limit.
func (r *PostgresTokenRepository) CountCreatedSince(ctx context.Context, subjectEmail string, kind TokenKind, since time.Time) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM verification_tokens
		WHERE subject_email = $1
		AND kind = $2
		AND created_at > $3
	`

	var count int64
	if err := r.db.QueryRow(ctx, query, subjectEmail, kind, since).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}

// DeleteExpired hard-deletes records that can never be redeemed again:
// already used, or past expiry. A still-redeemable record is never touched.
func (r *PostgresTokenRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE used_at IS NOT NULL
		OR expires_at <= $1
	`

	tag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
