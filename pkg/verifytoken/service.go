package verifytoken

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
)

// TokenService issues and redeems single-use, expiring verification tokens.
// It owns the token records for their whole lifetime; user flags are updated
// by callers after a successful redemption, never from here.
type TokenService struct {
	repo                 TokenRepository
	now                  func() time.Time
	emailVerificationTTL time.Duration
	passwordResetTTL     time.Duration
}

// TokenServiceOption defines configuration options.
type TokenServiceOption func(*TokenService)

// WithClock overrides the time source. Used by tests to exercise expiry.
func WithClock(now func() time.Time) TokenServiceOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// WithEmailVerificationTTL sets the lifetime of email verification tokens.
func WithEmailVerificationTTL(ttl time.Duration) TokenServiceOption {
	return func(s *TokenService) {
		s.emailVerificationTTL = ttl
	}
}

// WithPasswordResetTTL sets the lifetime of password reset tokens.
func WithPasswordResetTTL(ttl time.Duration) TokenServiceOption {
	return func(s *TokenService) {
		s.passwordResetTTL = ttl
	}
}

// NewTokenService creates a new token service.
func NewTokenService(repo TokenRepository, opts ...TokenServiceOption) *TokenService {
	service := &TokenService{
		repo:                 repo,
		now:                  func() time.Time { return time.Now().UTC() },
		emailVerificationTTL: 24 * time.Hour,
		passwordResetTTL:     15 * time.Minute,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// generateToken generates a cryptographically secure random token value.
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashToken computes the one-way hash under which a token value is stored.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// TTL returns the configured lifetime for a token kind. Callers use it to
// tell users how long their link stays valid.
func (s *TokenService) TTL(kind TokenKind) time.Duration {
	if kind == KindPasswordReset {
		return s.passwordResetTTL
	}
	return s.emailVerificationTTL
}

// Issue creates a token for the subject with the kind's configured TTL and
// returns the raw value. This is the only point where the raw value is
// observable; the store holds its hash. Any previously outstanding token for
// the same subject and kind is invalidated by the same store operation.
func (s *TokenService) Issue(ctx context.Context, subjectEmail string, kind TokenKind) (string, error) {
	return s.IssueWithTTL(ctx, subjectEmail, kind, s.TTL(kind))
}

// IssueWithTTL is Issue with an explicit lifetime.
func (s *TokenService) IssueWithTTL(ctx context.Context, subjectEmail string, kind TokenKind, ttl time.Duration) (string, error) {
	if !kind.Valid() {
		return "", ErrUnknownKind
	}

	raw, err := generateToken()
	if err != nil {
		return "", err
	}

	now := s.now()
	created, err := s.repo.CreateToken(ctx, VerificationToken{
		TokenHash:    HashToken(raw),
		SubjectEmail: subjectEmail,
		Kind:         kind,
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	})
	if err != nil {
		slog.Error("Failed to create verification token", "subject", subjectEmail, "kind", kind, "err", err)
		return "", fmt.Errorf("failed to create verification token: %w", err)
	}

	slog.Info("Verification token issued", "token_id", created.ID, "kind", kind, "expires_at", created.ExpiresAt)
	return raw, nil
}

// Redeem consumes the token and returns the subject email it was issued
// for. Every failure mode reads the same: a token that never existed, has
// expired, was already redeemed, or was superseded all come back as
// ErrTokenInvalid. Redeeming twice with the same value fails the second
// time.
func (s *TokenService) Redeem(ctx context.Context, raw string, kind TokenKind) (string, error) {
	if !kind.Valid() {
		return "", ErrUnknownKind
	}
	if raw == "" {
		return "", ErrTokenInvalid
	}

	vt, err := s.repo.RedeemByHash(ctx, HashToken(raw), kind, s.now())
	if err != nil {
		if err == ErrTokenNotFound {
			return "", ErrTokenInvalid
		}
		slog.Error("Failed to redeem verification token", "kind", kind, "err", err)
		return "", fmt.Errorf("failed to redeem verification token: %w", err)
	}

	slog.Info("Verification token redeemed", "token_id", vt.ID, "kind", kind)
	return vt.SubjectEmail, nil
}

// InvalidateAll marks every outstanding token for the subject and kind used.
// Called when the underlying need disappears through another path, e.g. a
// password changed while a reset token was still live.
func (s *TokenService) InvalidateAll(ctx context.Context, subjectEmail string, kind TokenKind) error {
	if !kind.Valid() {
		return ErrUnknownKind
	}

	if err := s.repo.InvalidateBySubject(ctx, subjectEmail, kind, s.now()); err != nil {
		slog.Error("Failed to invalidate tokens", "subject", subjectEmail, "kind", kind, "err", err)
		return fmt.Errorf("failed to invalidate tokens: %w", err)
	}

	return nil
}

// CountRecent counts tokens issued for the subject within the window.
func (s *TokenService) CountRecent(ctx context.Context, subjectEmail string, kind TokenKind, window time.Duration) (int64, error) {
	return s.repo.CountCreatedSince(ctx, subjectEmail, kind, s.now().Add(-window))
}

// PurgeExpired deletes used and expired token records and returns how many
// were removed. Advisory maintenance: correctness never depends on it, and
// it is safe to run concurrently with issuance and redemption because it
// only ever touches records that can no longer be redeemed.
func (s *TokenService) PurgeExpired(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		slog.Error("Failed to purge expired tokens", "err", err)
		return 0, fmt.Errorf("failed to purge expired tokens: %w", err)
	}

	if count > 0 {
		slog.Info("Expired tokens purged", "count", count)
	}
	return count, nil
}
