package gate

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/campuslink/campus-verify/pkg/account"
	"github.com/campuslink/campus-verify/pkg/permission"
	"github.com/campuslink/campus-verify/pkg/verifytoken"
)

// NoticeSender delivers token links to users. Satisfied by notice.Service;
// the token service itself never sends mail.
type NoticeSender interface {
	SendVerificationEmail(to, token string, ttl time.Duration) error
	SendPasswordResetEmail(to, token string, ttl time.Duration) error
}

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

// GateService is the request-handling glue over the permission policy, the
// token service, the account store and the mailer. Handlers call it;
// everything below it is swappable.
type GateService struct {
	tokens       *verifytoken.TokenService
	accounts     account.AccountRepository
	notices      NoticeSender
	hasher       account.PasswordHasher
	resendLimit  int64
	resendWindow time.Duration
}

// GateServiceOption defines configuration options.
type GateServiceOption func(*GateService)

// WithResendLimit caps how many verification emails may be sent within the
// resend window.
func WithResendLimit(limit int64) GateServiceOption {
	return func(s *GateService) {
		s.resendLimit = limit
	}
}

// WithResendWindow sets the time window for the resend limit.
func WithResendWindow(window time.Duration) GateServiceOption {
	return func(s *GateService) {
		s.resendWindow = window
	}
}

// WithPasswordHasher overrides the hasher used on password-reset confirm.
func WithPasswordHasher(hasher account.PasswordHasher) GateServiceOption {
	return func(s *GateService) {
		s.hasher = hasher
	}
}

// NewGateService creates the verification-flow service.
func NewGateService(
	tokens *verifytoken.TokenService,
	accounts account.AccountRepository,
	notices NoticeSender,
	opts ...GateServiceOption,
) *GateService {
	service := &GateService{
		tokens:       tokens,
		accounts:     accounts,
		notices:      notices,
		hasher:       &account.BcryptHasher{},
		resendLimit:  3,
		resendWindow: 1 * time.Hour,
	}

	for _, opt := range opts {
		opt(service)
	}

	return service
}

// CheckInteraction loads the account's verification status and evaluates
// the policy. A denial is a normal outcome carried in the result, not an
// error; the error return covers unknown accounts and store faults.
func (s *GateService) CheckInteraction(ctx context.Context, accountID uuid.UUID, interaction permission.InteractionType, anonymous bool) (permission.CheckResult, error) {
	if !permission.Known(interaction) {
		return permission.CheckResult{}, ErrUnknownInteraction
	}

	status, err := s.accounts.GetStatus(ctx, accountID)
	if err != nil {
		return permission.CheckResult{}, err
	}

	result := permission.Evaluate(
		permission.VerificationStatus{
			EmailVerified: status.EmailVerified,
			HasUsername:   status.HasUsername,
		},
		permission.CheckRequest{Interaction: interaction, Anonymous: anonymous},
	)

	return result, nil
}

// StartEmailVerification issues a verification token for the account and
// mails the link. Covers first sends and resends alike; resends are rate
// limited.
func (s *GateService) StartEmailVerification(ctx context.Context, accountID uuid.UUID) error {
	status, err := s.accounts.GetStatus(ctx, accountID)
	if err != nil {
		return err
	}

	if status.EmailVerified {
		slog.Info("Email already verified", "account_id", accountID)
		return ErrAlreadyVerified
	}

	count, err := s.tokens.CountRecent(ctx, status.Email, verifytoken.KindEmailVerification, s.resendWindow)
	if err != nil {
		return err
	}
	if count >= s.resendLimit {
		slog.Warn("Verification email rate limit exceeded", "account_id", accountID, "count", count, "limit", s.resendLimit)
		return ErrRateLimitExceeded
	}

	raw, err := s.tokens.Issue(ctx, status.Email, verifytoken.KindEmailVerification)
	if err != nil {
		return err
	}

	// Token is created either way; delivery is best effort.
	if err := s.notices.SendVerificationEmail(status.Email, raw, s.tokens.TTL(verifytoken.KindEmailVerification)); err != nil {
		slog.Error("Failed to send verification email", "account_id", accountID, "err", err)
	}

	return nil
}

// ConfirmEmailVerification redeems the token from a verification link and
// marks the bound account's email verified. Any redemption failure surfaces
// as verifytoken.ErrTokenInvalid without further detail.
func (s *GateService) ConfirmEmailVerification(ctx context.Context, rawToken string) (string, error) {
	email, err := s.tokens.Redeem(ctx, rawToken, verifytoken.KindEmailVerification)
	if err != nil {
		return "", err
	}

	if err := s.accounts.MarkEmailVerified(ctx, email); err != nil {
		slog.Error("Failed to mark email verified after redemption", "err", err)
		return "", err
	}

	slog.Info("Email verified", "email", email)
	return email, nil
}

// StartPasswordReset issues a reset token and mails the link. An unknown
// email returns success without issuing anything so the endpoint cannot be
// used to probe which addresses have accounts.
func (s *GateService) StartPasswordReset(ctx context.Context, email string) error {
	if _, err := s.accounts.GetByEmail(ctx, email); err != nil {
		if err == account.ErrAccountNotFound {
			slog.Info("Password reset requested for unknown email")
			return nil
		}
		return err
	}

	raw, err := s.tokens.Issue(ctx, email, verifytoken.KindPasswordReset)
	if err != nil {
		return err
	}

	if err := s.notices.SendPasswordResetEmail(email, raw, s.tokens.TTL(verifytoken.KindPasswordReset)); err != nil {
		slog.Error("Failed to send password reset email", "err", err)
	}

	return nil
}

// ConfirmPasswordReset redeems the reset token, stores the new password
// hash, and invalidates any remaining reset tokens for the subject.
func (s *GateService) ConfirmPasswordReset(ctx context.Context, rawToken, newPassword string) error {
	email, err := s.tokens.Redeem(ctx, rawToken, verifytoken.KindPasswordReset)
	if err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.accounts.SetPassword(ctx, email, hash); err != nil {
		return err
	}

	// The password changed; nothing else outstanding may change it again.
	if err := s.tokens.InvalidateAll(ctx, email, verifytoken.KindPasswordReset); err != nil {
		slog.Error("Failed to invalidate remaining reset tokens", "err", err)
	}

	slog.Info("Password reset completed", "email", email)
	return nil
}

// InvalidatePasswordResets voids outstanding reset tokens for the email.
// Called when the password changes through another path, e.g. a logged-in
// password update.
func (s *GateService) InvalidatePasswordResets(ctx context.Context, email string) error {
	return s.tokens.InvalidateAll(ctx, email, verifytoken.KindPasswordReset)
}

// ClaimUsername validates and assigns the username for the account.
func (s *GateService) ClaimUsername(ctx context.Context, accountID uuid.UUID, username string) error {
	if !usernamePattern.MatchString(username) {
		return ErrInvalidUsername
	}

	if err := s.accounts.SetUsername(ctx, accountID, username); err != nil {
		return err
	}

	slog.Info("Username claimed", "account_id", accountID, "username", username)
	return nil
}

// StatusResult is the onboarding snapshot returned to clients.
type StatusResult struct {
	EmailVerified bool
	HasUsername   bool
	State         permission.VerificationState
}

// VerificationStatus returns the account's flags and derived state.
func (s *GateService) VerificationStatus(ctx context.Context, accountID uuid.UUID) (*StatusResult, error) {
	status, err := s.accounts.GetStatus(ctx, accountID)
	if err != nil {
		return nil, err
	}

	vs := permission.VerificationStatus{
		EmailVerified: status.EmailVerified,
		HasUsername:   status.HasUsername,
	}

	return &StatusResult{
		EmailVerified: status.EmailVerified,
		HasUsername:   status.HasUsername,
		State:         permission.StateOf(vs),
	}, nil
}
