// Package verifytoken manages single-use, expiring tokens for email
// verification and password reset.
//
// # Overview
//
// The verifytoken package provides:
//   - Cryptographically random token generation (256 bits of entropy)
//   - Hashed-at-rest storage: the store never holds a raw token value
//   - At most one live token per subject per kind; a new issuance
//     supersedes any outstanding token
//   - Consume-once redemption with a uniform failure mode
//   - Expiry, explicit bulk invalidation, and advisory garbage collection
//   - Repository pattern for PostgreSQL and file storage
//
// # Basic Usage
//
//	repo := verifytoken.NewPostgresTokenRepository(pool)
//	service := verifytoken.NewTokenService(repo,
//		verifytoken.WithEmailVerificationTTL(24*time.Hour),
//		verifytoken.WithPasswordResetTTL(15*time.Minute),
//	)
//
//	// Issue a token; the raw value goes into the email link.
//	raw, err := service.Issue(ctx, "a@x.edu", verifytoken.KindEmailVerification)
//
//	// Later, the user presents the value from the link.
//	email, err := service.Redeem(ctx, raw, verifytoken.KindEmailVerification)
//	if errors.Is(err, verifytoken.ErrTokenInvalid) {
//		// stale, forged, already used, or superseded; all identical
//	}
//
// # Token Lifecycle
//
// A token is ACTIVE from issuance until one of three things happens: it is
// redeemed, a newer issuance for the same subject and kind supersedes it, or
// its expiry passes. All three terminal states answer Redeem with
// ErrTokenInvalid; callers cannot distinguish them.
//
// # Cleanup
//
//	// Run periodically; deletes only records that can never be redeemed.
//	count, err := service.PurgeExpired(ctx)
//
// # Related Packages
//
//   - pkg/gate - request-handling flow around issuance and redemption
//   - pkg/notice - email delivery of token links
package verifytoken
