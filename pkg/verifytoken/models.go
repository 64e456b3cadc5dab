package verifytoken

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind identifies what a verification token is good for. A token issued
// for one kind can never be redeemed as another.
type TokenKind string

const (
	KindEmailVerification TokenKind = "email_verification"
	KindPasswordReset     TokenKind = "password_reset"
)

// Valid reports whether the kind is one of the known token kinds.
func (k TokenKind) Valid() bool {
	return k == KindEmailVerification || k == KindPasswordReset
}

// VerificationToken is a single-use, expiring credential record. The store
// only ever holds the SHA-256 hash of the token value; the raw value exists
// only in the issuance response and in the link mailed to the user.
//
// UsedAt is set exactly once: on successful redemption, or when a newer
// issuance for the same (SubjectEmail, Kind) supersedes this record. Both
// read back identically through Redeem.
type VerificationToken struct {
	ID           uuid.UUID  `json:"id"`
	TokenHash    string     `json:"token_hash"`
	SubjectEmail string     `json:"subject_email"`
	Kind         TokenKind  `json:"kind"`
	CreatedAt    time.Time  `json:"created_at"`
	ExpiresAt    time.Time  `json:"expires_at"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
}

// Redeemable reports whether the token can still be consumed at the given
// instant.
func (t *VerificationToken) Redeemable(now time.Time) bool {
	return t.UsedAt == nil && now.Before(t.ExpiresAt)
}
