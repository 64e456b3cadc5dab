package account

import (
	"time"

	"github.com/google/uuid"
)

// Account is a member of the campus network as the verification flow sees
// it. Post/comment/reaction content lives elsewhere; this package owns the
// email-verified flag, the username, and the password hash.
type Account struct {
	ID              uuid.UUID  `json:"id"`
	Email           string     `json:"email"`
	Username        string     `json:"username,omitempty"`
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	LastModifiedAt  time.Time  `json:"last_modified_at"`
}

// Status is the slice of an account the permission policy consumes.
type Status struct {
	ID            uuid.UUID
	Email         string
	EmailVerified bool
	HasUsername   bool
}

// StatusOf projects an account onto its verification status.
func StatusOf(a *Account) Status {
	return Status{
		ID:            a.ID,
		Email:         a.Email,
		EmailVerified: a.EmailVerified,
		HasUsername:   a.Username != "",
	}
}
