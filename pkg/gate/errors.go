package gate

import "errors"

var (
	// ErrAlreadyVerified is returned when starting verification for an
	// account whose email is already verified
	ErrAlreadyVerified = errors.New("email already verified")

	// ErrRateLimitExceeded is returned when too many verification emails
	// were requested within the resend window
	ErrRateLimitExceeded = errors.New("too many verification emails sent, please try again later")

	// ErrInvalidUsername is returned when a claimed username fails format
	// validation
	ErrInvalidUsername = errors.New("username must be 3-20 characters: letters, digits, underscores")

	// ErrUnknownInteraction is returned when a permission check names an
	// interaction outside the closed set
	ErrUnknownInteraction = errors.New("unknown interaction type")
)
