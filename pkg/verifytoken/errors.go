package verifytoken

import "errors"

var (
	// ErrTokenInvalid is returned for every redemption failure: unknown
	// value, expired, already redeemed, or superseded by a newer issuance.
	// Callers must not be able to tell these apart.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrTokenNotFound is the repository-level miss. The service folds it
	// into ErrTokenInvalid before it reaches callers.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrUnknownKind is returned when a caller passes a token kind outside
	// the closed set.
	ErrUnknownKind = errors.New("unknown token kind")
)
