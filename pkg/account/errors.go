package account

import "errors"

var (
	// ErrAccountNotFound is returned when no account matches the lookup
	ErrAccountNotFound = errors.New("account not found")

	// ErrUsernameTaken is returned when the requested username is already in use
	ErrUsernameTaken = errors.New("username already taken")

	// ErrUsernameAlreadySet is returned when the account already has a username
	ErrUsernameAlreadySet = errors.New("username already set")
)
