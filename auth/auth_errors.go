package auth

import "errors"

var (
	// ErrMissingCredentials is a client-input error: identifier or
	// password absent from the login request.
	ErrMissingCredentials = errors.New("identifier and password are required")

	// ErrInvalidCredentials is returned both for an unknown identifier
	// and for a wrong password, so responses cannot be used to
	// enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid identifier or password")

	// ErrUserNotFound is returned on refresh when the token subject no
	// longer exists (deleted account).
	ErrUserNotFound = errors.New("user no longer exists")
)
