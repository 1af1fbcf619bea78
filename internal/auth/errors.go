package auth

import "errors"

var (
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")

	// ErrLoginDisabled is returned when no admin password hash is configured.
	ErrLoginDisabled = errors.New("auth: no admin password configured")

	// ErrTokenInvalid is returned for a token that fails validation.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrInvalidHash is returned for a malformed password hash.
	ErrInvalidHash = errors.New("auth: invalid password hash")
)
