package domain

import "errors"

var (
	// ErrValidation marks missing or malformed input. Wrap it with the detail.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateIdentity is returned when the email or username is taken.
	ErrDuplicateIdentity = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized covers a missing, malformed, tampered, expired or revoked token.
	ErrUnauthorized = errors.New("not authorized")

	ErrUserNotFound     = errors.New("user not found")
	ErrLocationNotFound = errors.New("location not found")
	ErrForbidden        = errors.New("access forbidden")

	// ErrStoreUnavailable is returned when a backing store cannot be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
)
