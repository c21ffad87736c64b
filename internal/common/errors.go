// Package common defines shared constants and sentinel errors used across
// GophAuth components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Caller misuse. These are programming errors, never the result of bad
	// user input.
	ErrUnknownAttribute   = errors.New("unknown attribute")
	ErrForbiddenAttribute = errors.New("attribute is not assignable")

	// Session token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Session storage errors.
	ErrUnsupportedStorage = errors.New("unsupported session storage")
	ErrUnknownProvider    = errors.New("unknown provider")
)
