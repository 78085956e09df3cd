// Package common defines shared constants and sentinel errors used across
// the NoteKeeper server layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrValidationConflict = errors.New("validation conflict")
	ErrInvalidEmail       = errors.New("invalid email")
	ErrInvalidPassword    = errors.New("invalid password")

	// Token errors. Each kind is reported separately so that an expired
	// token can be told apart from a forged one.
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenMalformed        = errors.New("token malformed")

	// Note file errors.
	ErrNotOpen         = errors.New("note file is not open")
	ErrInvalidNoteName = errors.New("invalid note name")
)
