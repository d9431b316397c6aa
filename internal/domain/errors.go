package domain

import "errors"

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateIdentity = errors.New("identifier or email already registered")
	ErrAuthentication    = errors.New("invalid credentials")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("forbidden")

	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = errors.New("credential expired")

	// ErrCorruptCredential signals a stored password hash that cannot be parsed.
	ErrCorruptCredential = errors.New("stored credential is corrupt")
)

// FieldErrors carries per-field validation messages.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	return ErrValidation.Error()
}

func (f FieldErrors) Unwrap() error {
	return ErrValidation
}
