package account

import "errors"

var (
	// ErrNotFound is returned when no account matches the lookup.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateIdentity is returned when a verified account already
	// owns the email or phone. The message deliberately does not say
	// which, nor whether an unverified registration is pending.
	ErrDuplicateIdentity = errors.New("identity already registered")
)
