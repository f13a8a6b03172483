package auth

import "errors"

// Registration and verification errors
var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrInvalidCode        = errors.New("invalid verification code")
	ErrCodeExpired        = errors.New("verification code expired")
	ErrNotificationFailed = errors.New("failed to send notification")
	ErrInvalidInput       = errors.New("invalid input")
)

// Credential errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// Password reset errors
var (
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrPasswordTooLong       = errors.New("password must be at most 32 characters long")
	ErrPasswordUnchanged     = errors.New("new password must differ from the current one")
)

// ErrUnavailable masks unexpected storage or transport failures. The
// underlying cause is logged internally and never surfaced to callers.
var ErrUnavailable = errors.New("service temporarily unavailable")
