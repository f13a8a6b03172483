package session

import "errors"

var (
	// ErrInvalidSession is returned for malformed tokens, bad signatures
	// or unexpected signing methods.
	ErrInvalidSession = errors.New("invalid session")

	// ErrSessionExpired is returned when the token's expiry has elapsed.
	ErrSessionExpired = errors.New("session expired")

	// ErrMissingSecret is returned when the issuer is built without a
	// signing key.
	ErrMissingSecret = errors.New("missing session signing secret")
)
