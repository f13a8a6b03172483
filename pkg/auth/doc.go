// Package auth orchestrates the account lifecycle workflows: throttled
// registration with email verification, password login, and single-use
// password reset. Services mutate accounts only through the account
// registry and deliver secrets out-of-band through the email sender.
//
// Expected outcomes (wrong code, expired token, throttled attempt, …) are
// sentinel errors callers can match with errors.Is; unexpected storage or
// transport failures surface as ErrUnavailable with details logged
// internally.
package auth
