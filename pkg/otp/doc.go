// Package otp generates the short-lived secrets used during account
// verification and password reset: 6-digit numeric codes delivered
// out-of-band, and random reset tokens stored only in hashed form.
package otp
