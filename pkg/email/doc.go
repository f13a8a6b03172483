// Package email provides a provider-agnostic interface for sending
// transactional emails with a Postmark implementation for production and a
// disk-backed DevSender for local development.
//
// The package is built around the EmailSender interface so providers can be
// swapped without changing application code. All implementations validate
// parameters before sending and surface failures through sentinel errors.
package email
