package throttle

import "errors"

var (
	// ErrThrottled is returned when a key has exhausted its attempts
	// within the current window.
	ErrThrottled = errors.New("too many attempts, try again later")

	// ErrInvalidConfig is returned when throttle configuration is invalid.
	ErrInvalidConfig = errors.New("invalid throttle configuration")
)
