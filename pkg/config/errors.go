package config

import "errors"

var (
	// ErrNilPointer is returned when a nil config pointer is passed to Load.
	ErrNilPointer = errors.New("config: nil pointer provided")

	// ErrParsingConfig is returned when environment parsing fails.
	ErrParsingConfig = errors.New("config: failed to parse environment")
)
