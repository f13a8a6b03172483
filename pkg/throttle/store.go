package throttle

import (
	"context"
	"time"
)

// Store is the counter backend for the fixed-window throttle.
type Store interface {
	// Incr increments the attempt counter for the key and returns the new
	// count. A counter whose window has elapsed restarts at 1 with a fresh
	// window. Counting an attempt never extends an active window.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	// Reset clears the counter for the given key.
	Reset(ctx context.Context, key string) error
}
