package throttle

import (
	"context"
	"fmt"
	"time"
)

// Limiter bounds the rate of registration attempts per identifier key.
type Limiter interface {
	// RecordAttempt registers one attempt for the key. It returns nil when
	// the attempt is allowed and ErrThrottled when the key has exhausted
	// its attempts within the current window.
	RecordAttempt(ctx context.Context, key string) error
}

// Config defines the fixed-window throttle parameters.
type Config struct {
	MaxAttempts int           `env:"THROTTLE_MAX_ATTEMPTS" envDefault:"3"`
	Window      time.Duration `env:"THROTTLE_WINDOW" envDefault:"60m"`
}

func (c Config) validate() error {
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("%w: max attempts must be positive, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	if c.Window <= 0 {
		return fmt.Errorf("%w: window must be positive, got %v", ErrInvalidConfig, c.Window)
	}
	return nil
}

// Throttle implements Limiter on top of a pluggable Store.
type Throttle struct {
	store  Store
	config Config
}

// New creates a throttle with the given store and configuration.
func New(store Store, config Config) (*Throttle, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Throttle{store: store, config: config}, nil
}

func (t *Throttle) RecordAttempt(ctx context.Context, key string) error {
	count, err := t.store.Incr(ctx, key, t.config.Window)
	if err != nil {
		return err
	}
	if count > int64(t.config.MaxAttempts) {
		return ErrThrottled
	}
	return nil
}

// Reset clears the throttle state for the given key.
func (t *Throttle) Reset(ctx context.Context, key string) error {
	return t.store.Reset(ctx, key)
}
