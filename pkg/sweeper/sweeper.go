package sweeper

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/jobhunt/identity/pkg/account"
	"github.com/jobhunt/identity/pkg/logger"
)

const (
	// DefaultInterval is how often the sweep runs.
	DefaultInterval = 30 * time.Minute

	// DefaultRetention is how long an unverified registration survives
	// before it becomes eligible for deletion.
	DefaultRetention = 30 * time.Minute
)

// Sweeper periodically deletes unverified accounts older than the
// retention window. It deletes through the registry so the sweep respects
// the same invariants as verification cleanup; verified accounts are never
// touched.
type Sweeper struct {
	registry  account.Registry
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Sweeper.
type Option func(*Sweeper)

// WithInterval overrides the sweep cadence.
func WithInterval(interval time.Duration) Option {
	return func(s *Sweeper) {
		if interval > 0 {
			s.interval = interval
		}
	}
}

// WithRetention overrides the unverified-account retention window.
func WithRetention(retention time.Duration) Option {
	return func(s *Sweeper) {
		if retention >= 0 {
			s.retention = retention
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = l
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(s *Sweeper) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a sweeper over the given registry.
func New(registry account.Registry, opts ...Option) *Sweeper {
	s := &Sweeper{
		registry:  registry,
		interval:  DefaultInterval,
		retention: DefaultRetention,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run executes the sweep loop until the context is cancelled. It is meant
// to be started in its own goroutine alongside request handling and never
// blocks it.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Sweep performs one deletion pass. A failed pass is logged and retried at
// the next tick; it never takes the process down.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := s.now().Add(-s.retention)

	removed, err := s.registry.DeleteStaleUnverified(ctx, cutoff)
	if err != nil {
		s.logger.Error("failed to sweep stale registrations",
			logger.Error(err),
			logger.Component("sweeper"),
		)
		return
	}

	if removed > 0 {
		s.logger.Info("removed stale unverified accounts",
			logger.Count(removed),
			logger.Component("sweeper"),
		)
	}
}
