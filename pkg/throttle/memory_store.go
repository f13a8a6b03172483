package throttle

import (
	"context"
	"sync"
	"time"
)

// counter tracks attempts within one fixed window.
type counter struct {
	count       int64
	windowStart time.Time
}

// MemoryStore implements Store using process-local state. Throttle state is
// ephemeral: it does not survive restarts and is not shared between
// processes. Use RedisStore when registration load is distributed.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*counter

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once

	now func() time.Time
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets the interval for removing expired counters.
// Set to 0 to disable automatic cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// WithClock overrides the time source. Used by tests to control windows.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store with optional cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		counters:        make(map[string]*counter),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

func (ms *MemoryStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	c, exists := ms.counters[key]

	// An elapsed window restarts the counter instead of blocking forever.
	if !exists || now.Sub(c.windowStart) > window {
		c = &counter{count: 1, windowStart: now}
		ms.counters[key] = c
		return 1, nil
	}

	c.count++
	return c.count, nil
}

func (ms *MemoryStore) Reset(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.counters, key)
	return nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeStale()
		case <-ms.stopCleanup:
			return
		}
	}
}

// removeStale drops counters idle past any plausible window to prevent
// unbounded memory growth from one-off registration attempts.
func (ms *MemoryStore) removeStale() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	staleThreshold := 2 * time.Hour

	for key, c := range ms.counters {
		if now.Sub(c.windowStart) > staleThreshold {
			delete(ms.counters, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.closeOnce.Do(func() {
		close(ms.stopCleanup)
	})
}
