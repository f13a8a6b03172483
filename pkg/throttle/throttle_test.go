package throttle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("rejects invalid config", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore(WithCleanupInterval(0))

		_, err := New(store, Config{MaxAttempts: 0, Window: time.Hour})
		assert.ErrorIs(t, err, ErrInvalidConfig)

		_, err = New(store, Config{MaxAttempts: 3, Window: 0})
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestThrottle_RecordAttempt(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("allows up to max attempts then rejects", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore(WithCleanupInterval(0))
		th, err := New(store, Config{MaxAttempts: 3, Window: time.Hour})
		require.NoError(t, err)

		for i := range 3 {
			assert.NoError(t, th.RecordAttempt(ctx, "alice@example.com"), "attempt %d", i+1)
		}
		assert.ErrorIs(t, th.RecordAttempt(ctx, "alice@example.com"), ErrThrottled)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore(WithCleanupInterval(0))
		th, err := New(store, Config{MaxAttempts: 1, Window: time.Hour})
		require.NoError(t, err)

		require.NoError(t, th.RecordAttempt(ctx, "a@example.com"))
		require.ErrorIs(t, th.RecordAttempt(ctx, "a@example.com"), ErrThrottled)
		assert.NoError(t, th.RecordAttempt(ctx, "b@example.com"))
	})

	t.Run("counter restarts after window elapses", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
		var mu sync.Mutex
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}
		advance := func(d time.Duration) {
			mu.Lock()
			now = now.Add(d)
			mu.Unlock()
		}

		store := NewMemoryStore(WithCleanupInterval(0), WithClock(clock))
		th, err := New(store, Config{MaxAttempts: 3, Window: time.Hour})
		require.NoError(t, err)

		for range 3 {
			require.NoError(t, th.RecordAttempt(ctx, "key"))
		}
		require.ErrorIs(t, th.RecordAttempt(ctx, "key"), ErrThrottled)

		// A rejected attempt must not extend the window.
		advance(61 * time.Minute)
		assert.NoError(t, th.RecordAttempt(ctx, "key"))
	})

	t.Run("reset clears the counter", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore(WithCleanupInterval(0))
		th, err := New(store, Config{MaxAttempts: 1, Window: time.Hour})
		require.NoError(t, err)

		require.NoError(t, th.RecordAttempt(ctx, "key"))
		require.ErrorIs(t, th.RecordAttempt(ctx, "key"), ErrThrottled)

		require.NoError(t, th.Reset(ctx, "key"))
		assert.NoError(t, th.RecordAttempt(ctx, "key"))
	})

	t.Run("concurrent attempts never exceed the limit", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore(WithCleanupInterval(0))
		th, err := New(store, Config{MaxAttempts: 5, Window: time.Hour})
		require.NoError(t, err)

		var wg sync.WaitGroup
		var mu sync.Mutex
		allowed := 0

		for range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if th.RecordAttempt(ctx, "shared") == nil {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 5, allowed)
	})
}

func TestMemoryStore_Close(t *testing.T) {
	t.Parallel()

	t.Run("safe under concurrent calls", func(t *testing.T) {
		t.Parallel()

		store := NewMemoryStore()

		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				store.Close()
			}()
		}
		wg.Wait()

		// And again after everything settled.
		assert.NotPanics(t, store.Close)
	})
}

func TestMemoryStore_removeStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	store := NewMemoryStore(WithCleanupInterval(0), WithClock(clock))
	ctx := context.Background()

	_, err := store.Incr(ctx, "old", time.Hour)
	require.NoError(t, err)

	mu.Lock()
	now = now.Add(3 * time.Hour)
	mu.Unlock()

	_, err = store.Incr(ctx, "fresh", time.Hour)
	require.NoError(t, err)

	store.removeStale()

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.NotContains(t, store.counters, "old")
	assert.Contains(t, store.counters, "fresh")
}
