package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"
)

const testSecret = "test-secret-32-chars-long-123456"

func TestNewIssuer(t *testing.T) {
	t.Parallel()

	t.Run("requires a secret", func(t *testing.T) {
		t.Parallel()

		_, err := NewIssuer(Config{Secret: ""})
		assert.ErrorIs(t, err, ErrMissingSecret)
	})

	t.Run("defaults the TTL", func(t *testing.T) {
		t.Parallel()

		issuer, err := NewIssuer(Config{Secret: testSecret})
		require.NoError(t, err)
		assert.Equal(t, 7*24*time.Hour, issuer.ttl)
	})
}

func TestIssuer_IssueAndValidate(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		issuer, err := NewIssuer(Config{Secret: testSecret, TTL: time.Hour})
		require.NoError(t, err)

		accountID := uuid.New()
		sess, err := issuer.Issue(accountID)
		require.NoError(t, err)
		assert.NotEmpty(t, sess.Token)
		assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

		got, err := issuer.Validate(sess.Token)
		require.NoError(t, err)
		assert.Equal(t, accountID, got)
	})

	t.Run("rejects malformed tokens", func(t *testing.T) {
		t.Parallel()

		issuer, err := NewIssuer(Config{Secret: testSecret, TTL: time.Hour})
		require.NoError(t, err)

		_, err = issuer.Validate("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidSession)

		_, err = issuer.Validate("")
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("rejects tokens signed with another key", func(t *testing.T) {
		t.Parallel()

		issuer, err := NewIssuer(Config{Secret: testSecret, TTL: time.Hour})
		require.NoError(t, err)

		other, err := NewIssuer(Config{Secret: "another-secret-32-chars-long-456", TTL: time.Hour})
		require.NoError(t, err)

		sess, err := other.Issue(uuid.New())
		require.NoError(t, err)

		_, err = issuer.Validate(sess.Token)
		assert.ErrorIs(t, err, ErrInvalidSession)
	})

	t.Run("rejects expired tokens", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		var mu sync.Mutex
		clock := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return now
		}

		issuer, err := NewIssuer(Config{Secret: testSecret, TTL: time.Minute}, WithClock(clock))
		require.NoError(t, err)

		sess, err := issuer.Issue(uuid.New())
		require.NoError(t, err)

		mu.Lock()
		now = now.Add(2 * time.Minute)
		mu.Unlock()

		_, err = issuer.Validate(sess.Token)
		assert.ErrorIs(t, err, ErrSessionExpired)
	})
}
