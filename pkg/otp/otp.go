package otp

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"time"
)

const (
	// DefaultCodeTTL is how long a verification code stays usable.
	DefaultCodeTTL = 10 * time.Minute

	// DefaultResetTokenTTL is how long a password reset token stays usable.
	DefaultResetTokenTTL = 30 * time.Minute

	resetTokenBytes = 20
)

// Generator produces one-time verification codes and password reset tokens
// with their expiry timestamps.
type Generator struct {
	codeTTL       time.Duration
	resetTokenTTL time.Duration
	now           func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithCodeTTL overrides the verification code lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(g *Generator) {
		if ttl > 0 {
			g.codeTTL = ttl
		}
	}
}

// WithResetTokenTTL overrides the reset token lifetime.
func WithResetTokenTTL(ttl time.Duration) Option {
	return func(g *Generator) {
		if ttl > 0 {
			g.resetTokenTTL = ttl
		}
	}
}

// WithClock overrides the time source. Used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

// NewGenerator creates a Generator with default lifetimes.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		codeTTL:       DefaultCodeTTL,
		resetTokenTTL: DefaultResetTokenTTL,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Code returns a cryptographically random 6-digit verification code in the
// range 100000-999999 together with its expiry timestamp.
func (g *Generator) Code() (int, time.Time, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return 0, time.Time{}, err
	}
	return int(n.Int64()) + 100000, g.now().Add(g.codeTTL), nil
}

// NewResetToken returns a raw reset token for out-of-band delivery, the
// hashed form for storage, and the expiry timestamp. The raw token is never
// recoverable from the stored hash.
func (g *Generator) NewResetToken() (raw, hash string, expiresAt time.Time, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err = rand.Read(buf); err != nil {
		return "", "", time.Time{}, err
	}
	raw = hex.EncodeToString(buf)
	return raw, HashToken(raw), g.now().Add(g.resetTokenTTL), nil
}

// HashToken derives the stored form of a raw reset token. Lookup by hash
// means a leaked datastore never reveals usable tokens.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
