package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Session is a signed, time-bounded bearer credential binding to an
// account id. Logout is purely client-side: tokens are stateless and there
// is no server-side revocation list.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// Claims carries the account id in the token subject alongside the
// registered temporal claims.
type Claims struct {
	jwt.RegisteredClaims
}

// Config holds session issuer settings loaded from the environment.
type Config struct {
	Secret string        `env:"JWT_SECRET_KEY,required"`
	TTL    time.Duration `env:"JWT_EXPIRES" envDefault:"168h"`
}

// Issuer mints and validates session credentials using HMAC-SHA256.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source. Used by tests to control expiry.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// NewIssuer creates a session issuer. The signing key must be non-empty;
// it is process-wide configuration loaded at startup.
func NewIssuer(cfg Config, opts ...Option) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}

	i := &Issuer{
		secret: []byte(cfg.Secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Issue mints a signed session credential for the given account id.
func (i *Issuer) Issue(accountID uuid.UUID) (*Session, error) {
	now := i.now()
	expiresAt := now.Add(i.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})

	signed, err := token.SignedString(i.secret)
	if err != nil {
		return nil, err
	}

	return &Session{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses a session credential and returns the account id it binds
// to. It returns ErrSessionExpired for elapsed tokens and ErrInvalidSession
// for anything else that fails verification.
func (i *Issuer) Validate(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, ErrSessionExpired
		}
		return uuid.Nil, ErrInvalidSession
	}
	if !token.Valid {
		return uuid.Nil, ErrInvalidSession
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidSession
	}

	return accountID, nil
}
