package account

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Registry is the single source of truth for account existence and state
// transitions. All other components mutate accounts only through it, so
// locking and transaction discipline is centralized here.
type Registry interface {
	// CreateUnverified stores a new unverified account. It fails with
	// ErrDuplicateIdentity if a verified account already owns the email or
	// phone. Colliding unverified accounts are allowed to coexist until
	// one of them verifies.
	CreateUnverified(ctx context.Context, a *Account) error

	// FindLatestUnverifiedByEmail returns the most recently created
	// unverified account for the email, so repeated registrations validate
	// against the newest attempt.
	FindLatestUnverifiedByEmail(ctx context.Context, email string) (*Account, error)

	// MarkVerified flips the account to verified, clears its verification
	// code fields and removes every other unverified account sharing the
	// same email, as one logical unit. It fails with ErrNotFound when the
	// account no longer exists (e.g. the sweeper won the race) and with
	// ErrDuplicateIdentity when another verified account claimed the email
	// or phone first.
	MarkVerified(ctx context.Context, id uuid.UUID) error

	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindVerifiedByEmail(ctx context.Context, email string) (*Account, error)

	// SetVerificationCode persists a fresh code and expiry on an
	// unverified account, replacing any previous code.
	SetVerificationCode(ctx context.Context, id uuid.UUID, code int, expiresAt time.Time) error

	GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error)
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error

	// SetResetToken stores the hashed reset token and its expiry.
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error

	// ClearResetToken removes any stored reset token state.
	ClearResetToken(ctx context.Context, id uuid.UUID) error

	// FindByResetTokenHash returns the verified account whose stored reset
	// token hash matches and whose expiry has not elapsed at now.
	FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Account, error)

	// DeleteStaleUnverified removes every unverified account created
	// before the cutoff and returns how many were removed. This is the
	// sweeper's deletion path and shares the registry's locking discipline
	// with verification cleanup.
	DeleteStaleUnverified(ctx context.Context, olderThan time.Time) (int64, error)
}
