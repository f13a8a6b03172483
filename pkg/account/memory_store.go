package account

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements Registry with process-local state. A single mutex
// serializes every operation, which makes the verified-flip plus sibling
// cleanup in MarkVerified atomic relative to the sweeper's deletions:
// either verification completes first or the sweep does, never a mix.
//
// Used by tests and single-process deployments; MongoStore is the durable
// implementation.
type MemoryStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*Account
}

// NewMemoryStore creates an empty in-memory registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[uuid.UUID]*Account)}
}

func (s *MemoryStore) CreateUnverified(ctx context.Context, a *Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Verified && (existing.Email == a.Email || existing.Phone == a.Phone) {
			return ErrDuplicateIdentity
		}
	}

	stored := a.clone()
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.Verified = false

	s.accounts[stored.ID] = stored

	a.ID = stored.ID
	a.CreatedAt = stored.CreatedAt
	return nil
}

func (s *MemoryStore) FindLatestUnverifiedByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Account
	for _, a := range s.accounts {
		if a.Verified || a.Email != email {
			continue
		}
		if latest == nil || a.CreatedAt.After(latest.CreatedAt) {
			latest = a
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	return latest.clone(), nil
}

func (s *MemoryStore) MarkVerified(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	if a.Verified {
		return nil
	}

	a.Verified = true
	a.VerificationCode = nil
	a.VerificationCodeExpiresAt = nil

	// Abandoned duplicate registrations for the same email die with the
	// promotion; only the verifying account survives.
	for otherID, other := range s.accounts {
		if otherID != id && !other.Verified && other.Email == a.Email {
			delete(s.accounts, otherID)
		}
	}
	return nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.clone(), nil
}

func (s *MemoryStore) FindVerifiedByEmail(ctx context.Context, email string) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if a.Verified && a.Email == email {
			return a.clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) SetVerificationCode(ctx context.Context, id uuid.UUID, code int, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.VerificationCode = &code
	a.VerificationCodeExpiresAt = &expiresAt
	return nil
}

func (s *MemoryStore) GetPasswordHash(ctx context.Context, id uuid.UUID) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), a.PasswordHash...), nil
}

func (s *MemoryStore) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash = append([]byte(nil), hash...)
	return nil
}

func (s *MemoryStore) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.ResetPasswordTokenHash = &tokenHash
	a.ResetPasswordExpiresAt = &expiresAt
	return nil
}

func (s *MemoryStore) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	a.ResetPasswordTokenHash = nil
	a.ResetPasswordExpiresAt = nil
	return nil
}

func (s *MemoryStore) FindByResetTokenHash(ctx context.Context, tokenHash string, now time.Time) (*Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.accounts {
		if !a.Verified || a.ResetPasswordTokenHash == nil || a.ResetPasswordExpiresAt == nil {
			continue
		}
		if *a.ResetPasswordTokenHash == tokenHash && now.Before(*a.ResetPasswordExpiresAt) {
			return a.clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) DeleteStaleUnverified(ctx context.Context, olderThan time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed int64
	for id, a := range s.accounts {
		if !a.Verified && a.CreatedAt.Before(olderThan) {
			delete(s.accounts, id)
			removed++
		}
	}
	return removed, nil
}

// Compile-time interface assertion
var _ Registry = (*MemoryStore)(nil)
