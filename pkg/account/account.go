package account

import (
	"time"

	"github.com/google/uuid"
)

// Role distinguishes the two kinds of accounts on the board.
type Role string

const (
	RoleJobSeeker Role = "Job Seeker"
	RoleEmployer  Role = "Employer"
)

// Valid reports whether the role is one of the known values.
func (r Role) Valid() bool {
	return r == RoleJobSeeker || r == RoleEmployer
}

// Niches are the up-to-three preferred job niches of a job seeker.
type Niches struct {
	First  string `json:"first_niche"`
	Second string `json:"second_niche"`
	Third  string `json:"third_niche"`
}

// Resume is an opaque reference to an externally stored resume file.
// Upload and storage happen outside this core.
type Resume struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// Account is a user identity record, verified or unverified.
//
// An account is created unverified at registration and becomes verified
// exactly once, via code validation before expiry. Unverified accounts that
// never verify are purged by the sweeper; verified accounts never revert
// and are never swept.
type Account struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Email   string    `json:"email"`
	Phone   string    `json:"phone"`
	Address string    `json:"address"`
	Role    Role      `json:"role"`

	// Job seeker only.
	Niches      Niches `json:"niches,omitzero"`
	CoverLetter string `json:"cover_letter,omitempty"`
	Resume      Resume `json:"resume,omitzero"`

	// PasswordHash never leaves the registry boundary in API responses.
	PasswordHash []byte `json:"-"`

	Verified                  bool       `json:"account_verified"`
	VerificationCode          *int       `json:"-"`
	VerificationCodeExpiresAt *time.Time `json:"-"`

	ResetPasswordTokenHash *string    `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

// IsJobSeeker reports whether the account carries job-seeker profile fields.
func (a *Account) IsJobSeeker() bool {
	return a.Role == RoleJobSeeker
}

// clone returns a deep copy so registry internals never alias caller state.
func (a *Account) clone() *Account {
	c := *a
	if a.PasswordHash != nil {
		c.PasswordHash = append([]byte(nil), a.PasswordHash...)
	}
	if a.VerificationCode != nil {
		v := *a.VerificationCode
		c.VerificationCode = &v
	}
	if a.VerificationCodeExpiresAt != nil {
		v := *a.VerificationCodeExpiresAt
		c.VerificationCodeExpiresAt = &v
	}
	if a.ResetPasswordTokenHash != nil {
		v := *a.ResetPasswordTokenHash
		c.ResetPasswordTokenHash = &v
	}
	if a.ResetPasswordExpiresAt != nil {
		v := *a.ResetPasswordExpiresAt
		c.ResetPasswordExpiresAt = &v
	}
	return &c
}
