package auth

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jobhunt/identity/pkg/account"
)

const (
	minNameLen = 3
	maxNameLen = 30

	// MinPasswordLength and MaxPasswordLength bound raw passwords at
	// registration and reset.
	MinPasswordLength = 8
	MaxPasswordLength = 32
)

var (
	emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Local mobile numbers: ten digits starting 6-9.
	phoneRegex = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	dotRegex   = regexp.MustCompile(`\.{2,}`)
)

// normalizeEmail lowercases and trims an address and consolidates
// consecutive dots in the local part, which trip up some providers.
func normalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return email
	}

	local := dotRegex.ReplaceAllString(parts[0], ".")
	local = strings.Trim(local, ".")

	return local + "@" + parts[1]
}

// RegistrationInput is the profile and credential submitted at
// registration time.
type RegistrationInput struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	Password string
	Role     account.Role

	// Job seeker only.
	Niches      account.Niches
	CoverLetter string
	Resume      account.Resume
}

func (in *RegistrationInput) validate() error {
	if in.Name == "" || in.Email == "" || in.Phone == "" || in.Address == "" || in.Password == "" || in.Role == "" {
		return fmt.Errorf("%w: all fields are required", ErrInvalidInput)
	}
	if l := len(in.Name); l < minNameLen || l > maxNameLen {
		return fmt.Errorf("%w: name must contain %d to %d characters", ErrInvalidInput, minNameLen, maxNameLen)
	}
	if !emailRegex.MatchString(in.Email) {
		return fmt.Errorf("%w: please provide a valid email", ErrInvalidInput)
	}
	if !phoneRegex.MatchString(in.Phone) {
		return fmt.Errorf("%w: please enter a valid phone number", ErrInvalidInput)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}
	if in.Role == account.RoleJobSeeker &&
		(in.Niches.First == "" || in.Niches.Second == "" || in.Niches.Third == "") {
		return fmt.Errorf("%w: please provide your preferred job niches", ErrInvalidInput)
	}
	if l := len(in.Password); l < MinPasswordLength || l > MaxPasswordLength {
		return fmt.Errorf("%w: password must contain %d to %d characters", ErrInvalidInput, MinPasswordLength, MaxPasswordLength)
	}
	return nil
}
